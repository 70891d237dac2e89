package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"thingapi/internal/information/models"
	"thingapi/pkg/platform/sentinel"
)

func TestParseObjectID(t *testing.T) {
	t.Run("valid hex", func(t *testing.T) {
		oid := primitive.NewObjectID()
		got, err := parseObjectID(oid.Hex())
		require.NoError(t, err)
		assert.Equal(t, oid, got)
	})

	t.Run("malformed id reads as not found", func(t *testing.T) {
		_, err := parseObjectID("not-an-object-id")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, err, sentinel.ErrInvalidID)
	})
}

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	info := &models.Information{
		Group:        "fruits",
		Thing:        "apple",
		Name:         "Ana",
		LocationName: "Tandil",
		LocationGeo:  &models.LngLat{Lng: -59.1, Lat: -37.3},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	doc := toDocument(info)
	doc.ID = primitive.NewObjectID()

	assert.Equal(t, []float64{-59.1, -37.3}, doc.LocationGeo)

	back := fromDocument(doc)
	info.ID = doc.ID.Hex()
	assert.Equal(t, info, back)
}

func TestFromDocumentWithoutLocation(t *testing.T) {
	doc := informationDocument{ID: primitive.NewObjectID(), Group: "g", Thing: "t"}
	assert.Nil(t, fromDocument(doc).LocationGeo)
}
