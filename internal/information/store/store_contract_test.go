package store

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"thingapi/internal/information/models"
	"thingapi/pkg/platform/sentinel"
)

type recordStore interface {
	Insert(ctx context.Context, info *models.Information) error
	FindByID(ctx context.Context, id string) (*models.Information, error)
	FindByGroup(ctx context.Context, group string) ([]*models.Information, error)
	FindAll(ctx context.Context) ([]*models.Information, error)
	UpdateLocation(ctx context.Context, id string, update models.LocationUpdate) (*models.Information, error)
	Delete(ctx context.Context, id string) (*models.Information, error)
	Ping(ctx context.Context) error
}

var (
	_ recordStore = (*InMemoryStore)(nil)
	_ recordStore = (*PostgresStore)(nil)
	_ recordStore = (*MongoStore)(nil)
)

// contractSuite is the behaviour every record store must share. Backends
// embed it and set store (and optionally reset) in their setup hooks.
type contractSuite struct {
	suite.Suite
	store recordStore
	reset func(ctx context.Context) error
	ctx   context.Context
}

func (s *contractSuite) SetupTest() {
	s.ctx = context.Background()
	if s.reset != nil {
		s.Require().NoError(s.reset(s.ctx))
	}
}

func (s *contractSuite) insert(group, thing string) *models.Information {
	info := models.NewInformation(group, thing, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, info))
	return info
}

func (s *contractSuite) TestCreateThenGet() {
	info := s.insert("fruits", "apple")
	s.Require().NotEmpty(info.ID)

	found, err := s.store.FindByID(s.ctx, info.ID)
	s.Require().NoError(err)
	s.Equal(info.ID, found.ID)
	s.Equal("fruits", found.Group)
	s.Equal("apple", found.Thing)
	s.True(info.CreatedAt.Equal(found.CreatedAt))
	s.Nil(found.LocationGeo)
}

func (s *contractSuite) TestGetUnknown() {
	_, err := s.store.FindByID(s.ctx, "000000000000000000000000")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestGroupPartition() {
	x1 := s.insert("X", "one")
	x2 := s.insert("X", "two")
	s.insert("Y", "three")

	got, err := s.store.FindByGroup(s.ctx, "X")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.ElementsMatch([]string{x1.ID, x2.ID}, []string{got[0].ID, got[1].ID})

	empty, err := s.store.FindByGroup(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *contractSuite) TestFindAll() {
	a := s.insert("X", "one")
	b := s.insert("Y", "two")

	got, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal([]string{a.ID, b.ID}, []string{got[0].ID, got[1].ID})
}

func (s *contractSuite) TestUpdateLocation() {
	info := s.insert("fruits", "apple")
	updatedAt := info.CreatedAt.Add(time.Minute)

	updated, err := s.store.UpdateLocation(s.ctx, info.ID, models.LocationUpdate{
		Name:         "Ana",
		LocationName: "Tandil, Buenos Aires Province, Argentina",
		LocationGeo:  models.LngLat{Lng: -59.1332, Lat: -37.3217},
		UpdatedAt:    updatedAt,
	})
	s.Require().NoError(err)
	s.Equal("fruits", updated.Group)
	s.Equal("apple", updated.Thing)
	s.Equal("Ana", updated.Name)
	s.Require().NotNil(updated.LocationGeo)
	s.InDelta(-59.1332, updated.LocationGeo.Lng, 1e-9)
	s.InDelta(-37.3217, updated.LocationGeo.Lat, 1e-9)

	reloaded, err := s.store.FindByID(s.ctx, info.ID)
	s.Require().NoError(err)
	s.Equal("Tandil, Buenos Aires Province, Argentina", reloaded.LocationName)
	s.True(updatedAt.Equal(reloaded.UpdatedAt))
}

func (s *contractSuite) TestUpdateUnknown() {
	_, err := s.store.UpdateLocation(s.ctx, "000000000000000000000000", models.LocationUpdate{})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestDelete() {
	info := s.insert("fruits", "apple")

	removed, err := s.store.Delete(s.ctx, info.ID)
	s.Require().NoError(err)
	s.Equal(info.ID, removed.ID)

	_, err = s.store.FindByID(s.ctx, info.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Delete(s.ctx, info.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
