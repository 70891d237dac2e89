package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoogleServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestGoogleClientGeocode(t *testing.T) {
	t.Run("maps first result", func(t *testing.T) {
		srv, captured := newGoogleServer(t, http.StatusOK, `{
			"status": "OK",
			"results": [
				{"formatted_address": "Tandil, Buenos Aires Province, Argentina",
				 "geometry": {"location": {"lat": -37.3217, "lng": -59.1332}}},
				{"formatted_address": "Tandil Partido, Argentina",
				 "geometry": {"location": {"lat": -37.3, "lng": -59.2}}}
			]
		}`)
		client := NewGoogleClient(srv.URL, "secret", time.Second)

		results, err := client.Geocode(context.Background(), "Tandil")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Tandil, Buenos Aires Province, Argentina", results[0].FormattedAddress)
		assert.Equal(t, -59.1332, results[0].Lng)
		assert.Equal(t, -37.3217, results[0].Lat)
		assert.Equal(t, "Tandil", captured.URL.Query().Get("address"))
		assert.Equal(t, "secret", captured.URL.Query().Get("key"))
	})

	t.Run("zero results", func(t *testing.T) {
		srv, _ := newGoogleServer(t, http.StatusOK, `{"status": "ZERO_RESULTS", "results": []}`)
		_, err := NewGoogleClient(srv.URL, "k", time.Second).Geocode(context.Background(), "nowhere")
		assert.ErrorIs(t, err, ErrZeroResults)
	})

	t.Run("provider refusal", func(t *testing.T) {
		srv, _ := newGoogleServer(t, http.StatusOK, `{"status": "REQUEST_DENIED", "error_message": "bad key"}`)
		_, err := NewGoogleClient(srv.URL, "k", time.Second).Geocode(context.Background(), "Tandil")
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "REQUEST_DENIED", pe.Status)
		assert.Equal(t, "bad key", pe.Message)
	})

	t.Run("http failure", func(t *testing.T) {
		srv, _ := newGoogleServer(t, http.StatusBadGateway, `oops`)
		_, err := NewGoogleClient(srv.URL, "k", time.Second).Geocode(context.Background(), "Tandil")
		var pe *ProviderError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("empty address never calls provider", func(t *testing.T) {
		_, err := NewGoogleClient("http://127.0.0.1:1", "k", time.Second).Geocode(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrEmptyAddress)
	})
}

func TestStaticGeocoder(t *testing.T) {
	g := NewStaticGeocoder(DefaultStaticEntries())

	results, err := g.Geocode(context.Background(), "  TANDIL ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tandil, Buenos Aires Province, Argentina", results[0].FormattedAddress)

	_, err = g.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrZeroResults)

	_, err = g.Geocode(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyAddress)
}
