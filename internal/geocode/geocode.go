// Package geocode resolves free-form addresses to a formatted address and a
// coordinate pair. Providers implement Geocoder; CachedGeocoder decorates any
// provider with a Redis cache.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Result is one candidate match for an address.
type Result struct {
	FormattedAddress string  `json:"formatted_address"`
	Lng              float64 `json:"lng"`
	Lat              float64 `json:"lat"`
}

// Geocoder resolves an address. An address with no match returns
// ErrZeroResults.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Result, error)
}

var (
	// ErrZeroResults means the provider understood the query but found nothing.
	ErrZeroResults = errors.New("geocode: zero results")
	// ErrEmptyAddress is returned before calling a provider with a blank address.
	ErrEmptyAddress = errors.New("geocode: empty address")
)

// ProviderError is a non-OK answer from a remote provider.
type ProviderError struct {
	Provider string
	Status   string
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("geocode provider %s: %s: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("geocode provider %s: %s", e.Provider, e.Status)
}

func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
