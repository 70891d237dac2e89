package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"thingapi/pkg/platform/circuit"
	"thingapi/pkg/platform/sentinel"
)

// ErrCircuitOpen is returned without calling the provider while its breaker
// is open.
var ErrCircuitOpen = fmt.Errorf("geocode: circuit open: %w", sentinel.ErrUnavailable)

// BreakerGeocoder stops calling a failing provider for a cooldown period.
// ErrZeroResults and ErrEmptyAddress are answers, not provider failures. A
// call whose caller context ended is not recorded either way.
type BreakerGeocoder struct {
	next    Geocoder
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerGeocoder(next Geocoder, breaker *circuit.Breaker, logger *slog.Logger) *BreakerGeocoder {
	return &BreakerGeocoder{next: next, breaker: breaker, logger: logger}
}

func (g *BreakerGeocoder) Geocode(ctx context.Context, address string) ([]Result, error) {
	if !g.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	results, err := g.next.Geocode(ctx, address)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	if err != nil && !errors.Is(err, ErrZeroResults) && !errors.Is(err, ErrEmptyAddress) {
		if _, change := g.breaker.RecordFailure(); change.Opened && g.logger != nil {
			g.logger.WarnContext(ctx, "geocoder circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return nil, err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed && g.logger != nil {
		g.logger.InfoContext(ctx, "geocoder circuit closed", "breaker", g.breaker.Name())
	}
	return results, err
}
