package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const providerGoogle = "google"

// GoogleClient calls a Google Geocoding API compatible endpoint.
type GoogleClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogleClient builds a client. A zero timeout falls back to 10s.
func NewGoogleClient(baseURL, apiKey string, timeout time.Duration) *GoogleClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (c *GoogleClient) Geocode(ctx context.Context, address string) ([]Result, error) {
	ctx, span := otel.Tracer("thingapi/geocode").Start(ctx, "geocode.google")
	defer span.End()

	results, err := c.geocode(ctx, address)
	span.SetAttributes(attribute.Int("geocode.results", len(results)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return results, err
}

func (c *GoogleClient) geocode(ctx context.Context, address string) ([]Result, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrEmptyAddress
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: providerGoogle, Status: resp.Status}
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrZeroResults
	default:
		return nil, &ProviderError{Provider: providerGoogle, Status: body.Status, Message: body.ErrorMessage}
	}

	results := make([]Result, 0, len(body.Results))
	for _, r := range body.Results {
		results = append(results, Result{
			FormattedAddress: r.FormattedAddress,
			Lng:              r.Geometry.Location.Lng,
			Lat:              r.Geometry.Location.Lat,
		})
	}
	if len(results) == 0 {
		return nil, ErrZeroResults
	}
	return results, nil
}
