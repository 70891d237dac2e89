package information

import (
	"log/slog"

	"thingapi/internal/geocode"
	"thingapi/internal/information/handler"
	"thingapi/internal/information/service"
)

// Service exposes the information record operations.
type Service = service.Service

// Handler wires HTTP endpoints to the information service.
type Handler = handler.Handler

// NewService constructs the information service over a store and a geocoder.
func NewService(store service.Store, geocoder geocode.Geocoder, opts ...service.Option) *Service {
	return service.New(store, geocoder, opts...)
}

// NewHandler constructs the HTTP handler for the /api routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
