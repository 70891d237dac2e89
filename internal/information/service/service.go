package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"thingapi/internal/audit"
	"thingapi/internal/geocode"
	infometrics "thingapi/internal/information/metrics"
	"thingapi/internal/information/models"
	dErrors "thingapi/pkg/domain-errors"
	"thingapi/pkg/platform/sentinel"
	"thingapi/pkg/requestcontext"
)

// Operation names used for metrics and span names.
const (
	opCreate      = "create"
	opGet         = "get"
	opListByGroup = "list_by_group"
	opListAll     = "list_all"
	opUpdate      = "update_location"
	opRemove      = "remove"
)

type Store interface {
	Insert(ctx context.Context, info *models.Information) error
	FindByID(ctx context.Context, id string) (*models.Information, error)
	FindByGroup(ctx context.Context, group string) ([]*models.Information, error)
	FindAll(ctx context.Context) ([]*models.Information, error)
	UpdateLocation(ctx context.Context, id string, update models.LocationUpdate) (*models.Information, error)
	Delete(ctx context.Context, id string) (*models.Information, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates information records and the geocoder.
type Service struct {
	store          Store
	geocoder       geocode.Geocoder
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *infometrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *infometrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, geocoder geocode.Geocoder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		geocoder: geocoder,
		tracer:   otel.Tracer("thingapi/information"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new record. Both fields must be present; empty strings are
// accepted. Numbers and booleans are stored as text; objects and arrays fail
// as a persistence error.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (info *models.Information, err error) {
	ctx, done := s.begin(ctx, opCreate)
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	group, thing, err := req.Values()
	if err != nil {
		return nil, err
	}

	info = models.NewInformation(group, thing, requestcontext.Now(ctx))
	if err := s.store.Insert(ctx, info); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to save information")
	}

	s.emit(ctx, audit.ActionInformationCreated, info)
	return info, nil
}

// Get returns the record with the given id.
func (s *Service) Get(ctx context.Context, id string) (info *models.Information, err error) {
	ctx, done := s.begin(ctx, opGet, attribute.String("information.id", id))
	defer func() { done(err) }()

	info, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to load information")
	}
	return info, nil
}

// ListByGroup returns every record in group. No match is an empty slice.
func (s *Service) ListByGroup(ctx context.Context, group string) (infos []*models.Information, err error) {
	ctx, done := s.begin(ctx, opListByGroup, attribute.String("information.group", group))
	defer func() { done(err) }()

	infos, err = s.store.FindByGroup(ctx, group)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list group")
	}
	return nonNil(infos), nil
}

// ListAll returns every record.
func (s *Service) ListAll(ctx context.Context) (infos []*models.Information, err error) {
	ctx, done := s.begin(ctx, opListAll)
	defer func() { done(err) }()

	infos, err = s.store.FindAll(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list information")
	}
	return nonNil(infos), nil
}

// UpdateLocation geocodes req.Location and writes the first match into the
// record's name and location fields. The record is untouched when geocoding
// fails or finds nothing.
func (s *Service) UpdateLocation(ctx context.Context, id string, req *models.UpdateRequest) (info *models.Information, err error) {
	ctx, done := s.begin(ctx, opUpdate, attribute.String("information.id", id))
	defer func() { done(err) }()

	if req == nil {
		req = &models.UpdateRequest{}
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, dErrors.Wrap(geocode.ErrEmptyAddress, dErrors.CodeGeocode, "location is required")
	}

	results, err := s.geocoder.Geocode(ctx, location)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeGeocode, "failed to geocode location")
	}
	if len(results) == 0 {
		return nil, dErrors.Wrap(geocode.ErrZeroResults, dErrors.CodeGeocode, "location not found")
	}

	first := results[0]
	info, err = s.store.UpdateLocation(ctx, id, models.LocationUpdate{
		Name:         req.Name,
		LocationName: first.FormattedAddress,
		LocationGeo:  models.LngLat{Lng: first.Lng, Lat: first.Lat},
		UpdatedAt:    models.StoredTime(requestcontext.Now(ctx)),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "information not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to update information")
	}

	s.emit(ctx, audit.ActionInformationUpdated, info)
	return info, nil
}

// Remove hard-deletes the record and returns what was removed.
func (s *Service) Remove(ctx context.Context, id string) (info *models.Information, err error) {
	ctx, done := s.begin(ctx, opRemove, attribute.String("information.id", id))
	defer func() { done(err) }()

	info, err = s.store.Delete(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to delete information")
	}

	s.emit(ctx, audit.ActionInformationDeleted, info)
	return info, nil
}

// begin starts a span for op and returns a callback that ends it and records
// the outcome.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "information."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.metrics != nil {
			s.metrics.Observe(op, start, err)
		}
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, info *models.Information) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.DebugContext(ctx, string(action),
			"log_type", "audit",
			"record_id", info.ID,
			"group", info.Group,
			"request_id", requestID,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		RecordID:  info.ID,
		Group:     info.Group,
		RequestID: requestID,
		Timestamp: requestcontext.Now(ctx),
	})
}

func wrapStoreErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "information not found")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, msg)
}

func nonNil(infos []*models.Information) []*models.Information {
	if infos == nil {
		return []*models.Information{}
	}
	return infos
}
