package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"thingapi/internal/audit"
	"thingapi/internal/geocode"
	infometrics "thingapi/internal/information/metrics"
	"thingapi/internal/information/models"
	"thingapi/internal/information/store"
	dErrors "thingapi/pkg/domain-errors"
	"thingapi/pkg/requestcontext"
)

// =============================================================================
// Information Service Test Suite
// =============================================================================
// Runs against the in-memory store and a fixed geocoder table so the error
// translation and lifecycle events can be asserted without infrastructure.

type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, event audit.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type failingGeocoder struct{ err error }

func (g failingGeocoder) Geocode(context.Context, string) ([]geocode.Result, error) {
	return nil, g.err
}

type emptyGeocoder struct{}

func (emptyGeocoder) Geocode(context.Context, string) ([]geocode.Result, error) {
	return nil, nil
}

type brokenStore struct {
	*store.InMemoryStore
	err error
}

func (b brokenStore) Insert(context.Context, *models.Information) error { return b.err }
func (b brokenStore) UpdateLocation(context.Context, string, models.LocationUpdate) (*models.Information, error) {
	return nil, b.err
}

type InformationServiceSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	publisher *recordingPublisher
	metrics   *infometrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestInformationServiceSuite(t *testing.T) {
	suite.Run(t, new(InformationServiceSuite))
}

func (s *InformationServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.publisher = &recordingPublisher{}
	s.metrics = infometrics.New(prometheus.NewRegistry())
	s.service = New(s.store, geocode.NewStaticGeocoder(geocode.DefaultStaticEntries()),
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
	)
	s.now = time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-1")
}

func (s *InformationServiceSuite) create(group, thing string) *models.Information {
	info, err := s.service.Create(s.ctx, models.NewCreateRequest(group, thing))
	s.Require().NoError(err)
	return info
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *InformationServiceSuite) TestCreate() {
	s.Run("stores record with generated id and request time", func() {
		info := s.create("fruits", "apple")

		s.NotEmpty(info.ID)
		s.Equal("fruits", info.Group)
		s.Equal("apple", info.Thing)
		s.Equal(s.now, info.CreatedAt)
		s.Nil(info.LocationGeo)
	})

	s.Run("empty strings count as present", func() {
		info := s.create("", "")
		s.NotEmpty(info.ID)
	})

	s.Run("missing field is a validation error", func() {
		_, err := s.service.Create(s.ctx, &models.CreateRequest{Group: json.RawMessage(`"fruits"`)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Create(s.ctx, &models.CreateRequest{Group: json.RawMessage(`null`), Thing: json.RawMessage(`"apple"`)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Create(s.ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("store failure is a persistence error", func() {
		svc := New(brokenStore{InMemoryStore: s.store, err: errors.New("disk full")}, emptyGeocoder{})
		_, err := svc.Create(s.ctx, models.NewCreateRequest("g", "t"))
		s.True(dErrors.HasCode(err, dErrors.CodePersistence))
	})

	s.Run("numbers and booleans are stored as text", func() {
		info, err := s.service.Create(s.ctx, &models.CreateRequest{
			Group: json.RawMessage(`5`),
			Thing: json.RawMessage(`true`),
		})
		s.Require().NoError(err)
		s.Equal("5", info.Group)
		s.Equal("true", info.Thing)

		byGroup, err := s.service.ListByGroup(s.ctx, "5")
		s.Require().NoError(err)
		s.Len(byGroup, 1)
	})

	s.Run("structured value is a persistence error and nothing is stored", func() {
		before, err := s.service.ListAll(s.ctx)
		s.Require().NoError(err)

		_, err = s.service.Create(s.ctx, &models.CreateRequest{
			Group: json.RawMessage(`{"name":"fruits"}`),
			Thing: json.RawMessage(`"apple"`),
		})
		s.True(dErrors.HasCode(err, dErrors.CodePersistence))
		s.ErrorIs(err, models.ErrNotScalar)

		after, err := s.service.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(after, len(before))
	})

	s.Run("request time is stored in UTC at millisecond precision", func() {
		zone := time.FixedZone("ART", -3*60*60)
		local := time.Date(2024, 4, 2, 6, 30, 0, 987654321, zone)
		ctx := requestcontext.WithTime(s.ctx, local)

		info, err := s.service.Create(ctx, models.NewCreateRequest("clock", "tick"))
		s.Require().NoError(err)

		want := time.Date(2024, 4, 2, 9, 30, 0, 987000000, time.UTC)
		s.Equal(want, info.CreatedAt)

		stored, err := s.service.Get(ctx, info.ID)
		s.Require().NoError(err)
		s.Equal(info.CreatedAt, stored.CreatedAt)
		s.Equal(info.UpdatedAt, stored.UpdatedAt)

		updated, err := s.service.UpdateLocation(ctx, info.ID, &models.UpdateRequest{Name: "Ana", Location: "Tandil"})
		s.Require().NoError(err)
		s.Equal(want, updated.UpdatedAt)
	})
}

// =============================================================================
// Read Tests
// =============================================================================

func (s *InformationServiceSuite) TestGet() {
	s.Run("returns the created record", func() {
		created := s.create("fruits", "pear")

		got, err := s.service.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created, got)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.Get(s.ctx, "does-not-exist")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InformationServiceSuite) TestListByGroup() {
	a := s.create("X", "one")
	b := s.create("X", "two")
	s.create("Y", "three")

	s.Run("returns exactly the group members", func() {
		infos, err := s.service.ListByGroup(s.ctx, "X")
		s.Require().NoError(err)
		s.Require().Len(infos, 2)
		s.ElementsMatch([]string{a.ID, b.ID}, []string{infos[0].ID, infos[1].ID})
	})

	s.Run("unknown group is an empty list", func() {
		infos, err := s.service.ListByGroup(s.ctx, "Z")
		s.Require().NoError(err)
		s.NotNil(infos)
		s.Empty(infos)
	})
}

func (s *InformationServiceSuite) TestListAll() {
	s.Run("empty store is an empty list", func() {
		infos, err := s.service.ListAll(s.ctx)
		s.Require().NoError(err)
		s.NotNil(infos)
		s.Empty(infos)
	})

	s.Run("includes every record", func() {
		s.create("fruits", "apple")
		s.create("veg", "leek")

		infos, err := s.service.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(infos, 2)
	})
}

// =============================================================================
// UpdateLocation Tests
// =============================================================================

func (s *InformationServiceSuite) TestUpdateLocation() {
	s.Run("writes geocoded fields and keeps group and thing", func() {
		created := s.create("people", "ana")

		updated, err := s.service.UpdateLocation(s.ctx, created.ID, &models.UpdateRequest{Name: "Ana", Location: "Tandil"})
		s.Require().NoError(err)

		s.Equal("people", updated.Group)
		s.Equal("ana", updated.Thing)
		s.Equal("Ana", updated.Name)
		s.Equal("Tandil, Buenos Aires Province, Argentina", updated.LocationName)
		s.Require().NotNil(updated.LocationGeo)
		s.InDelta(-59.1332, updated.LocationGeo.Lng, 1e-9)
		s.InDelta(-37.3217, updated.LocationGeo.Lat, 1e-9)
	})

	s.Run("zero results leaves record unchanged", func() {
		created := s.create("people", "bob")

		_, err := s.service.UpdateLocation(s.ctx, created.ID, &models.UpdateRequest{Name: "Bob", Location: "Atlantis"})
		s.True(dErrors.HasCode(err, dErrors.CodeGeocode))

		got, err := s.service.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Empty(got.Name)
		s.Nil(got.LocationGeo)
	})

	s.Run("geocoder returning no slice is a geocode error", func() {
		created := s.create("people", "carla")
		svc := New(s.store, emptyGeocoder{})

		_, err := svc.UpdateLocation(s.ctx, created.ID, &models.UpdateRequest{Location: "Tandil"})
		s.True(dErrors.HasCode(err, dErrors.CodeGeocode))
	})

	s.Run("provider failure is a geocode error", func() {
		created := s.create("people", "dan")
		svc := New(s.store, failingGeocoder{err: &geocode.ProviderError{Provider: "google", Status: "REQUEST_DENIED"}})

		_, err := svc.UpdateLocation(s.ctx, created.ID, &models.UpdateRequest{Location: "Tandil"})
		s.True(dErrors.HasCode(err, dErrors.CodeGeocode))
	})

	s.Run("blank location is a geocode error", func() {
		created := s.create("people", "eve")
		_, err := s.service.UpdateLocation(s.ctx, created.ID, &models.UpdateRequest{Name: "Eve"})
		s.True(dErrors.HasCode(err, dErrors.CodeGeocode))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.UpdateLocation(s.ctx, "missing", &models.UpdateRequest{Location: "Tandil"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure is a persistence error", func() {
		svc := New(brokenStore{InMemoryStore: s.store, err: errors.New("timeout")},
			geocode.NewStaticGeocoder(geocode.DefaultStaticEntries()))
		_, err := svc.UpdateLocation(s.ctx, "any", &models.UpdateRequest{Location: "Tandil"})
		s.True(dErrors.HasCode(err, dErrors.CodePersistence))
	})
}

// =============================================================================
// Remove Tests
// =============================================================================

func (s *InformationServiceSuite) TestRemove() {
	s.Run("delete then get is not found", func() {
		created := s.create("fruits", "plum")

		removed, err := s.service.Remove(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, removed.ID)

		_, err = s.service.Get(s.ctx, created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.Remove(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Lifecycle Events and Metrics
// =============================================================================

func (s *InformationServiceSuite) TestEmitsLifecycleEvents() {
	created := s.create("people", "fay")
	_, err := s.service.UpdateLocation(s.ctx, created.ID, &models.UpdateRequest{Location: "New York"})
	s.Require().NoError(err)
	_, err = s.service.Remove(s.ctx, created.ID)
	s.Require().NoError(err)

	// Failed mutations emit nothing.
	_, _ = s.service.Remove(s.ctx, created.ID)

	s.Require().Len(s.publisher.events, 3)
	s.Equal(audit.ActionInformationCreated, s.publisher.events[0].Action)
	s.Equal(audit.ActionInformationUpdated, s.publisher.events[1].Action)
	s.Equal(audit.ActionInformationDeleted, s.publisher.events[2].Action)
	for _, ev := range s.publisher.events {
		s.Equal(created.ID, ev.RecordID)
		s.Equal("people", ev.Group)
		s.Equal("req-1", ev.RequestID)
		s.Equal(s.now, ev.Timestamp)
	}
}

func (s *InformationServiceSuite) TestLifecycleLogStaysBelowInfo() {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	svc := New(s.store, emptyGeocoder{}, WithLogger(log), WithAuditPublisher(s.publisher))

	_, err := svc.Create(s.ctx, models.NewCreateRequest("people", "gil"))
	s.Require().NoError(err)

	s.Len(s.publisher.events, 1)
	s.NotContains(buf.String(), string(audit.ActionInformationCreated))
}

func (s *InformationServiceSuite) TestRecordsOperationOutcomes() {
	s.create("fruits", "kiwi")
	_, _ = s.service.Get(s.ctx, "missing")

	s.Equal(1.0, testutil.ToFloat64(s.metrics.OperationsTotal.WithLabelValues(opCreate, infometrics.OutcomeOK)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OperationsTotal.WithLabelValues(opGet, infometrics.OutcomeError)))
}
