package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"thingapi/internal/audit"
	"thingapi/internal/geocode"
	"thingapi/internal/information"
	infometrics "thingapi/internal/information/metrics"
	"thingapi/internal/information/service"
	"thingapi/internal/information/store"
	"thingapi/internal/platform/config"
	"thingapi/internal/platform/httpserver"
	"thingapi/internal/platform/kafka"
	"thingapi/internal/platform/logger"
	"thingapi/internal/platform/metrics"
	"thingapi/internal/platform/mongo"
	"thingapi/internal/platform/postgres"
	"thingapi/internal/platform/redis"
	httptransport "thingapi/internal/transport/http"
	"thingapi/pkg/platform/circuit"
)

const (
	auditBuffer     = 1024
	shutdownTimeout = 10 * time.Second
)

// recordStore is what the service needs plus the health check.
type recordStore interface {
	service.Store
	Ping(ctx context.Context) error
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	reg := metrics.NewRegistry()
	httpMetrics := metrics.New(reg)

	recStore, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	geocoder, closeGeocoder, err := buildGeocoder(ctx, cfg, log, geocode.NewMetrics(reg))
	if err != nil {
		return err
	}
	closers = append(closers, closeGeocoder)

	sink, closeSink, err := buildAuditSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeSink)

	publisher := audit.NewPublisher(auditBuffer, audit.WithLogger(log), audit.WithRegisterer(reg))
	worker := audit.NewWorker(sink, publisher.Events(), log)

	svc := information.NewService(recStore, geocoder,
		service.WithLogger(log),
		service.WithMetrics(infometrics.New(reg)),
		service.WithAuditPublisher(publisher),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        httpMetrics,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Modules:        []httptransport.Registrar{information.NewHandler(svc, log)},
		HealthChecks: []httptransport.HealthCheck{
			{Name: "store", Check: recStore.Ping},
		},
	})
	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)
	log.Info("starting thingapi", "addr", cfg.Addr, "store", cfg.Store.Driver, "geocoder", cfg.Geocoder.Provider)

	return serve(ctx, srv, worker, log)
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type eventWorker interface {
	Run(ctx context.Context) error
}

// serve runs srv and worker until ctx is cancelled. The worker outlives the
// server: it is stopped only after Shutdown has returned, so events emitted
// by requests still in flight during shutdown are delivered.
func serve(ctx context.Context, srv httpServer, worker eventWorker, log *slog.Logger) error {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(workerCtx)
	})
	g.Go(func() error {
		defer stopWorker()
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func buildStore(ctx context.Context, cfg config.Server, log *slog.Logger) (recordStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("using postgres store")
		return pg, func() { _ = db.Close() }, nil
	case config.DriverMongo:
		client, coll, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		ms := store.NewMongo(coll)
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info("using mongo store", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		return ms, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		log.Info("using in-memory store")
		return store.NewInMemoryStore(), func() {}, nil
	}
}

// buildGeocoder selects the provider, guards the remote one with a circuit
// breaker and adds the Redis cache when a Redis URL is configured.
func buildGeocoder(ctx context.Context, cfg config.Server, log *slog.Logger, m *geocode.Metrics) (geocode.Geocoder, func(), error) {
	var provider geocode.Geocoder
	switch cfg.Geocoder.Provider {
	case config.GeocoderGoogle:
		provider = geocode.NewBreakerGeocoder(
			geocode.NewGoogleClient(cfg.Geocoder.BaseURL, cfg.Geocoder.APIKey, cfg.Geocoder.Timeout),
			circuit.New("geocoder.google"),
			log,
		)
	default:
		provider = geocode.NewStaticGeocoder(geocode.DefaultStaticEntries())
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return provider, func() {}, nil
	}
	log.Info("geocode cache enabled", "ttl", cfg.Geocoder.CacheTTL)
	cached := geocode.NewCachedGeocoder(provider, client, cfg.Geocoder.CacheTTL,
		geocode.WithCacheLogger(log),
		geocode.WithCacheMetrics(m),
	)
	return cached, func() { _ = client.Close() }, nil
}

func buildAuditSink(ctx context.Context, cfg config.Server, log *slog.Logger) (audit.Sink, func(), error) {
	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if producer == nil {
		return audit.NewLogSink(log), func() {}, nil
	}
	log.Info("publishing lifecycle events to kafka", "topic", cfg.Kafka.Topic)
	return audit.NewKafkaSink(producer, cfg.Kafka.Topic), producer.Close, nil
}
