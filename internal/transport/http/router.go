package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"thingapi/internal/platform/metrics"
	"thingapi/internal/platform/middleware"
	"thingapi/pkg/platform/httputil"
	"thingapi/pkg/requestcontext"
)

const (
	welcomeMessage = "Welcome to the Web 1 - UNICEN v1 API"

	// partialFragment is served to the demo page, which injects it with AJAX.
	partialFragment = `<h1>PARTIAL RENDER</h1><p>Este texto fue cargado con partiarl render usando AJAX!!!</p><button type="button" class="btn btn-default js-comportamiento">Boton</button>`

	healthCheckTimeout = 2 * time.Second
)

// Registrar is implemented by module handlers that own a set of routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck is one named dependency probed by /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the collaborators wired into the router.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	AllowedOrigins []string
	Modules        []Registrar
	HealthChecks   []HealthCheck
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewRouter wires the shared middleware stack, the service-level routes and
// every module's routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.LatencyMiddleware(deps.Metrics))
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	r.Get("/", handleIndex)
	r.Get("/api/html", handlePartial)
	r.Get("/health", healthHandler(deps.Logger, deps.HealthChecks))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	for _, module := range deps.Modules {
		module.Register(r)
	}
	return r
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "OK", Message: welcomeMessage})
}

func handlePartial(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteHTML(w, http.StatusOK, partialFragment)
}

// healthHandler answers 503 as soon as one check fails.
func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"request_id", requestcontext.RequestID(ctx),
					"check", hc.Name,
					"error", err.Error(),
				)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, statusResponse{
					Status:  "ERROR",
					Message: hc.Name + " unavailable",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "OK"})
	}
}
