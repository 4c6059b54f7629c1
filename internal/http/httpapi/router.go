package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/reelay-dev/reelay/internal/http/handlers"
	"github.com/reelay-dev/reelay/internal/infra"
	"github.com/reelay-dev/reelay/internal/metrics"
	mw "github.com/reelay-dev/reelay/internal/middleware"
)

// NewRouter wires the HTTP surface: middleware stack, the video endpoints,
// and the operational routes (health, metrics, swagger).
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup mw.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
	)
	r.Use(mw.RequestID)
	r.Use(mw.Logger(logger))
	r.Use(mw.CORS(cfg.CORSOrigins))
	r.Use(mw.RateLimit(cfg.RateLimitPerMin, time.Minute))
	r.Use(mw.I18N(cfg.DefaultLocale, lookup))
	r.Use(metrics.Middleware)

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/videos", app.VideosCreate)
	// Operation names contain slashes, so the route is a catch-all.
	r.Get("/v1/operations/*", app.OperationStatus)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r
}
