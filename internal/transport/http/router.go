// Package httptransport assembles the public HTTP surface: middleware stack,
// authenticated request routes, and the operational endpoints.
package httptransport

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"suratdesa/internal/platform/middleware"
	"suratdesa/internal/platform/redis"
	"suratdesa/internal/request/handler"
	"suratdesa/pkg/httputil"
)

const defaultRequestTimeout = 60 * time.Second

// Deps carries everything the router mounts.
type Deps struct {
	Requests  *handler.Handler
	Validator *middleware.JWTValidator
	Logger    *slog.Logger

	// DB and Redis back the health endpoint; Redis may be nil.
	DB    *sql.DB
	Redis *redis.Client

	// RequestTimeout caps one request end to end. The render endpoint does
	// its own tighter engine timeout underneath this.
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", healthz(d))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))
		d.Requests.Register(r)
	})
	return r
}

// healthz reports dependency health; any failing dependency turns the whole
// answer into a 503 so load balancers stop routing here.
func healthz(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{}
		healthy := true

		if err := d.DB.PingContext(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}

		if d.Redis != nil {
			if err := d.Redis.Health(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		overall := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": overall,
			"checks": checks,
		})
	}
}
