// Package httptransport assembles the HTTP surface: middleware stack, module
// handlers under /api/v1, and the operational endpoints.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"rollcall/internal/platform/metrics"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/platform/middleware/clientmeta"
	"rollcall/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes onto the API router.
type Registrar interface {
	Register(r chi.Router)
}

// Pinger reports dependency health for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Config carries everything the router needs.
type Config struct {
	Handlers []Registrar
	Metrics  *metrics.Metrics
	DB       Pinger
}

// NewRouter wires the middleware stack and mounts all handlers.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(clientmeta.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Route("/api/v1", func(api chi.Router) {
		for _, handler := range cfg.Handlers {
			handler.Register(api)
		}
	})

	r.Get("/healthz", healthz(cfg.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
				return
			}
			status["database"] = "ok"
		}

		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
