// Package httptransport assembles the HTTP surface: the feature handlers
// mounted under /api/v1 plus the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustgrid/internal/platform/middleware"
)

// Handler registers a feature's routes on a router. Auth requirements are
// the handler's own concern.
type Handler interface {
	Register(r chi.Router)
}

const requestTimeout = 30 * time.Second

// NewRouter wires the shared middleware chain and mounts every feature
// handler under /api/v1.
func NewRouter(logger *slog.Logger, handlers ...Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
