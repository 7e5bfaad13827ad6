// Package httptransport assembles the HTTP surface of the service.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pactum/internal/platform/middleware"
	"pactum/pkg/platform/httputil"
)

// Registrar is any handler group that can attach its routes to a router.
type Registrar interface {
	Register(r chi.Router)
}

type Config struct {
	TokenValidator middleware.JWTValidator
	Logger         *slog.Logger
	// Handlers are mounted behind authentication in registration order.
	Handlers []Registrar
}

// NewRouter builds the full route tree. Health and metrics stay outside the
// authenticated group so probes and scrapers need no token.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.TokenValidator, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})

	return r
}
