// Package web wires the storefront API into one http.Handler: public catalog
// reads, admin-gated mutations, login endpoints, image serving, and the
// ambient middleware stack.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Is-Prog22/fastandtrust/internal/admin"
	"github.com/Is-Prog22/fastandtrust/internal/catalog"
	"github.com/Is-Prog22/fastandtrust/internal/uploads"
	"github.com/Is-Prog22/fastandtrust/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	LoginLimit      int
	LoginWindowSecs int
}

const (
	defaultLoginLimit      = 5
	defaultLoginWindowSecs = 60

	readyTimeout = 1 * time.Second
)

func NewHandler(cat *catalog.Server, adm *admin.Server, up *uploads.Dir, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyz(cat, deps.Log))

	limit, window := deps.LoginLimit, deps.LoginWindowSecs
	if limit <= 0 {
		limit = defaultLoginLimit
	}
	if window <= 0 {
		window = defaultLoginWindowSecs
	}
	limiter := kit.NewIPRateLimiter(limit, window)

	r.Route("/api", func(api chi.Router) {
		adm.Register(api, limiter)
		cat.Register(api, admin.RequireAdmin(adm.Tokens))
	})

	r.Handle(uploads.PublicPrefix+"/*", up.Handler())

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func readyz(cat *catalog.Server, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := cat.Store.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, kit.CodeStorage, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
