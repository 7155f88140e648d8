// Package http exposes the trigger, analysis and operational endpoints.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig wires the handlers into one router
type RouterConfig struct {
	Cron        *CronHandler
	Analysis    *AnalysisHandler
	Ready       map[string]Pinger
	CORSOrigins []string
	Metrics     http.Handler // defaults to promhttp.Handler()
}

// NewRouter builds the service's HTTP routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(cfg.Ready))
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	if cfg.Cron != nil {
		r.Get("/api/cron/collect", cfg.Cron.HandleCollect)
		r.Post("/api/cron/collect", cfg.Cron.HandleCollect)
	}

	if cfg.Analysis != nil {
		r.Route("/api/v1", func(r chi.Router) {
			// on-demand lookups are bounded; the trigger is not
			r.Use(chimiddleware.Timeout(30 * time.Second))

			r.Get("/analysis/prop", cfg.Analysis.HandleAnalyzeProp)
			r.Get("/analysis/game", cfg.Analysis.HandleAnalyzeGame)
			r.Get("/games/{gameID}/odds", cfg.Analysis.HandleGameOdds)
			r.Get("/featured", cfg.Analysis.HandleFeatured)
		})
	}

	return r
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 when every dependency answers a ping
func readyHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if err := dep.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(name + " unavailable"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
