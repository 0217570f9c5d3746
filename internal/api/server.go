package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/iparuby/internal/cache"
	"github.com/dgallion1/iparuby/internal/config"
	"github.com/dgallion1/iparuby/internal/lookup"
	"github.com/dgallion1/iparuby/internal/metrics"
	"github.com/dgallion1/iparuby/internal/pipeline"
)

// Server is the HTTP API server for iparuby.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	cache        cache.Store
	fetcher      *lookup.Fetcher
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, store cache.Store, fetcher *lookup.Fetcher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		cache:        store,
		fetcher:      fetcher,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(metrics.Middleware())

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/annotate", s.handleAnnotate)
		r.Get("/api/annotate/{jobID}/status", s.handleAnnotateStatus)
		r.Get("/api/annotate/{jobID}/result", s.handleAnnotateResult)

		r.Get("/api/lookup/{phrase}", s.handleLookup)
		r.Delete("/api/cache/{phrase}", s.handleCacheDelete)
		r.Get("/api/stats/lookup", s.handleLookupStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
