// Package server exposes the search pipeline and the lead store over HTTP
// for the web front end.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/repriselab/prospect-cli/internal/pipeline"
	"github.com/repriselab/prospect-cli/internal/store"
	"github.com/repriselab/prospect-cli/pkg/fullenrich"
)

// Server holds the handler dependencies.
type Server struct {
	pipeline *pipeline.Pipeline
	enricher fullenrich.Client
	store    store.Store
	pollOpts []fullenrich.PollOption
}

// Option configures the Server.
type Option func(*Server)

// WithPollOptions sets polling behavior for the enrich endpoint.
func WithPollOptions(opts ...fullenrich.PollOption) Option {
	return func(s *Server) {
		s.pollOpts = opts
	}
}

// New creates a Server with explicit dependencies.
func New(p *pipeline.Pipeline, enricher fullenrich.Client, st store.Store, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		enricher: enricher,
		store:    st,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/export", s.handleExport)
		r.Post("/enrich", s.handleEnrich)
		r.Get("/credits", s.handleCredits)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", s.handleListLeads)
			r.Post("/", s.handleCreateLead)
			r.Get("/export", s.handleExportLeads)
			r.Get("/{id}", s.handleGetLead)
			r.Put("/{id}", s.handleUpdateLead)
			r.Delete("/{id}", s.handleDeleteLead)
		})
	})

	return r
}

// requestLogger logs one line per request with status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
