// Package http exposes the fieldwork service as a JSON API over chi.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/savestate"
	"github.com/aretw0/fieldwork/pkg/survey"
)

// Service is the part of fieldwork.Service the API needs.
type Service interface {
	ValidateSurveyData(title, description string, startDate, deadline *string, sections []domain.Section) []domain.ValidationError
	LoadDraft(ctx context.Context, draftID string) (*domain.SurveyDraft, error)
	SaveDraft(ctx context.Context, draftID string, d *domain.SurveyDraft) error
	DeleteDraft(ctx context.Context, draftID string) error
	ListDrafts(ctx context.Context) ([]string, error)
	SaveSection(ctx context.Context, draftID, sectionID, userID string) (survey.SaveResult, error)
	Tracker(ctx context.Context, draftID string) (*savestate.Tracker, error)
	ResetDraft(ctx context.Context, draftID string) error
	LoadSurvey(ctx context.Context, surveyID string) (*domain.SurveyDraft, error)
}

// Server holds the handlers of the API.
type Server struct {
	svc      Service
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	limiter  *clientLimiter
	version  string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRateLimit limits every client to rps requests per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = newClientLimiter(rps, burst)
		}
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc Service, opts ...Option) http.Handler {
	s := &Server{
		svc:      svc,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.Validate)
		r.Get("/drafts", s.ListDrafts)
		r.Route("/drafts/{draftID}", func(r chi.Router) {
			r.Use(s.requireDraftID)
			r.Put("/", s.PutDraft)
			r.Get("/", s.GetDraft)
			r.Delete("/", s.DeleteDraft)
			r.Post("/sections/{sectionID}/save", s.SaveSection)
			r.Get("/save-state", s.GetSaveState)
			r.Delete("/save-state", s.ResetSaveState)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/graph", s.GetGraph)
		})
		r.Get("/surveys/{surveyID}", s.GetSurvey)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
		)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "fieldwork-http",
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
