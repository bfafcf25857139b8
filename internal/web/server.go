// Package web exposes the workout store over a REST API: routine, exercise,
// set, and history CRUD, the change counter, migration status and trigger,
// and read-only analytics.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/nmolargik/setdeck/internal/health"
	"github.com/nmolargik/setdeck/internal/logging"
	"github.com/nmolargik/setdeck/internal/migration"
	"github.com/nmolargik/setdeck/internal/store"
)

// Server is the HTTP server over the workout store.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	config     Config
	logger     *logging.Logger

	store    *store.Store
	pipeline *migration.Pipeline
	reporter *health.Reporter
}

// Config holds the server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	EnableCORS      bool
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8787",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		EnableCORS:      true,
	}
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithPipeline enables the migration status and trigger endpoints.
func WithPipeline(p *migration.Pipeline) ServerOption {
	return func(s *Server) { s.pipeline = p }
}

// New creates a server over the store.
func New(cfg Config, st *store.Store, logger *logging.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		store:    st,
		reporter: health.NewReporter(st),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/changes", s.handleChanges)

		r.Route("/routines", func(r chi.Router) {
			r.Get("/", s.handleListRoutines)
			r.Post("/{day}", s.handleCreateRoutine)
			r.Get("/{day}", s.handleGetRoutine)
			r.Get("/{day}/exercises", s.handleListExercises)
			r.Post("/{day}/exercises", s.handleAddExercise)
			r.Put("/{day}/exercises/order", s.handleReorderExercises)
		})

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/search", s.handleSearchExercises)
			r.Patch("/{id}", s.handleUpdateExercise)
			r.Delete("/{id}", s.handleDeleteExercise)
			r.Get("/{id}/sets", s.handleListSets)
			r.Post("/{id}/sets", s.handleAddSet)
			r.Put("/{id}/sets/order", s.handleReorderSets)
			r.Get("/{id}/history", s.handleExerciseHistory)
		})

		r.Route("/sets", func(r chi.Router) {
			r.Patch("/{id}", s.handleUpdateSet)
			r.Delete("/{id}", s.handleDeleteSet)
			r.Post("/{id}/history", s.handleRecordHistory)
			r.Post("/{id}/commit", s.handleCommitPerformance)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleAllHistory)
			r.Delete("/", s.handleClearHistory)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/weekly", s.handleWeeklySummaries)
			r.Get("/timeseries", s.handleTimeSeries)
		})

		if s.pipeline != nil {
			r.Route("/migration", func(r chi.Router) {
				r.Get("/", s.handleMigrationStatus)
				r.Post("/run", s.handleMigrationRun)
			})
		}
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// Start starts the HTTP server in a non-blocking manner.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Router returns the underlying chi router, used by tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
