// Package server provides the HTTP API, metrics and health endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imedwei/audio-url-extractor/internal/extract"
	"github.com/imedwei/audio-url-extractor/internal/health"
)

// Extractor runs one extraction.
type Extractor interface {
	Extract(ctx context.Context, req extract.Request) ([]extract.FileRecord, error)
}

// Server represents the HTTP server.
type Server struct {
	server    *http.Server
	router    chi.Router
	logger    *slog.Logger
	checker   *health.Checker
	extractor Extractor
	validate  *validator.Validate
	config    Config
}

// Config holds server configuration.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RequestTimeout bounds one extraction, including every probe.
	RequestTimeout    time.Duration
	DefaultExpiryDays int
	MaxBodyBytes      int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Port:              8000,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      310 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		RequestTimeout:    300 * time.Second,
		DefaultExpiryDays: 7,
		MaxBodyBytes:      1 << 20,
	}
}

// New creates a new HTTP server.
func New(config Config, extractor Extractor, logger *slog.Logger) *Server {
	s := &Server{
		logger:    logger,
		checker:   health.NewChecker(),
		extractor: extractor,
		validate:  newValidator(),
		config:    config,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	// Set up routes
	r.Post("/extract-audio-urls", s.handleExtract)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.checker.Handler())
	r.Get("/healthz/ready", health.ReadinessHandler())
	r.Get("/healthz/live", health.LivenessHandler())

	s.router = r
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RegisterHealthCheck registers a health check function.
func (s *Server) RegisterHealthCheck(name string, checkFunc func(context.Context) health.Check) {
	s.checker.RegisterCheck(name, checkFunc)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// ShutdownTimeout returns how long Shutdown should wait for in-flight
// requests.
func (s *Server) ShutdownTimeout() time.Duration {
	return s.config.ShutdownTimeout
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
