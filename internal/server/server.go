// Package server exposes the address formatter over HTTP.
//
//	POST /v1/format     {"country":"gb","address":{...}} -> both renditions
//	GET  /v1/countries  registered countries with display names
//	GET  /healthz       liveness
//	GET  /readyz        readiness
//
// Errors are JSON objects of the form
// {"error":{"code":"country_not_supported","message":"...","request_id":"..."}}.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/addressfmt"
	"github.com/dmitrymomot/addressfmt/pkg/health"
	"github.com/dmitrymomot/addressfmt/pkg/logger"
)

const (
	defaultMaxBodyBytes   = 64 << 10
	defaultRequestTimeout = 5 * time.Second
)

// Formatter is the part of *addressfmt.Formatter the handlers need.
type Formatter interface {
	Format(country string, fields addressfmt.Fields) (addressfmt.Formatted, error)
	Countries() []string
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	formatter      Formatter
	log            *slog.Logger
	idGenerator    func() string
	maxBodyBytes   int64
	requestTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = logger.OrNope(log)
	}
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithRequestTimeout bounds the handling time of one request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithRequestIDGenerator replaces the UUID request id generator.
func WithRequestIDGenerator(gen func() string) Option {
	return func(s *Server) {
		s.idGenerator = gen
	}
}

// New creates a Server for f.
func New(f Formatter, opts ...Option) *Server {
	s := &Server{
		formatter:      f,
		log:            logger.NewNope(),
		maxBodyBytes:   defaultMaxBodyBytes,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestID(s.idGenerator),
		Logging(s.log),
		Recover(s.log),
		middleware.Timeout(s.requestTimeout),
	)

	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(health.Checks{
		"templates": health.Countries(func() int { return len(s.formatter.Countries()) }),
	}, health.WithLogger(s.log)))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/format", s.handleFormat)
		r.Get("/countries", s.handleCountries)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &HTTPError{Status: http.StatusNotFound, Code: "not_found", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &HTTPError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: "method not allowed"})
	})

	return r
}
