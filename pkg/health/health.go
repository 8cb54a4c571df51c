package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/addressfmt/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	// StatusHealthy indicates all checks passed.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates one or more checks failed.
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports whether one dependency is ready. The detail describes
// what was found and is reported alongside the status even on success.
type CheckFunc func(ctx context.Context) (detail string, err error)

// Checks is a map of named health check functions.
type Checks map[string]CheckFunc

// Response is the aggregated outcome of a readiness run.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the outcome of a single named check.
type Check struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures the readiness handler.
type Option func(*config)

// WithTimeout bounds the whole readiness run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used to report failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger.OrNope(l)
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Countries returns a check that reports how many countries have templates
// and fails when there are none. Pass Formatter.Countries wrapped in a closure.
func Countries(count func() int) CheckFunc {
	return func(context.Context) (string, error) {
		n := count()
		if n == 0 {
			return "", fmt.Errorf("%w: no countries registered", ErrCheckFailed)
		}
		if n == 1 {
			return "1 country registered", nil
		}
		return fmt.Sprintf("%d countries registered", n), nil
	}
}

// Run executes all checks concurrently and aggregates the result. A check
// that outlives the timeout is reported with ErrCheckTimeout.
func Run(ctx context.Context, checks Checks, opts ...Option) *Response {
	return runChecks(ctx, checks, newConfig(opts...))
}

func runChecks(ctx context.Context, checks Checks, cfg *config) *Response {
	if len(checks) == 0 {
		return &Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		status  = StatusHealthy
	)

	// Checks never return errors to the group; a failure in one must not
	// cancel the others.
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			detail, err := runOne(ctx, check)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				results[name] = Check{Status: StatusHealthy, Detail: detail}
				return nil
			}
			status = StatusUnhealthy
			results[name] = Check{Status: StatusUnhealthy, Detail: detail, Error: err.Error()}
			cfg.logger.WarnContext(ctx, "health check failed",
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
			return nil
		})
	}
	_ = g.Wait()

	return &Response{Status: status, Checks: results}
}

type outcome struct {
	detail string
	err    error
}

func runOne(ctx context.Context, check CheckFunc) (string, error) {
	done := make(chan outcome, 1)
	go func() {
		detail, err := check(ctx)
		done <- outcome{detail: detail, err: err}
	}()

	select {
	case o := <-done:
		return o.detail, o.err
	case <-ctx.Done():
		return "", ErrCheckTimeout
	}
}
