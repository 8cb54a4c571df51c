// Package batch formats many address records concurrently and optionally
// checks each result against expected renditions, which makes a directory
// of YAML cases usable as a regression corpus for custom templates.
//
// An input file holds a list of records. When a record has no country, the
// file stem is used, so gb.yaml may omit it:
//
//	- components:
//	    house_name: House Of Lords
//	    postalcode: BR3 1HZ
//	  expected_multiline: |
//	    House Of Lords
//	    BR3 1HZ
//	  expected_singleline: House Of Lords, BR3 1HZ
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/addressfmt"
	"github.com/dmitrymomot/addressfmt/pkg/logger"
	"github.com/dmitrymomot/addressfmt/pkg/sanitizer"
)

var (
	ErrInvalidInput = errors.New("batch: invalid input")
	ErrMismatch     = errors.New("batch: output does not match expectation")
)

const defaultWorkers = 8

// Record is one address to format.
type Record struct {
	Country    string             `yaml:"country" json:"country"`
	Components addressfmt.Address `yaml:"components" json:"components"`
	// Expectations are compared after trimming surrounding whitespace.
	ExpectedMultiline  *string `yaml:"expected_multiline" json:"expected_multiline,omitempty"`
	ExpectedSingleline *string `yaml:"expected_singleline" json:"expected_singleline,omitempty"`

	// Origin names the file and position the record came from.
	Origin string `yaml:"-" json:"origin,omitempty"`
}

// Result is the outcome for one record. Err is a formatting error or an
// ErrMismatch describing the first differing rendition.
type Result struct {
	Record     Record `json:"record"`
	Multiline  string `json:"multiline,omitempty"`
	Singleline string `json:"singleline,omitempty"`
	Err        error  `json:"-"`
}

// OK reports whether the record formatted and matched its expectations.
func (r Result) OK() bool {
	return r.Err == nil
}

// Decode parses a YAML (or JSON) list of records. name supplies the default
// country through its file stem.
func Decode(name string, data []byte) ([]Record, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidInput, name, err)
	}

	base := path.Base(name)
	stem := strings.TrimSuffix(base, path.Ext(base))
	for i := range records {
		if records[i].Country == "" {
			records[i].Country = stem
		}
		records[i].Origin = fmt.Sprintf("%s#%d", name, i)
	}
	return records, nil
}

// LoadFS decodes every .yaml, .yml and .json file in fsys in lexical order.
func LoadFS(fsys fs.FS) ([]Record, error) {
	var records []Record
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		decoded, err := Decode(p, data)
		if err != nil {
			return err
		}
		records = append(records, decoded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Formatter is the part of *addressfmt.Formatter a Runner needs.
type Formatter interface {
	Format(country string, fields addressfmt.Fields) (addressfmt.Formatted, error)
}

// Runner formats records with bounded parallelism.
type Runner struct {
	formatter Formatter
	log       *slog.Logger
	workers   int
	sanitize  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of records formatted at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithSanitize strips markup and control characters from components first.
func WithSanitize() Option {
	return func(r *Runner) {
		r.sanitize = true
	}
}

// WithLogger reports failed records at warn level.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = logger.OrNope(log)
	}
}

// NewRunner creates a Runner.
func NewRunner(f Formatter, opts ...Option) *Runner {
	r := &Runner{
		formatter: f,
		log:       logger.NewNope(),
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run formats every record and returns results in input order. Per-record
// failures are reported in Result.Err; the returned error is only set when
// ctx is cancelled before all records were processed.
func (r *Runner) Run(ctx context.Context, records []Record) ([]Result, error) {
	results := make([]Result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.one(gctx, rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) one(ctx context.Context, rec Record) Result {
	components := rec.Components
	if r.sanitize {
		components = sanitizer.Address(components)
	}

	res := Result{Record: rec}
	out, err := r.formatter.Format(rec.Country, components)
	if err == nil {
		res.Multiline, res.Singleline = out.Multiline, out.Singleline
		err = check(rec, out)
	}
	if err != nil {
		res.Err = err
		r.log.WarnContext(ctx, "record failed",
			slog.String("origin", rec.Origin),
			slog.String("country", rec.Country),
			slog.String("error", err.Error()),
		)
	}
	return res
}

func check(rec Record, out addressfmt.Formatted) error {
	if rec.ExpectedMultiline != nil {
		if want := strings.TrimSpace(*rec.ExpectedMultiline); want != out.Multiline {
			return fmt.Errorf("%w: multiline: want %q, got %q", ErrMismatch, want, out.Multiline)
		}
	}
	if rec.ExpectedSingleline != nil {
		if want := strings.TrimSpace(*rec.ExpectedSingleline); want != out.Singleline {
			return fmt.Errorf("%w: singleline: want %q, got %q", ErrMismatch, want, out.Singleline)
		}
	}
	return nil
}

// Summary counts outcomes.
type Summary struct {
	Total      int `json:"total"`
	Passed     int `json:"passed"`
	Mismatched int `json:"mismatched"`
	Failed     int `json:"failed"`
}

// Summarize tallies results. Failed counts formatting errors; Mismatched
// counts records that formatted but differed from their expectations.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, res := range results {
		switch {
		case res.OK():
			s.Passed++
		case errors.Is(res.Err, ErrMismatch):
			s.Mismatched++
		default:
			s.Failed++
		}
	}
	return s
}

// Failures returns the results with an error, in input order.
func Failures(results []Result) []Result {
	return slices.DeleteFunc(slices.Clone(results), Result.OK)
}
