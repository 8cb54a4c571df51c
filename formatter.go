package addressfmt

import (
	"errors"
	"fmt"
	"io/fs"
)

// Formatter renders addresses with country-specific layouts.
// It is immutable after creation, making it safe for concurrent use.
// Construct one per process and share it.
type Formatter struct {
	registry *Registry
}

// Formatted holds both renditions of one address.
type Formatted struct {
	Multiline  string `json:"multiline"`
	Singleline string `json:"singleline"`
}

// Option configures the Formatter during construction.
type Option func(*options) error

type options struct {
	sources []Source
}

// New creates a Formatter, loading and compiling every template once.
// Without source options the embedded default templates are used.
// Construction fails on malformed source documents (ErrInvalidSource) and on
// template syntax errors (*TemplateCompileError).
func New(opts ...Option) (*Formatter, error) {
	o := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if len(o.sources) == 0 {
		o.sources = []Source{DefaultSource()}
	}

	var entries []Entry
	for _, src := range o.sources {
		loaded, err := src.Load()
		if err != nil {
			return nil, err
		}
		entries = append(entries, loaded...)
	}

	registry, err := NewRegistry(entries)
	if err != nil {
		return nil, err
	}

	return &Formatter{registry: registry}, nil
}

// WithSource appends template sources. Sources load in the order given and
// later entries for a country replace earlier ones, so an overlay is
// expressed as WithSource(DefaultSource(), overlay).
func WithSource(sources ...Source) Option {
	return func(o *options) error {
		for _, src := range sources {
			if src == nil {
				return fmt.Errorf("%w: nil source", ErrInvalidSource)
			}
			o.sources = append(o.sources, src)
		}
		return nil
	}
}

// WithFS appends a YAMLSource over fsys.
func WithFS(fsys fs.FS) Option {
	return WithSource(YAMLSource(fsys))
}

// WithJSONFS appends a JSONSource over fsys.
func WithJSONFS(fsys fs.FS) Option {
	return WithSource(JSONSource(fsys))
}

// WithEntries appends in-memory template entries.
func WithEntries(entries ...Entry) Option {
	return WithSource(StaticSource(entries...))
}

// FormatMultiline renders fields with the multi-line layout of country and
// returns the normalized, newline-separated result.
func (f *Formatter) FormatMultiline(country string, fields Fields) (string, error) {
	raw, err := f.render(country, ModeMultiline, fields)
	if err != nil {
		return "", err
	}
	return NormalizeMultiline(raw), nil
}

// FormatSingleline renders fields with the single-line layout of country and
// returns the normalized, comma-separated result.
func (f *Formatter) FormatSingleline(country string, fields Fields) (string, error) {
	raw, err := f.render(country, ModeSingleline, fields)
	if err != nil {
		return "", err
	}
	return NormalizeSingleline(raw), nil
}

// Format returns both renditions. Either both succeed or an error is returned.
func (f *Formatter) Format(country string, fields Fields) (Formatted, error) {
	multiline, err := f.FormatMultiline(country, fields)
	if err != nil {
		return Formatted{}, err
	}
	singleline, err := f.FormatSingleline(country, fields)
	if err != nil {
		return Formatted{}, err
	}
	return Formatted{Multiline: multiline, Singleline: singleline}, nil
}

// Supports reports whether a template set is registered for country.
func (f *Formatter) Supports(country string) bool {
	_, ok := f.registry.Lookup(country)
	return ok
}

// Countries returns the sorted registered country codes.
func (f *Formatter) Countries() []string {
	return f.registry.Countries()
}

// Registry returns the formatter's template registry.
func (f *Formatter) Registry() *Registry {
	return f.registry
}

func (f *Formatter) render(country string, mode Mode, fields Fields) (string, error) {
	set, ok := f.registry.Lookup(country)
	if !ok {
		return "", &CountryNotSupportedError{Country: country}
	}

	raw, err := set.Template(mode).Render(fields)
	if err != nil {
		var rerr *RenderError
		if errors.As(err, &rerr) {
			rerr.Country = normalizeCountry(country)
			rerr.Mode = mode
		}
		return "", err
	}
	return raw, nil
}
