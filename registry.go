package addressfmt

import (
	"fmt"
	"slices"
	"strings"
)

// TemplateSet pairs the two renditions of one country. Both are always set.
type TemplateSet struct {
	Multiline  *Template
	Singleline *Template
}

// Template returns the member for mode, or nil for an unknown mode.
func (s TemplateSet) Template(mode Mode) *Template {
	switch mode {
	case ModeMultiline:
		return s.Multiline
	case ModeSingleline:
		return s.Singleline
	default:
		return nil
	}
}

// Registry maps lower-cased country codes to compiled template sets.
// It is immutable after NewRegistry returns, so one instance can be shared by
// any number of goroutines without locking.
type Registry struct {
	sets map[string]TemplateSet

	// Pre-computed sorted list of registered codes.
	countries []string
}

// NewRegistry compiles every entry. Codes are lower-cased on insert and a
// later entry with the same code replaces an earlier one. If any template
// fails to compile no registry is returned; the error is a
// *TemplateCompileError naming the country and mode.
func NewRegistry(entries []Entry) (*Registry, error) {
	sets := make(map[string]TemplateSet, len(entries))

	for i, entry := range entries {
		code := normalizeCountry(entry.Country)
		if code == "" {
			return nil, fmt.Errorf("%w: entry #%d has no country code", ErrInvalidSource, i)
		}

		set, err := compileEntry(code, entry)
		if err != nil {
			return nil, err
		}
		sets[code] = set
	}

	countries := make([]string, 0, len(sets))
	for code := range sets {
		countries = append(countries, code)
	}
	slices.Sort(countries)

	return &Registry{
		sets:      sets,
		countries: countries,
	}, nil
}

// Lookup returns the template set for country. Matching is case-insensitive
// and exact: no aliasing is applied, so "uk" does not find "gb".
func (r *Registry) Lookup(country string) (TemplateSet, bool) {
	set, ok := r.sets[normalizeCountry(country)]
	return set, ok
}

// Countries returns the sorted registered country codes.
func (r *Registry) Countries() []string {
	return slices.Clone(r.countries)
}

// Len returns the number of registered countries.
func (r *Registry) Len() int {
	return len(r.sets)
}

func compileEntry(code string, entry Entry) (TemplateSet, error) {
	multiline, err := Compile(entry.Multiline)
	if err != nil {
		return TemplateSet{}, &TemplateCompileError{Country: code, Mode: ModeMultiline, Err: err}
	}
	singleline, err := Compile(entry.Singleline)
	if err != nil {
		return TemplateSet{}, &TemplateCompileError{Country: code, Mode: ModeSingleline, Err: err}
	}
	return TemplateSet{Multiline: multiline, Singleline: singleline}, nil
}

func normalizeCountry(country string) string {
	return strings.ToLower(country)
}
