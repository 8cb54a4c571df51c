// Package countries resolves ISO 3166-1 alpha-2 codes to English display
// names for listing and prompting. It only describes codes; which countries
// can be formatted is decided by the template registry.
package countries

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknownCountry is returned for codes that are not ISO 3166-1 alpha-2
// country codes.
var ErrUnknownCountry = errors.New("countries: unknown country code")

// Info describes one country.
type Info struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Lookup returns the Info for a two-letter code in any case. The returned
// Code keeps the case it was given so callers can echo registry keys.
func Lookup(code string) (Info, error) {
	if len(code) != 2 {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownCountry, code)
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownCountry, code)
	}
	return Info{Code: code, Name: display.English.Regions().Name(region)}, nil
}

// Name returns the English name for code, or the upper-cased code itself when
// it is not a known country.
func Name(code string) string {
	info, err := Lookup(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	return info.Name
}

// List describes every code, sorted by name. Unknown codes are listed under
// their upper-cased code rather than dropped.
func List(codes []string) []Info {
	out := make([]Info, 0, len(codes))
	for _, code := range codes {
		out = append(out, Info{Code: code, Name: Name(code)})
	}
	slices.SortFunc(out, func(a, b Info) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	})
	return out
}
