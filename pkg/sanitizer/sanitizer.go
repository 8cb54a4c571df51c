// Package sanitizer cleans untrusted address components before they reach a
// template. Markup is stripped with a bluemonday strict policy, entities are
// decoded back to plain text, and control characters are replaced with spaces
// so a single component can never inject extra lines into a layout.
package sanitizer

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dmitrymomot/addressfmt"
)

var strictPolicy = sync.OnceValue(bluemonday.StrictPolicy)

// Text returns s as plain single-line text.
func Text(s string) string {
	if s == "" {
		return ""
	}
	// StrictPolicy escapes what it keeps, so "&" comes back as "&amp;".
	s = html.UnescapeString(strictPolicy().Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Address returns a copy of a with every component passed through Text.
func Address(a addressfmt.Address) addressfmt.Address {
	return addressfmt.Address{
		Unit:         Text(a.Unit),
		HouseName:    Text(a.HouseName),
		StreetNumber: Text(a.StreetNumber),
		StreetName:   Text(a.StreetName),
		Locality:     Text(a.Locality),
		City:         Text(a.City),
		County:       Text(a.County),
		State:        Text(a.State),
		Country:      Text(a.Country),
		PostalCode:   Text(a.PostalCode),
	}
}

// Map returns a sanitized copy of m. Keys are kept as-is.
func Map(m addressfmt.Map) addressfmt.Map {
	if m == nil {
		return nil
	}
	out := make(addressfmt.Map, len(m))
	for k, v := range m {
		out[k] = Text(v)
	}
	return out
}
