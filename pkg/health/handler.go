package health

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
)

// LivenessHandler answers healthy while the process serves HTTP. It runs no
// checks, so a registry that failed to load does not get the process killed.
func LivenessHandler() http.HandlerFunc {
	alive := &Response{Status: StatusHealthy}
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, alive)
	}
}

// ReadinessHandler runs checks on every request and answers 503 when any of
// them fails. The body lists each check with its detail.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, runChecks(r.Context(), checks, cfg))
	}
}

// HTTPStatus maps the aggregated status to 200 or 503.
func (resp *Response) HTTPStatus() int {
	if resp.Status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// WriteText writes the plain-text report: the overall status, then one line
// per check sorted by name.
//
//	unhealthy
//	templates: unhealthy: health: check failed: no countries registered
func (resp *Response) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString(resp.Status)
	b.WriteByte('\n')

	names := make([]string, 0, len(resp.Checks))
	for name := range resp.Checks {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		c := resp.Checks[name]
		fmt.Fprintf(&b, "%s: %s", name, c.Status)
		if c.Detail != "" {
			fmt.Fprintf(&b, " (%s)", c.Detail)
		}
		if c.Error != "" {
			b.WriteString(": " + c.Error)
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func respond(w http.ResponseWriter, r *http.Request, resp *Response) {
	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.HTTPStatus())
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(resp.HTTPStatus())
	_ = resp.WriteText(w)
}
