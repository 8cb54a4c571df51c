package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/addressfmt"
	"github.com/dmitrymomot/addressfmt/pkg/countries"
	"github.com/dmitrymomot/addressfmt/pkg/sanitizer"
)

// FormatRequest is the body of POST /v1/format.
type FormatRequest struct {
	Country string             `json:"country"`
	Address addressfmt.Address `json:"address"`
}

// FormatResponse carries both renditions of the address.
type FormatResponse struct {
	Country    string `json:"country"`
	Multiline  string `json:"multiline"`
	Singleline string `json:"singleline"`
}

// CountriesResponse lists the countries that can be formatted.
type CountriesResponse struct {
	Countries []countries.Info `json:"countries"`
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req FormatRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Country == "" {
		s.fail(w, r, ErrMissingCountry)
		return
	}

	out, err := s.formatter.Format(req.Country, sanitizer.Address(req.Address))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FormatResponse{
		Country:    req.Country,
		Multiline:  out.Multiline,
		Singleline: out.Singleline,
	})
}

func (s *Server) handleCountries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CountriesResponse{Countries: countries.List(s.formatter.Countries())})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := writeError(w, r, err)
	level := slog.LevelWarn
	if httpErr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.log.LogAttrs(r.Context(), level, "request failed",
		slog.String("code", httpErr.Code),
		slog.String("error", err.Error()),
	)
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return fmt.Errorf("%w: %s", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrBadRequest)
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) *HTTPError {
	httpErr := toHTTPError(err)
	body := *httpErr
	body.RequestID = GetRequestID(r.Context())
	writeJSON(w, httpErr.Status, errorBody{Error: &body})
	return httpErr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
