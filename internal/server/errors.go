package server

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/addressfmt"
)

var (
	ErrBadRequest      = errors.New("server: malformed request body")
	ErrMissingCountry  = errors.New("server: country is required")
	ErrBodyTooLarge    = errors.New("server: request body too large")
	ErrInternal        = errors.New("server: internal error")
	ErrPanicRecovered  = errors.New("server: panic recovered")
	ErrShutdownTimeout = errors.New("server: graceful shutdown timed out")
)

// HTTPError is the error payload written to clients.
type HTTPError struct {
	// Err is kept for logging and never serialized.
	Err error `json:"-"`

	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Status    int    `json:"-"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

type errorBody struct {
	Error *HTTPError `json:"error"`
}

// toHTTPError maps domain errors onto status codes. Messages of unexpected
// errors are not exposed.
func toHTTPError(err error) *HTTPError {
	var (
		httpErr     *HTTPError
		maxBytesErr *http.MaxBytesError
		renderErr   *addressfmt.RenderError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &maxBytesErr):
		return &HTTPError{Err: err, Status: http.StatusRequestEntityTooLarge, Code: "body_too_large", Message: ErrBodyTooLarge.Error()}
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrMissingCountry):
		return &HTTPError{Err: err, Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
	case errors.Is(err, addressfmt.ErrCountryNotSupported):
		return &HTTPError{Err: err, Status: http.StatusNotFound, Code: "country_not_supported", Message: err.Error()}
	case errors.As(err, &renderErr):
		return &HTTPError{Err: err, Status: http.StatusUnprocessableEntity, Code: "render_failed", Message: renderErr.Error()}
	default:
		return &HTTPError{Err: err, Status: http.StatusInternalServerError, Code: "internal", Message: ErrInternal.Error()}
	}
}
