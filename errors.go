package addressfmt

import (
	"errors"
	"fmt"
)

// Sentinel errors for the addressfmt package.
var (
	// ErrTemplateCompile is matched by every *TemplateCompileError.
	ErrTemplateCompile = errors.New("addressfmt: template compile failed")

	// ErrCountryNotSupported is matched by every *CountryNotSupportedError.
	ErrCountryNotSupported = errors.New("addressfmt: country not supported")

	// ErrRender is matched by every *RenderError.
	ErrRender = errors.New("addressfmt: render failed")

	// ErrFieldNotExposed is wrapped by a *RenderError when a template references
	// a field name the record does not expose.
	ErrFieldNotExposed = errors.New("addressfmt: field not exposed by record")

	// ErrNilFields is wrapped by a *RenderError when no record is supplied.
	ErrNilFields = errors.New("addressfmt: fields cannot be nil")

	// ErrInvalidSource is returned when a template source document is malformed.
	ErrInvalidSource = errors.New("addressfmt: invalid template source")

	// ErrInvalidRecord is returned by FieldsOf for values that cannot be
	// flattened into named string fields.
	ErrInvalidRecord = errors.New("addressfmt: invalid address record")
)

// TemplateCompileError reports a template body that failed to parse while
// building a Registry. It is never returned at render time.
type TemplateCompileError struct {
	// Err is the underlying syntax diagnostic.
	Err error

	// Country is the lower-cased country code of the offending entry.
	Country string

	// Mode is the rendition whose template failed.
	Mode Mode
}

func (e *TemplateCompileError) Error() string {
	return fmt.Sprintf("addressfmt: compile %s template for %q: %v", e.Mode, e.Country, e.Err)
}

func (e *TemplateCompileError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTemplateCompile.
func (e *TemplateCompileError) Is(target error) bool {
	return target == ErrTemplateCompile
}

// CountryNotSupportedError is returned when no template set is registered for
// the requested country. Callers may recover by falling back to a generic format.
type CountryNotSupportedError struct {
	// Country is the code exactly as the caller supplied it.
	Country string
}

func (e *CountryNotSupportedError) Error() string {
	return fmt.Sprintf("addressfmt: country %q is not supported", e.Country)
}

// Is reports whether target is ErrCountryNotSupported.
func (e *CountryNotSupportedError) Is(target error) bool {
	return target == ErrCountryNotSupported
}

// RenderError is returned when substituting a record into a template fails.
type RenderError struct {
	// Err is the underlying cause: ErrFieldNotExposed, ErrNilFields or the
	// template engine's diagnostic.
	Err error

	// Country is set when the error passed through a Formatter.
	Country string

	// Mode is set when the error passed through a Formatter.
	Mode Mode

	// Field is the referenced name the record did not expose, if any.
	Field string
}

func (e *RenderError) Error() string {
	msg := "addressfmt: render"
	if e.Mode != "" {
		msg += " " + string(e.Mode)
	}
	if e.Country != "" {
		msg += fmt.Sprintf(" template for %q", e.Country)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRender.
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}
