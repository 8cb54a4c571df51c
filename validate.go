package addressfmt

import (
	"errors"
	"fmt"
)

// Validate is a pre-flight check for template sources. Unlike NewRegistry,
// which stops at the first bad template, it compiles every entry and reports
// all failures joined together. A nil error means New would succeed with the
// same sources.
func Validate(sources ...Source) error {
	var errs []error
	for _, src := range sources {
		if src == nil {
			errs = append(errs, fmt.Errorf("%w: nil source", ErrInvalidSource))
			continue
		}
		entries, err := src.Load()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, entry := range entries {
			code := normalizeCountry(entry.Country)
			if _, err := Compile(entry.Multiline); err != nil {
				errs = append(errs, &TemplateCompileError{Country: code, Mode: ModeMultiline, Err: err})
			}
			if _, err := Compile(entry.Singleline); err != nil {
				errs = append(errs, &TemplateCompileError{Country: code, Mode: ModeSingleline, Err: err})
			}
		}
	}
	return errors.Join(errs...)
}
