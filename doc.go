// Package addressfmt renders structured postal addresses into human-readable
// strings using country-specific layouts.
//
// Every country has a pair of mustache templates, one for a multi-line
// rendition and one for a single-line, comma-separated rendition. Templates
// are compiled once when a Formatter is created; formatting afterwards is a
// pure function of the country code and the address fields.
//
// # Basic Usage
//
//	f, err := addressfmt.New()
//	if err != nil {
//		return err
//	}
//
//	addr := addressfmt.Address{
//		HouseName:  "House Of Lords",
//		StreetName: "Rectory Road",
//		County:     "Greater London",
//		State:      "England",
//		PostalCode: "BR3 1HZ",
//	}
//
//	multi, err := f.FormatMultiline("GB", addr)
//	// House Of Lords
//	// Rectory Road
//	// Greater London
//	// England
//	// BR3 1HZ
//
//	single, err := f.FormatSingleline("gb", addr)
//	// House Of Lords, Rectory Road, Greater London, England, BR3 1HZ
//
// Country codes are ISO-3166 alpha-2 style and matched case-insensitively.
// No aliasing is applied: "UK" does not resolve to "GB".
//
// # Records
//
// Templates read fields through the [Fields] interface. [Address] covers the
// standard components, [Map] serves dynamic records, and [FieldsOf] adapts any
// JSON-serializable struct by its JSON field names. A template that references
// a name the record does not expose fails with a [RenderError] rather than
// rendering it empty.
//
// # Templates
//
// Templates use the mustache dialect without HTML escaping. Sections let a
// layout drop a separator together with a missing field:
//
//	{{#unit}}{{unit}}, {{/unit}}{{house_name}}
//
// After rendering, output is normalized: blank lines and empty segments are
// removed, and stray commas or dashes left by absent fields are stripped. See
// [NormalizeMultiline] and [NormalizeSingleline].
//
// # Template Sources
//
// The bundled templates are used by default. Additional sources load in order
// and override earlier entries for the same country:
//
//	f, err := addressfmt.New(
//		addressfmt.WithSource(addressfmt.DefaultSource()),
//		addressfmt.WithFS(os.DirFS("./templates")),
//	)
//
// A YAML file either holds one document named after its country code
// (gb.yaml) or maps several codes to documents. Each document needs both a
// multiline_template and a singleline_template. Malformed sources fail
// construction with ErrInvalidSource; syntax errors fail with a
// [TemplateCompileError]. [Validate] checks sources ahead of time and reports
// every failure at once.
//
// # Errors
//
// Three error kinds are distinguishable with errors.Is and errors.As:
// [TemplateCompileError] (ErrTemplateCompile) at construction,
// [CountryNotSupportedError] (ErrCountryNotSupported) and [RenderError]
// (ErrRender) at format time. No partial results are returned.
//
// # Thread Safety
//
// Formatter and Registry are immutable after creation and safe for concurrent
// use without additional synchronization.
package addressfmt
