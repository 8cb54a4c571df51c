package addressfmt

import (
	"slices"

	"github.com/cbroglie/mustache"
)

// Mode selects one of the two renditions of an address.
type Mode string

const (
	ModeMultiline  Mode = "multiline"
	ModeSingleline Mode = "singleline"
)

// Template is a compiled country layout for one Mode. It is immutable after
// Compile returns and safe for concurrent use.
type Template struct {
	tmpl   *mustache.Template
	text   string
	fields []string
}

// Compile parses a mustache template body. Tags are never HTML-escaped.
// The error returned on failure is the engine's syntax diagnostic; Registry
// wraps it in a *TemplateCompileError.
func Compile(text string) (*Template, error) {
	tmpl, err := mustache.ParseStringRaw(text, true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	collectFields(tmpl.Tags(), seen)

	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	slices.Sort(fields)

	return &Template{
		tmpl:   tmpl,
		text:   text,
		fields: fields,
	}, nil
}

// Fields returns the sorted field names the template references.
func (t *Template) Fields() []string {
	return slices.Clone(t.fields)
}

// Text returns the template body as it was compiled.
func (t *Template) Text() string {
	return t.text
}

// Render substitutes fields into the template and returns the raw,
// un-normalized output. Every referenced name must be exposed by fields;
// otherwise a *RenderError wrapping ErrFieldNotExposed is returned.
func (t *Template) Render(fields Fields) (string, error) {
	if fields == nil {
		return "", &RenderError{Err: ErrNilFields}
	}

	data := make(map[string]string, len(t.fields))
	for _, name := range t.fields {
		value, ok := fields.Field(name)
		if !ok {
			return "", &RenderError{Field: name, Err: ErrFieldNotExposed}
		}
		data[name] = value
	}

	out, err := t.tmpl.Render(data)
	if err != nil {
		return "", &RenderError{Err: err}
	}
	return out, nil
}

func collectFields(tags []mustache.Tag, dest map[string]struct{}) {
	for _, tag := range tags {
		switch tag.Type() {
		case mustache.Variable:
			addField(tag.Name(), dest)
		case mustache.Section, mustache.InvertedSection:
			addField(tag.Name(), dest)
			collectFields(tag.Tags(), dest)
		}
	}
}

func addField(name string, dest map[string]struct{}) {
	// "." is the implicit iterator and refers to the enclosing section value.
	if name == "" || name == "." {
		return
	}
	dest[name] = struct{}{}
}
