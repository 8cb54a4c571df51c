package addressfmt

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Keys of a template document.
const (
	keyMultiline  = "multiline_template"
	keySingleline = "singleline_template"
)

// Entry is one country's raw template pair as supplied by a Source.
type Entry struct {
	Country    string `json:"country" yaml:"country" validate:"required"`
	Multiline  string `json:"multiline_template" yaml:"multiline_template" validate:"required"`
	Singleline string `json:"singleline_template" yaml:"singleline_template" validate:"required"`
}

// Source supplies raw template entries in registration order. Later entries
// for the same country replace earlier ones.
type Source interface {
	Load() ([]Entry, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]Entry, error)

// Load implements Source.
func (f SourceFunc) Load() ([]Entry, error) {
	return f()
}

// StaticSource returns a Source serving the given entries as-is.
func StaticSource(entries ...Entry) Source {
	return SourceFunc(func() ([]Entry, error) {
		if err := validateEntries(entries); err != nil {
			return nil, err
		}
		return slices.Clone(entries), nil
	})
}

// YAMLSource loads every .yaml and .yml file in fsys, walking in lexical order.
//
// A file either holds a single template document, whose country code is the
// file stem:
//
//	# gb.yaml
//	multiline_template: "..."
//	singleline_template: "..."
//
// or maps several country codes to documents:
//
//	# nordic.yaml
//	DK:
//	  multiline_template: "..."
//	  singleline_template: "..."
func YAMLSource(fsys fs.FS) Source {
	return SourceFunc(func() ([]Entry, error) {
		return loadDir(fsys, []string{".yaml", ".yml"}, yaml.Unmarshal)
	})
}

// JSONSource loads every .json file in fsys. Documents follow the same two
// shapes as YAMLSource.
func JSONSource(fsys fs.FS) Source {
	return SourceFunc(func() ([]Entry, error) {
		return loadDir(fsys, []string{".json"}, json.Unmarshal)
	})
}

type fileTemplate struct {
	Multiline  string `json:"multiline_template" yaml:"multiline_template"`
	Singleline string `json:"singleline_template" yaml:"singleline_template"`
}

func loadDir(fsys fs.FS, exts []string, unmarshal func([]byte, any) error) ([]Entry, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: nil filesystem", ErrInvalidSource)
	}

	var entries []Entry
	err := fs.WalkDir(fsys, ".", func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// Case-insensitive so both .YAML and .yaml are picked up
		ext := strings.ToLower(path.Ext(filePath))
		if !slices.Contains(exts, ext) {
			return nil
		}

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("reading %q: %w", filePath, err)
		}

		stem := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
		parsed, err := parseDocument(stem, data, unmarshal)
		if err != nil {
			return fmt.Errorf("%w: %q: %s", ErrInvalidSource, filePath, err)
		}
		entries = append(entries, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := validateEntries(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseDocument(stem string, data []byte, unmarshal func([]byte, any) error) ([]Entry, error) {
	var probe map[string]any
	if err := unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	_, hasMulti := probe[keyMultiline]
	_, hasSingle := probe[keySingleline]
	if hasMulti || hasSingle {
		var tpl fileTemplate
		if err := unmarshal(data, &tpl); err != nil {
			return nil, err
		}
		return []Entry{{Country: stem, Multiline: tpl.Multiline, Singleline: tpl.Singleline}}, nil
	}

	var byCountry map[string]fileTemplate
	if err := unmarshal(data, &byCountry); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(byCountry))
	for code := range byCountry {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	entries := make([]Entry, 0, len(codes))
	for _, code := range codes {
		tpl := byCountry[code]
		entries = append(entries, Entry{Country: code, Multiline: tpl.Multiline, Singleline: tpl.Singleline})
	}
	return entries, nil
}

var entryValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

func validateEntries(entries []Entry) error {
	v := entryValidator()
	for i, entry := range entries {
		if err := v.Struct(entry); err != nil {
			name := entry.Country
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return fmt.Errorf("%w: entry %s: %s", ErrInvalidSource, name, err)
		}
	}
	return nil
}
