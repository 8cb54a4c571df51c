package addressfmt

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

// DefaultSource returns the template set bundled with the package.
func DefaultSource() Source {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		// fs.Sub only fails for invalid paths; "templates" is a constant.
		panic(err)
	}
	return YAMLSource(sub)
}
