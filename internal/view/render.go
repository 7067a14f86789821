// internal/view/render.go
//
// Template loader and renderer for content handlers.
//
// Context
// -------
// The page handler serves records whose options name a template
// ("template_name").  All *.html files under the configured views
// directory are parsed once at start-up into a single set, so
// sub-templates ({{ template "row" . }}) work out-of-the-box and a bad
// template fails the boot, not a request.
//
// Notes
// -----
// • CollectHTML walks recursively because “**/*.html” globs are not
//   available in the standard library.
// • Oxford commas, two spaces after periods.

package view

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
)

// Renderer holds one parsed template set.  Safe for concurrent use.
type Renderer struct {
	tpl *template.Template
}

// Load parses every *.html file under dir into one set.
func Load(dir string) (*Renderer, error) {
	files, err := CollectHTML(dir)
	if err != nil {
		return nil, fmt.Errorf("view: walk %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("view: no templates under %s", dir)
	}

	tpl, err := template.New("").ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	return r.tpl.ExecuteTemplate(w, name, data)
}

// Has reports whether the set contains a template with the given name.
func (r *Renderer) Has(name string) bool {
	return r.tpl.Lookup(name) != nil
}

// CollectHTML walks rootDir recursively and returns a list of *.html
// paths in slash form, ready for template.ParseFiles.
func CollectHTML(rootDir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil { // propagate filesystem errors immediately
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
