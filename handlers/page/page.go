// handlers/page/page.go
//
// Built-in template-backed content handlers.
//
// Context
// -------
// Two registrations cover the two dispatch shapes:
//
//   - "page.Template" – class-style.  The record's options are initkwargs;
//     "template_name" picks the template, and the whole options map is the
//     template data.
//   - "page.Render"   – function-style.  Invoked per request with the
//     options map; "template" picks the template.
//
// Both render through one shared view.Renderer wired in at start-up.

package page

import (
	"fmt"
	"net/http"

	"github.com/yanizio/urlmap/internal/handler"
	"github.com/yanizio/urlmap/internal/view"
)

// Template is the class-style handler.  New validates the initkwargs and
// returns a plain http.Handler bound to one template.
type Template struct {
	views *view.Renderer
}

// New implements handler.Factory.
func (t *Template) New(options map[string]any) (http.Handler, error) {
	name, _ := options["template_name"].(string)
	if name == "" {
		return nil, fmt.Errorf("page: options missing template_name")
	}
	if !t.views.Has(name) {
		return nil, fmt.Errorf("page: no such template %q", name)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := t.views.Render(w, name, options); err != nil {
			http.Error(w, "template error", http.StatusInternalServerError)
		}
	}), nil
}

// Register binds both handlers into the registry.  Call once from main
// after the renderer is loaded.
func Register(views *view.Renderer) {
	handler.RegisterFactory("page.Template", &Template{views: views})

	handler.RegisterFunc("page.Render",
		func(w http.ResponseWriter, r *http.Request, options map[string]any) error {
			name, _ := options["template"].(string)
			if name == "" {
				return fmt.Errorf("page: options missing template")
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			return views.Render(w, name, options)
		})
}
