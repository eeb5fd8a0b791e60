package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/justestif/skate-sessions/internal/db"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// load parses every page together with the layouts and partials.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := filepath.Base(page)
		name = name[:len(name)-len(".html")]

		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// formatDate formats a time as "Jan 2, 2006"
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},

		// dateLabel describes when a session happens: the planned date when
		// set, otherwise the creation date.
		"dateLabel": func(planned *time.Time, created time.Time) string {
			if planned != nil {
				return "Planned: " + planned.Format("Jan 2, 2006")
			}
			return "Created: " + created.Format("Jan 2, 2006")
		},

		// optInt renders an optional number, empty when unset
		"optInt": func(p *int) string {
			if p == nil {
				return ""
			}
			return strconv.Itoa(*p)
		},

		// optText renders optional text, empty when unset
		"optText": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},

		"dash": func(p *int) string {
			if p == nil {
				return "—"
			}
			return strconv.Itoa(*p)
		},

		// dict builds a map from alternating keys and values, for passing
		// several values to a partial
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	User        *UserData
	CurrentPath string
}

// UserData contains signed-in user information.
type UserData struct {
	ID    string
	Email string
}

// HomePageData contains data for the home page template.
type HomePageData struct {
	PageData
}

// LoginPageData contains data for the login page template.
type LoginPageData struct {
	PageData
	AuthError bool
	Sent      bool
	Providers []string
}

// MePageData contains data for the account page template.
type MePageData struct {
	PageData
	Email string
}

// SessionsPageData contains data for the session list template.
type SessionsPageData struct {
	PageData
	Sessions []db.SessionSummary
	Today    string
	Tomorrow string
}

// SessionPageData contains data for the session detail template.
type SessionPageData struct {
	PageData
	Session   *db.Session
	Tricks    []db.SessionTrick
	Catalog   []db.Trick
	Completed bool
}

// NotFoundPageData contains data for the not found template.
type NotFoundPageData struct {
	PageData
}
