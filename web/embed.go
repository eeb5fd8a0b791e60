// Package web embeds the HTML templates and static assets of the skate
// sessions UI.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed all:templates
var templatesFS embed.FS

//go:embed all:static
var staticFS embed.FS

// Templates returns the template tree rooted at layouts/, partials/ and pages/.
func Templates() (fs.FS, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("creating templates filesystem: %w", err)
	}
	return sub, nil
}

// Static returns the static assets served under /static/.
func Static() (fs.FS, error) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static filesystem: %w", err)
	}
	return sub, nil
}
