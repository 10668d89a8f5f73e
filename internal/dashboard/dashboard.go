// Package dashboard renders the read-only HTML tool catalog.
package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"github.com/voxline/toolgate/internal/registry"
	"github.com/voxline/toolgate/internal/tool"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// toolView is one catalog row.
type toolView struct {
	Name        string
	Description template.HTML
	Schema      string
}

type pageData struct {
	ServerName string
	Tools      []toolView
}

// Renderer renders the catalog page from the live registry.
type Renderer struct {
	tmpl       *template.Template
	md         goldmark.Markdown
	registry   *registry.Registry
	serverName string
}

// New creates a renderer bound to a registry.
func New(reg *registry.Registry, serverName string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Renderer{
		tmpl:       tmpl,
		md:         goldmark.New(),
		registry:   reg,
		serverName: serverName,
	}, nil
}

// Render writes the catalog page for the current registry contents.
func (r *Renderer) Render(w io.Writer) error {
	units := r.registry.List()

	views := make([]toolView, 0, len(units))
	for _, unit := range units {
		views = append(views, toolView{
			Name:        unit.Name,
			Description: r.renderMarkdown(unit.Description),
			Schema:      renderSchema(unit),
		})
	}

	return r.tmpl.ExecuteTemplate(w, "index.tmpl", pageData{
		ServerName: r.serverName,
		Tools:      views,
	})
}

// renderMarkdown converts a tool description to HTML. Descriptions come from
// tool authors, not end users; goldmark still escapes raw HTML by default.
func (r *Renderer) renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}

	return template.HTML(buf.String())
}

// renderSchema pretty-prints the unit's parameter schema for display.
func renderSchema(unit *tool.Unit) string {
	if unit.Schema == nil {
		return "{}"
	}

	data, err := json.MarshalIndent(unit.Schema, "", "  ")
	if err != nil {
		return "{}"
	}

	return string(data)
}
