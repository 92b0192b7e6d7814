package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/sales-assistant/internal/domain/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages rendered by the web shell
var pages = []string{"home", "pricing", "login", "signup", "onboarding", "dashboard", "profile", "admin"}

// Page is the data every template receives
type Page struct {
	Title         string
	User          *entities.PublicSession
	Flash         *entities.Flash
	Error         string
	Notice        string
	Email         string
	DisplayName   string
	GoogleEnabled bool
	Data          interface{}
}

// Renderer implements echo.Renderer over the embedded page templates
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the layout together with each page
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render writes the named page
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
