// Package views renders the storefront HTML pages for Fiber.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Engine implements fiber.Views over the embedded templates. Each page is
// parsed together with the shared layout and executed through it.
type Engine struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New creates an Engine. Templates are parsed by Load.
func New() *Engine {
	return &Engine{}
}

// Load parses every page template.
func (e *Engine) Load() error {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(path.Base(layoutFile)).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render executes page name with binding. Layout names are ignored, every
// page uses the shared layout.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	tmpl, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %s does not exist", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", binding)
}
