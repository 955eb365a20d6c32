// Package view renders the localized HTML pages.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/text/message"

	"giantylive-web/internal/locale"
	"giantylive-web/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page is the data every template receives.
type Page struct {
	Locale   locale.Locale
	Path     string // current path without the locale prefix
	Title    string // catalog key
	User     *model.User
	Error    string // backend text, shown as plain text
	ErrorKey string // catalog key
	Notice   string // catalog key
	Fields   map[string]string
	Form     map[string]string
	Data     any
	printer  *message.Printer
	clean    *Sanitizer
}

type DashboardData struct {
	Stats      model.ConferenceStats
	Workspaces []model.Workspace
	Partial    bool
}

type WorkspaceListData struct {
	Workspaces  []model.Workspace
	Unavailable bool
}

type GlossaryListData struct {
	Glossaries  []model.Glossary
	Unavailable bool
}

// T translates a catalog key for the page locale.
func (p Page) T(key string, args ...any) string {
	if p.printer == nil {
		return key
	}
	return p.printer.Sprintf(key, args...)
}

func (p Page) Href(rest string) string {
	return p.Locale.Path(rest)
}

func (p Page) SwitchTo(target locale.Locale) string {
	return target.Path(p.Path)
}

func (p Page) Locales() []locale.Locale {
	return locale.All()
}

func (p Page) LocaleName(l locale.Locale) string {
	return LocaleName(l)
}

func (p Page) FieldError(name string) string {
	return p.Fields[name]
}

func (p Page) Value(name string) string {
	return p.Form[name]
}

func (p Page) Clean(raw string) string {
	if p.clean == nil {
		return raw
	}
	return p.clean.Text(raw)
}

func (p Page) Rich(raw string) template.HTML {
	if p.clean == nil {
		return template.HTML(template.HTMLEscapeString(raw))
	}
	return p.clean.HTML(raw)
}

func (p Page) Authenticated() bool {
	return p.User != nil
}

type Renderer struct {
	pages     map[string]*template.Template
	catalog   *Catalog
	sanitizer *Sanitizer
}

func New(c *Catalog, s *Sanitizer) (*Renderer, error) {
	return newRenderer(templateFS, c, s)
}

func newRenderer(fsys fs.FS, c *Catalog, s *Sanitizer) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	pages := map[string]*template.Template{}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		tmpl, err := template.New("layout.html").ParseFS(fsys, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}

	return &Renderer{pages: pages, catalog: c, sanitizer: s}, nil
}

// Render executes the named page into a buffer first so a template error
// still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		slog.Error("unknown page template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page.Locale = locale.OrDefault(page.Locale.String(), locale.Default)
	page.printer = r.catalog.Printer(page.Locale)
	page.clean = r.sanitizer
	page.Error = r.sanitizer.Text(page.Error)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		slog.Error("render page", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
