package view

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"giantylive-web/internal/locale"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog holds the UI strings of every supported locale.
type Catalog struct {
	builder *catalog.Builder
	keys    map[locale.Locale]map[string]struct{}
}

func LoadCatalog() (*Catalog, error) {
	return loadCatalogFS(localeFS)
}

func loadCatalogFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob locale files: %w", err)
	}
	sort.Strings(paths)

	c := &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(locale.English.Tag())),
		keys:    map[locale.Locale]map[string]struct{}{},
	}

	for _, p := range paths {
		code := strings.TrimSuffix(path.Base(p), ".json")
		loc, ok := locale.Parse(code)
		if !ok {
			return nil, fmt.Errorf("locale file %s: unsupported locale %q", p, code)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		messages := map[string]string{}
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}

		keys := make(map[string]struct{}, len(messages))
		for key, msg := range messages {
			if err := c.builder.SetString(loc.Tag(), key, msg); err != nil {
				return nil, fmt.Errorf("%s: key %q: %w", p, key, err)
			}
			keys[key] = struct{}{}
		}
		c.keys[loc] = keys
	}

	for _, loc := range locale.All() {
		if _, ok := c.keys[loc]; !ok {
			return nil, fmt.Errorf("missing messages for locale %q", loc)
		}
	}
	return c, nil
}

func (c *Catalog) Printer(loc locale.Locale) *message.Printer {
	return message.NewPrinter(loc.Tag(), message.Catalog(c.builder))
}

// Missing lists keys present in the English messages but absent in loc.
func (c *Catalog) Missing(loc locale.Locale) []string {
	var missing []string
	for key := range c.keys[locale.English] {
		if _, ok := c.keys[loc][key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// LocaleName is the name of loc written in loc itself, e.g. "日本語".
func LocaleName(loc locale.Locale) string {
	return display.Self.Name(language.Make(loc.String()))
}
