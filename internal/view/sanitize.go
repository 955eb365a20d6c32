package view

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans text that comes from the backend before it reaches a
// page. Error messages are reduced to plain text; descriptions may keep a
// small set of inline tags.
type Sanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "strong", "em", "code")
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowURLSchemes("https")
	rich.RequireNoFollowOnLinks(true)
	rich.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{strict: bluemonday.StrictPolicy(), rich: rich}
}

func (s *Sanitizer) Text(raw string) string {
	if raw == "" {
		return ""
	}
	// The strict policy escapes entities; templates escape again on output.
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}

func (s *Sanitizer) HTML(raw string) template.HTML {
	if raw == "" {
		return ""
	}
	// #nosec G203 -- output of the allow-list policy
	return template.HTML(s.rich.Sanitize(raw))
}
