// Package locale holds the fixed set of UI locales and the helpers that read
// and write the locale prefix of a request path.
package locale

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

type Locale string

const (
	Vietnamese Locale = "vi"
	English    Locale = "en"
	Japanese   Locale = "ja"
)

// CookieName mirrors the preferred locale for root redirects.
const CookieName = "NEXT_LOCALE"

// Default is the canonical fallback used by routing, 401 redirects and the
// root layout alike.
const Default = Japanese

var supported = []Locale{Vietnamese, English, Japanese}

var matcher = language.NewMatcher([]language.Tag{
	language.Japanese,
	language.English,
	language.Vietnamese,
})

func All() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

func (l Locale) String() string {
	return string(l)
}

func (l Locale) Valid() bool {
	for _, candidate := range supported {
		if candidate == l {
			return true
		}
	}
	return false
}

func (l Locale) Tag() language.Tag {
	switch l {
	case Vietnamese:
		return language.Vietnamese
	case English:
		return language.English
	default:
		return language.Japanese
	}
}

// Path joins the locale prefix with rest, which may be empty.
func (l Locale) Path(rest string) string {
	if rest == "" || rest == "/" {
		return "/" + string(l)
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return "/" + string(l) + rest
}

// Parse accepts exactly one of the supported codes, case-insensitively.
func Parse(raw string) (Locale, bool) {
	candidate := Locale(strings.ToLower(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}

// OrDefault parses raw and falls back to fallback when it is not supported.
func OrDefault(raw string, fallback Locale) Locale {
	if l, ok := Parse(raw); ok {
		return l
	}
	if fallback.Valid() {
		return fallback
	}
	return Default
}

// FromPath returns the locale carried by the first path segment.
func FromPath(path string) (Locale, bool) {
	segment := strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(segment, '/'); idx >= 0 {
		segment = segment[:idx]
	}
	l := Locale(segment)
	if l.Valid() {
		return l, true
	}
	return "", false
}

// StripPrefix removes a leading locale segment. The result always starts
// with "/" unless the path was exactly a locale root, which yields "".
func StripPrefix(path string) string {
	l, ok := FromPath(path)
	if !ok {
		return path
	}
	return strings.TrimPrefix(path, "/"+string(l))
}

// Negotiate picks a locale from the preference cookie, then Accept-Language,
// then fallback.
func Negotiate(cookieValue string, acceptLanguage string, fallback Locale) Locale {
	if l, ok := Parse(cookieValue); ok {
		return l
	}

	if strings.TrimSpace(acceptLanguage) != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			_, idx, confidence := matcher.Match(tags...)
			if confidence > language.No {
				switch idx {
				case 0:
					return Japanese
				case 1:
					return English
				case 2:
					return Vietnamese
				}
			}
		}
	}

	return OrDefault("", fallback)
}

type contextKey struct{}

func WithContext(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request locale, or Default when none was resolved.
func FromContext(ctx context.Context) Locale {
	if l, ok := ctx.Value(contextKey{}).(Locale); ok && l.Valid() {
		return l
	}
	return Default
}
