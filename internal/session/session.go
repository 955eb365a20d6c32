// Package session keeps the client-cached auth state: the bearer token and a
// copy of the backend user, persisted as a cookie pair.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"giantylive-web/internal/locale"
	"giantylive-web/internal/model"
)

const (
	TokenCookie = "access_token"
	UserCookie  = "user"
)

// providerCookies are set by the external OAuth flow and cleared on logout.
var providerCookies = []string{
	"g_state",
	"G_AUTHUSER_H",
	"SID",
	"HSID",
	"SSID",
	"APISID",
	"SAPISID",
	"__Secure-1PSID",
	"__Secure-3PSID",
	"__Secure-1PAPISID",
	"__Secure-3PAPISID",
}

// ClearedCookies lists every cookie Clear removes.
func ClearedCookies() []string {
	out := []string{TokenCookie, UserCookie, locale.CookieName}
	return append(out, providerCookies...)
}

type Store interface {
	Token() (string, bool)
	User() (*model.User, bool)
	SetSession(token string, user *model.User) error
	Clear()
}

type cookieJar interface {
	Get(name string) (string, bool)
	Set(name string, value string)
	Remove(name string)
}

// CookieStore persists the session in the access_token and user cookies.
type CookieStore struct {
	jar cookieJar
}

func NewCookieStore(jar cookieJar) *CookieStore {
	return &CookieStore{jar: jar}
}

var _ Store = (*CookieStore)(nil)

func (s *CookieStore) Token() (string, bool) {
	return s.jar.Get(TokenCookie)
}

// User decodes the cached user. A cookie that cannot be decoded is removed.
func (s *CookieStore) User() (*model.User, bool) {
	raw, ok := s.jar.Get(UserCookie)
	if !ok || raw == "undefined" {
		return nil, false
	}

	user, err := DecodeUser(raw)
	if err != nil {
		slog.Warn("discarding unreadable user cookie", "error", err)
		s.jar.Remove(UserCookie)
		return nil, false
	}
	return user, true
}

// SetSession writes the token and re-serializes the user wholesale. The
// preferred locale cookie follows the user's locale when one is set.
func (s *CookieStore) SetSession(token string, user *model.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("set session: %w", model.ErrInvalidToken)
	}

	s.jar.Set(TokenCookie, token)

	if user == nil {
		s.jar.Remove(UserCookie)
		return nil
	}

	encoded, err := EncodeUser(user)
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	s.jar.Set(UserCookie, encoded)

	if l, ok := locale.Parse(user.PreferredLocale()); ok {
		s.jar.Set(locale.CookieName, l.String())
	}
	return nil
}

func (s *CookieStore) Clear() {
	for _, name := range ClearedCookies() {
		s.jar.Remove(name)
	}
}

// EncodeUser serializes user as base64url JSON so that any byte survives
// cookie value sanitizing.
func EncodeUser(user *model.User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeUser reverses EncodeUser. URI-encoded JSON values are accepted too.
func DecodeUser(raw string) (*model.User, error) {
	raw = strings.TrimSpace(raw)

	var data []byte
	if decoded, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
		data = decoded
	} else if unescaped, uerr := url.QueryUnescape(raw); uerr == nil && strings.HasPrefix(strings.TrimSpace(unescaped), "{") {
		data = []byte(unescaped)
	} else {
		return nil, fmt.Errorf("%w: not base64url or JSON", model.ErrCorruptUser)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCorruptUser, err)
	}
	return &user, nil
}

type contextKey struct{}

func WithStore(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

func FromContext(ctx context.Context) (Store, bool) {
	store, ok := ctx.Value(contextKey{}).(Store)
	return store, ok && store != nil
}

// TokenFromContext reads the bearer token of the request-scoped store.
func TokenFromContext(ctx context.Context) (string, bool) {
	store, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return store.Token()
}

// ClearFromContext clears the request-scoped store, if any.
func ClearFromContext(ctx context.Context) bool {
	store, ok := FromContext(ctx)
	if !ok {
		return false
	}
	store.Clear()
	return true
}
