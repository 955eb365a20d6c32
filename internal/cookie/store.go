// Package cookie adapts request and response cookies into a small read/write
// store scoped to a single HTTP exchange.
package cookie

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

const DefaultTTL = 7 * 24 * time.Hour

type Options struct {
	TTL      time.Duration
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	Domain   string
}

func DefaultOptions() Options {
	return Options{
		TTL:      DefaultTTL,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Store reads cookies from the request and writes Set-Cookie headers on the
// response. Writes are visible to later reads on the same Store.
type Store struct {
	r       *http.Request
	w       http.ResponseWriter
	opts    Options
	now     func() time.Time
	mu      sync.Mutex
	overlay map[string]*string
}

func NewStore(w http.ResponseWriter, r *http.Request, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &Store{
		r:       r,
		w:       w,
		opts:    opts,
		now:     time.Now,
		overlay: map[string]*string{},
	}
}

func (s *Store) Get(name string) (string, bool) {
	s.mu.Lock()
	if value, touched := s.overlay[name]; touched {
		s.mu.Unlock()
		if value == nil {
			return "", false
		}
		return *value, true
	}
	s.mu.Unlock()

	if s.r == nil {
		return "", false
	}
	c, err := s.r.Cookie(name)
	if err != nil || c == nil {
		return "", false
	}
	value := strings.TrimSpace(c.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

func (s *Store) Set(name string, value string) {
	s.SetWithTTL(name, value, s.opts.TTL)
}

// SetWithTTL writes a cookie with a lifetime other than the store default.
func (s *Store) SetWithTTL(name string, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := value
	s.overlay[name] = &stored
	if s.w == nil {
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.opts.Domain,
		Expires:  s.now().Add(ttl).UTC(),
		MaxAge:   int(ttl.Seconds()),
		Secure:   s.opts.Secure,
		HttpOnly: s.opts.HTTPOnly,
		SameSite: s.opts.SameSite,
	})
}

// Remove expires name at the root path. Removing a cookie that was never set
// is harmless.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, touched := s.overlay[name]; touched && value == nil {
		return
	}
	s.overlay[name] = nil
	if s.w == nil {
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   s.opts.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   s.opts.Secure || requiresSecure(name),
		HttpOnly: s.opts.HTTPOnly,
		SameSite: s.opts.SameSite,
	})
}

// Browsers ignore prefixed cookies, deletions included, without Secure.
func requiresSecure(name string) bool {
	return strings.HasPrefix(name, "__Secure-") || strings.HasPrefix(name, "__Host-")
}
