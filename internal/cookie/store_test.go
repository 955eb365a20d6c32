package cookie

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGet(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "  tok-1  "})
	req.AddCookie(&http.Cookie{Name: "empty", Value: ""})

	store := NewStore(httptest.NewRecorder(), req, DefaultOptions())

	value, ok := store.Get("access_token")
	require.True(t, ok)
	require.Equal(t, "tok-1", value)

	_, ok = store.Get("empty")
	require.False(t, ok)

	_, ok = store.Get("missing")
	require.False(t, ok)
}

func TestStoreSetWritesSevenDayRootCookie(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	rec := httptest.NewRecorder()
	store := NewStore(rec, req, DefaultOptions())
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	store.Set("access_token", "tok-2")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "access_token", c.Name)
	assert.Equal(t, "tok-2", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(DefaultTTL.Seconds()), c.MaxAge)
	assert.True(t, c.Expires.Equal(fixed.Add(7*24*time.Hour)))
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	value, ok := store.Get("access_token")
	require.True(t, ok)
	require.Equal(t, "tok-2", value)
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.AddCookie(&http.Cookie{Name: "user", Value: "abc"})
	rec := httptest.NewRecorder()
	store := NewStore(rec, req, DefaultOptions())

	store.Remove("user")
	store.Remove("user")
	store.Remove("never-set")

	_, ok := store.Get("user")
	require.False(t, ok)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestStoreSetAfterRemove(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	store := NewStore(httptest.NewRecorder(), req, DefaultOptions())

	store.Remove("k")
	store.Set("k", "v")

	value, ok := store.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", value)
}

func TestStoreWithoutResponseWriter(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, nil, Options{})
	store.Set("k", "v")
	value, ok := store.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", value)

	store.Remove("k")
	_, ok = store.Get("k")
	require.False(t, ok)
}

func TestStoreConcurrentWrites(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	store := NewStore(rec, httptest.NewRequest(http.MethodGet, "/", nil), DefaultOptions())

	const writers = 16
	var wg sync.WaitGroup
	for i := range writers {
		name := "c" + strconv.Itoa(i)
		wg.Go(func() { store.Set(name, "v") })
		wg.Go(func() { store.Remove("r" + name) })
		wg.Go(func() { store.Remove("shared") })
	}
	wg.Wait()

	assert.Len(t, rec.Header().Values("Set-Cookie"), 2*writers+1)
	_, ok := store.Get("shared")
	assert.False(t, ok)
}
