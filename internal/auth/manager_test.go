package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giantylive-web/internal/cookie"
	"giantylive-web/internal/event"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/model"
	"giantylive-web/internal/session"
	"giantylive-web/pkg/apierror"
)

type fakeBackend struct {
	calls []string

	signInResp *model.AuthResponse
	signInErr  error
	signUpErr  error
	me         *model.User
	meErr      error
}

func (f *fakeBackend) SignIn(_ context.Context, req model.SignInRequest) (*model.AuthResponse, error) {
	f.calls = append(f.calls, "signin:"+req.Email)
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.signInResp, nil
}

func (f *fakeBackend) SignUp(_ context.Context, req model.SignUpRequest) (*model.AuthResponse, error) {
	f.calls = append(f.calls, "signup:"+req.Email)
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &model.AuthResponse{}, nil
}

func (f *fakeBackend) Me(context.Context) (*model.User, error) {
	f.calls = append(f.calls, "me")
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.me, nil
}

type recordingPublisher struct {
	events []event.Event
}

func (p *recordingPublisher) Publish(e event.Event) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []event.Type {
	out := make([]event.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// cookieSession returns a cookie-backed store plus a function that replays
// the written cookies into a fresh store, as the next request would see them.
func cookieSession(t *testing.T, cookies ...*http.Cookie) (*session.CookieStore, func() *session.CookieStore) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "http://example.test/ja", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	store := session.NewCookieStore(cookie.NewStore(rec, req, cookie.DefaultOptions()))

	reread := func() *session.CookieStore {
		next := httptest.NewRequest(http.MethodGet, "http://example.test/ja", nil)
		for _, c := range rec.Result().Cookies() {
			if c.MaxAge >= 0 {
				next.AddCookie(c)
			}
		}
		return session.NewCookieStore(cookie.NewStore(httptest.NewRecorder(), next, cookie.DefaultOptions()))
	}
	return store, reread
}

func userCookie(t *testing.T, user *model.User) *http.Cookie {
	t.Helper()
	encoded, err := session.EncodeUser(user)
	require.NoError(t, err)
	return &http.Cookie{Name: session.UserCookie, Value: encoded}
}

func TestInitializeWithoutTokenIsUnauthenticated(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	store, _ := cookieSession(t, userCookie(t, &model.User{ID: "1"}))

	state := NewManager(backend, nil).Initialize(context.Background(), store)
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Empty(t, backend.calls, "no backend call without a token")
}

func TestInitializeRefreshesUser(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{me: &model.User{ID: "1", Email: "a@b.test", Locale: "vi"}}
	events := &recordingPublisher{}
	store, reread := cookieSession(t,
		&http.Cookie{Name: session.TokenCookie, Value: "tok"},
		userCookie(t, &model.User{ID: "1", Email: "old@b.test"}),
	)

	state := NewManager(backend, events).Initialize(context.Background(), store)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, "a@b.test", state.User.Email)
	assert.Equal(t, []event.Type{event.TypeRefreshed}, events.types())

	user, ok := reread().User()
	require.True(t, ok)
	assert.Equal(t, "a@b.test", user.Email)
}

func TestInitializeFallsBackToCachedUser(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{meErr: apierror.Network("Network error", errors.New("dial tcp: refused"))}
	store, _ := cookieSession(t,
		&http.Cookie{Name: session.TokenCookie, Value: "tok"},
		userCookie(t, &model.User{ID: "1", Email: "cached@b.test"}),
	)

	state := NewManager(backend, nil).Initialize(context.Background(), store)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, "cached@b.test", state.User.Email)
	assert.Empty(t, state.Error)
}

func TestInitializeUnauthorizedIsUnauthenticated(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{meErr: apierror.Unauthorized("expired")}
	store, _ := cookieSession(t,
		&http.Cookie{Name: session.TokenCookie, Value: "tok"},
		userCookie(t, &model.User{ID: "1"}),
	)

	state := NewManager(backend, nil).Initialize(context.Background(), store)
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.True(t, apierror.IsUnauthorized(state.Err))
}

func TestInitializeTokenWithoutUserSkipsRefresh(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{me: &model.User{ID: "1", Email: "a@b.test"}}
	events := &recordingPublisher{}
	store, _ := cookieSession(t, &http.Cookie{Name: session.TokenCookie, Value: "tok"})

	state := NewManager(backend, events).Initialize(context.Background(), store)
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.NoError(t, state.Err)
	assert.Empty(t, backend.calls)
	assert.Empty(t, events.events)
}

func TestAuthorizeIgnoresCachedUser(t *testing.T) {
	t.Parallel()

	forged := userCookie(t, &model.User{ID: "1", Role: model.RoleAdmin})

	t.Run("without a token", func(t *testing.T) {
		backend := &fakeBackend{}
		store, _ := cookieSession(t, forged)

		_, err := NewManager(backend, nil).Authorize(context.Background(), store)
		assert.True(t, apierror.IsUnauthorized(err))
		assert.Empty(t, backend.calls)
	})

	t.Run("backend rejects the token", func(t *testing.T) {
		backend := &fakeBackend{meErr: apierror.Unauthorized("Could not validate credentials")}
		store, _ := cookieSession(t, &http.Cookie{Name: session.TokenCookie, Value: "forged"}, forged)

		_, err := NewManager(backend, nil).Authorize(context.Background(), store)
		assert.True(t, apierror.IsUnauthorized(err))
		assert.Equal(t, []string{"me"}, backend.calls)
	})

	t.Run("backend role wins", func(t *testing.T) {
		backend := &fakeBackend{me: &model.User{ID: "1", Role: model.RoleUser}}
		store, reread := cookieSession(t, &http.Cookie{Name: session.TokenCookie, Value: "tok"}, forged)

		user, err := NewManager(backend, nil).Authorize(context.Background(), store)
		require.NoError(t, err)
		assert.False(t, user.IsAdmin())

		cached, ok := reread().User()
		require.True(t, ok)
		assert.False(t, cached.IsAdmin())
	})
}

func TestLoginSetsSessionAndRedirects(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{signInResp: &model.AuthResponse{
		AccessToken: "tok-1",
		User:        model.User{ID: "5", Email: "a@b.test"},
	}}
	events := &recordingPublisher{}
	store, reread := cookieSession(t)

	state := NewManager(backend, events).Login(context.Background(), store, locale.English,
		model.SignInRequest{Email: " a@b.test ", Password: "secret1"})

	require.Empty(t, state.Error)
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "/en", state.Redirect)
	assert.Equal(t, []string{"signin:a@b.test"}, backend.calls)
	assert.Equal(t, []event.Type{event.TypeSignedIn}, events.types())

	next := reread()
	token, ok := next.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)
	_, ok = next.User()
	assert.True(t, ok)

	again := NewManager(&fakeBackend{me: &model.User{ID: "5"}}, nil).Initialize(context.Background(), next)
	assert.True(t, again.IsAuthenticated)
}

func TestLoginFailureKeepsSessionUntouched(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"backend message", apierror.Unauthorized("Incorrect email or password"), "Incorrect email or password"},
		{"no message", apierror.Server(http.StatusInternalServerError, ""), "Login failed"},
		{"network", apierror.Network("Network error", errors.New("boom")), "Login failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store, reread := cookieSession(t)
			state := NewManager(&fakeBackend{signInErr: tc.err}, nil).Login(context.Background(), store, locale.Japanese,
				model.SignInRequest{Email: "a@b.test", Password: "secret1"})

			assert.Equal(t, tc.want, state.Error)
			assert.False(t, state.IsAuthenticated)
			assert.Empty(t, state.Redirect)

			_, ok := reread().Token()
			assert.False(t, ok)
		})
	}
}

func TestLoginValidation(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	store, _ := cookieSession(t)

	state := NewManager(backend, nil).Login(context.Background(), store, locale.Japanese, model.SignInRequest{})
	assert.NotEmpty(t, state.Error)
	assert.Contains(t, state.Fields, "email")
	assert.Contains(t, state.Fields, "password")
	assert.Empty(t, backend.calls)

	state.ClearError()
	assert.Empty(t, state.Error)
	assert.Nil(t, state.Fields)
}

func TestRegisterMakesTwoSequentialCalls(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{signInResp: &model.AuthResponse{
		AccessToken: "tok-2",
		User:        model.User{ID: "9", Email: "new@b.test"},
	}}
	events := &recordingPublisher{}
	store, reread := cookieSession(t)

	state := NewManager(backend, events).Register(context.Background(), store, locale.Vietnamese, model.SignUpRequest{
		Email:           "new@b.test",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		FullName:        "New User",
	})

	require.Empty(t, state.Error)
	assert.Equal(t, "/vi", state.Redirect)
	assert.Equal(t, []string{"signup:new@b.test", "signin:new@b.test"}, backend.calls)
	assert.Equal(t, []event.Type{event.TypeSignedUp}, events.types())

	token, ok := reread().Token()
	require.True(t, ok)
	assert.Equal(t, "tok-2", token)
}

func TestRegisterStopsAfterFailedSignUp(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{signUpErr: apierror.Validation("Email already registered", nil)}
	store, _ := cookieSession(t)

	state := NewManager(backend, nil).Register(context.Background(), store, locale.Japanese, model.SignUpRequest{
		Email:           "dup@b.test",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		FullName:        "Dup",
	})

	assert.Equal(t, "Email already registered", state.Error)
	assert.Equal(t, []string{"signup:dup@b.test"}, backend.calls)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		req   model.SignUpRequest
		field string
	}{
		{"missing name", model.SignUpRequest{Email: "a@b.test", Password: "secret1", ConfirmPassword: "secret1"}, "full_name"},
		{"bad email", model.SignUpRequest{FullName: "A", Email: "ab.test", Password: "secret1", ConfirmPassword: "secret1"}, "email"},
		{"short password", model.SignUpRequest{FullName: "A", Email: "a@b.test", Password: "12345", ConfirmPassword: "12345"}, "password"},
		{"mismatch", model.SignUpRequest{FullName: "A", Email: "a@b.test", Password: "secret1", ConfirmPassword: "secret2"}, "confirm_password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			backend := &fakeBackend{}
			store, _ := cookieSession(t)
			state := NewManager(backend, nil).Register(context.Background(), store, locale.Japanese, tc.req)

			assert.NotEmpty(t, state.Error)
			assert.Contains(t, state.Fields, tc.field)
			assert.Empty(t, backend.calls)
		})
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	events := &recordingPublisher{}
	store, reread := cookieSession(t,
		&http.Cookie{Name: session.TokenCookie, Value: "tok"},
		userCookie(t, &model.User{ID: "3"}),
		&http.Cookie{Name: locale.CookieName, Value: "en"},
	)

	state := NewManager(&fakeBackend{}, events).Logout(context.Background(), store, locale.English)
	assert.Equal(t, "/en", state.Redirect)
	assert.True(t, state.FullReload)
	assert.False(t, state.IsAuthenticated)

	require.Len(t, events.events, 1)
	assert.Equal(t, event.TypeSignedOut, events.events[0].Type)
	assert.Equal(t, "3", events.events[0].UserID)

	next := reread()
	_, ok := next.Token()
	assert.False(t, ok)
	_, ok = next.User()
	assert.False(t, ok)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return token
}

func TestCallback(t *testing.T) {
	t.Parallel()

	valid := signedToken(t, jwt.MapClaims{
		"sub":        float64(12),
		"email":      "oauth@b.test",
		"role":       "user",
		"name":       "OAuth User",
		"avatar_url": "https://cdn.test/a.png",
		"locale":     "en",
	})
	noSubject := signedToken(t, jwt.MapClaims{"email": "x@b.test"})
	garbage := "abc." + base64.RawURLEncoding.EncodeToString([]byte("{not json")) + ".sig"

	cases := []struct {
		name        string
		token       string
		providerErr string
		redirect    string
		authed      bool
	}{
		{"provider error", valid, "access_denied", "/ja/sign-in?error=oauth_failed", false},
		{"missing token", "", "", "/ja/sign-in?error=no_token", false},
		{"undecodable token", garbage, "", "/ja/sign-in?error=invalid_token", false},
		{"no subject", noSubject, "", "/ja/sign-in?error=invalid_token", false},
		{"valid", valid, "", "/ja", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store, reread := cookieSession(t)
			state := NewManager(&fakeBackend{}, nil).Callback(context.Background(), store, locale.Japanese, tc.token, tc.providerErr)

			assert.Equal(t, tc.redirect, state.Redirect)
			assert.Equal(t, tc.authed, state.IsAuthenticated)

			user, ok := reread().User()
			assert.Equal(t, tc.authed, ok)
			if tc.authed {
				assert.Equal(t, model.ID("12"), user.ID)
				assert.Equal(t, "OAuth User", user.Name)
			}
		})
	}
}

func TestSignInRedirect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/vi/sign-in", SignInRedirect("/vi/dashboard", locale.Japanese))
	assert.Equal(t, "/ja/sign-in", SignInRedirect("/dashboard", locale.Japanese))
	assert.Equal(t, "", SignInRedirect("/en/sign-in", locale.Japanese))
	assert.Equal(t, "", SignInRedirect("/en/sign-up", locale.Japanese))
	assert.Equal(t, "/en/sign-in", SignInRedirect("/en", locale.Japanese))
}
