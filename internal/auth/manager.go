// Package auth derives the per-request authentication state from the session
// store and runs the sign-in, sign-up, sign-out and OAuth callback flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"giantylive-web/internal/event"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/logger"
	"giantylive-web/internal/model"
	"giantylive-web/internal/session"
	"giantylive-web/pkg/apierror"
)

const (
	MinPasswordLength = 6

	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
)

// Callback error codes appended to the sign-in redirect.
const (
	CallbackOAuthFailed  = "oauth_failed"
	CallbackNoToken      = "no_token"
	CallbackInvalidToken = "invalid_token"
)

type Backend interface {
	SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthResponse, error)
	SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthResponse, error)
	Me(ctx context.Context) (*model.User, error)
}

// State is what pages render from. Redirect, when set, is where the HTTP
// layer sends the browser next.
type State struct {
	User            *model.User
	IsLoading       bool
	IsAuthenticated bool
	Error           string
	Fields          map[string]string
	Redirect        string
	FullReload      bool
	// Err is the classified failure behind Error, for callers that need a
	// status code.
	Err error
}

func (s *State) ClearError() {
	s.Error = ""
	s.Fields = nil
	s.Err = nil
}

type Manager struct {
	backend Backend
	events  event.Publisher
}

func NewManager(backend Backend, events event.Publisher) *Manager {
	if events == nil {
		events = event.Discard{}
	}
	return &Manager{backend: backend, events: events}
}

// Initialize reads the cached session and refreshes the user from the
// backend. Only a session with both a token and a cached user is refreshed.
// A failed refresh keeps the cached user, except on 401 where the client hook
// has already cleared the session and Err carries the rejection.
func (m *Manager) Initialize(ctx context.Context, store session.Store) State {
	token, hasToken := store.Token()
	cached, hasUser := store.User()

	if !hasToken || !hasUser {
		return State{}
	}

	fresh, err := m.backend.Me(ctx)
	if err != nil {
		if apierror.IsUnauthorized(err) {
			return State{Err: err}
		}
		slog.DebugContext(ctx, "user refresh failed, using cached user", "error", err)
		return State{User: cached, IsAuthenticated: true}
	}

	if err := store.SetSession(token, fresh); err != nil {
		slog.WarnContext(ctx, "failed to persist refreshed user", "error", err)
	}
	m.publish(ctx, event.TypeRefreshed, fresh, "")
	return State{User: fresh, IsAuthenticated: true}
}

// Authorize resolves the session user through the backend. Unlike Initialize
// it never falls back to the cached user, so the result can back access
// decisions.
func (m *Manager) Authorize(ctx context.Context, store session.Store) (*model.User, error) {
	token, ok := store.Token()
	if !ok {
		return nil, apierror.Unauthorized("Authentication required")
	}

	user, err := m.backend.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.SetSession(token, user); err != nil {
		slog.WarnContext(ctx, "failed to persist refreshed user", "error", err)
	}
	return user, nil
}

func (m *Manager) Login(ctx context.Context, store session.Store, loc locale.Locale, creds model.SignInRequest) State {
	creds.Email = strings.TrimSpace(creds.Email)

	fields := map[string]string{}
	if creds.Email == "" {
		fields["email"] = "Email is required"
	}
	if creds.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		msg := "Please fill in all fields"
		return State{Error: msg, Fields: fields, Err: apierror.Validation(msg, fields)}
	}

	resp, err := m.backend.SignIn(ctx, creds)
	if err != nil {
		return failure(err, msgLoginFailed)
	}

	if err := store.SetSession(resp.AccessToken, &resp.User); err != nil {
		return failure(err, msgLoginFailed)
	}

	m.publish(ctx, event.TypeSignedIn, &resp.User, "")
	return State{User: &resp.User, IsAuthenticated: true, Redirect: loc.Path("")}
}

// Register signs up and then signs in with the same credentials. The second
// call never runs when the first fails.
func (m *Manager) Register(ctx context.Context, store session.Store, loc locale.Locale, req model.SignUpRequest) State {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if fields := validateSignUp(req); len(fields) > 0 {
		msg := firstMessage(fields, "full_name", "email", "password", "confirm_password")
		return State{Error: msg, Fields: fields, Err: apierror.Validation(msg, fields)}
	}

	if _, err := m.backend.SignUp(ctx, req); err != nil {
		return failure(err, msgRegistrationFailed)
	}

	resp, err := m.backend.SignIn(ctx, model.SignInRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return failure(err, msgRegistrationFailed)
	}

	if err := store.SetSession(resp.AccessToken, &resp.User); err != nil {
		return failure(err, msgRegistrationFailed)
	}

	m.publish(ctx, event.TypeSignedUp, &resp.User, "")
	return State{User: &resp.User, IsAuthenticated: true, Redirect: loc.Path("")}
}

// Logout clears every session and provider cookie. The caller must answer
// with a full page load so nothing rendered for the old session survives.
func (m *Manager) Logout(ctx context.Context, store session.Store, loc locale.Locale) State {
	user, _ := store.User()
	store.Clear()
	m.publish(ctx, event.TypeSignedOut, user, "")
	return State{Redirect: loc.Path(""), FullReload: true}
}

// Callback stores the session handed back by the OAuth provider. The token
// payload is read without verification; the backend remains the authority.
func (m *Manager) Callback(ctx context.Context, store session.Store, loc locale.Locale, token string, providerErr string) State {
	signIn := loc.Path("/sign-in")

	if strings.TrimSpace(providerErr) != "" {
		slog.WarnContext(ctx, "oauth provider returned an error", "error", providerErr)
		return State{Redirect: withError(signIn, CallbackOAuthFailed)}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return State{Redirect: withError(signIn, CallbackNoToken)}
	}

	user, err := UserFromToken(token)
	if err != nil {
		slog.WarnContext(ctx, "oauth token could not be decoded", "error", err)
		return State{Redirect: withError(signIn, CallbackInvalidToken)}
	}

	if err := store.SetSession(token, user); err != nil {
		return State{Redirect: withError(signIn, CallbackInvalidToken)}
	}

	m.publish(ctx, event.TypeSignedIn, user, "oauth")
	return State{User: user, IsAuthenticated: true, Redirect: loc.Path("")}
}

// UserFromToken decodes the JWT payload into a user without checking the
// signature.
func UserFromToken(token string) (*model.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	user := &model.User{
		ID:        model.ID(claimString(claims["sub"])),
		Email:     claimString(claims["email"]),
		Role:      claimString(claims["role"]),
		Name:      claimString(claims["name"]),
		AvatarURL: claimString(claims["avatar_url"]),
		Locale:    claimString(claims["locale"]),
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: missing subject", model.ErrInvalidToken)
	}
	return user, nil
}

// SignInRedirect is where a 401 sends the browser, or "" when currentPath
// already is an auth page.
func SignInRedirect(currentPath string, fallback locale.Locale) string {
	rest := locale.StripPrefix(currentPath)
	if IsAuthPage(rest) {
		return ""
	}
	loc, ok := locale.FromPath(currentPath)
	if !ok {
		loc = fallback
	}
	return loc.Path("/sign-in")
}

// IsAuthPage reports whether a prefix-free path is one of the auth pages.
func IsAuthPage(path string) bool {
	return strings.Contains(path, "/sign-in") || strings.Contains(path, "/sign-up")
}

func validateSignUp(req model.SignUpRequest) map[string]string {
	fields := map[string]string{}
	if req.FullName == "" {
		fields["full_name"] = "Name is required"
	}
	switch {
	case req.Email == "":
		fields["email"] = "Email is required"
	case !strings.Contains(req.Email, "@"):
		fields["email"] = "Email is invalid"
	}
	switch {
	case req.Password == "":
		fields["password"] = "Password is required"
	case len(req.Password) < MinPasswordLength:
		fields["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if req.ConfirmPassword != req.Password {
		fields["confirm_password"] = "Passwords do not match"
	}
	return fields
}

func failure(err error, fallback string) State {
	state := State{Error: apierror.MessageOf(err, fallback), Err: err}
	if apierror.IsKind(err, apierror.KindNetwork) {
		state.Error = fallback
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		state.Fields = apiErr.Fields
	}
	return state
}

func firstMessage(fields map[string]string, order ...string) string {
	for _, key := range order {
		if msg, ok := fields[key]; ok {
			return msg
		}
	}
	return ""
}

func withError(path string, code string) string {
	return path + "?error=" + url.QueryEscape(code)
}

func claimString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

func (m *Manager) publish(ctx context.Context, typ event.Type, user *model.User, detail string) {
	e := event.Event{
		Type:      typ,
		Locale:    locale.FromContext(ctx).String(),
		RequestID: logger.RequestID(ctx),
		ClientIP:  logger.ClientIP(ctx),
		Detail:    detail,
	}
	if user != nil {
		e.UserID = user.ID.String()
		e.Email = user.Email
	}
	m.events.Publish(e)
}
