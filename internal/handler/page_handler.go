package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"giantylive-web/internal/auth"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/model"
	"giantylive-web/internal/service"
	"giantylive-web/internal/session"
	"giantylive-web/internal/view"
	"giantylive-web/pkg/apierror"
)

const clearSiteData = `"cache", "storage"`

var callbackErrors = map[string]string{
	auth.CallbackOAuthFailed:  "error.oauth_failed",
	auth.CallbackNoToken:      "error.no_token",
	auth.CallbackInvalidToken: "error.invalid_token",
}

type PageHandler struct {
	auth        *auth.Manager
	users       *service.UserService
	workspaces  *service.WorkspaceService
	glossaries  *service.GlossaryService
	conferences *service.ConferenceService
	view        *view.Renderer
}

func NewPageHandler(
	manager *auth.Manager,
	users *service.UserService,
	workspaces *service.WorkspaceService,
	glossaries *service.GlossaryService,
	conferences *service.ConferenceService,
	renderer *view.Renderer,
) *PageHandler {
	return &PageHandler{
		auth:        manager,
		users:       users,
		workspaces:  workspaces,
		glossaries:  glossaries,
		conferences: conferences,
		view:        renderer,
	}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	state := h.auth.Initialize(r.Context(), store)
	if apierror.IsUnauthorized(state.Err) {
		h.redirectToSignIn(w, r)
		return
	}

	page := newPage(r, "home.title")
	page.User = state.User
	h.view.Render(w, http.StatusOK, "home", page)
}

func (h *PageHandler) SignInForm(w http.ResponseWriter, r *http.Request) {
	page := newPage(r, "signin.title")
	page.ErrorKey = callbackErrors[r.URL.Query().Get("error")]
	h.view.Render(w, http.StatusOK, "sign_in", page)
}

func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "")
		return
	}

	loc := locale.FromContext(r.Context())
	state := h.auth.Login(r.Context(), store, loc, model.SignInRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	})
	if state.Error != "" {
		page := newPage(r, "signin.title")
		page.Error = state.Error
		page.Fields = state.Fields
		page.Form = map[string]string{"email": r.PostForm.Get("email")}
		h.view.Render(w, formStatus(state.Err), "sign_in", page)
		return
	}

	http.Redirect(w, r, state.Redirect, http.StatusSeeOther)
}

func (h *PageHandler) SignUpForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "sign_up", newPage(r, "signup.title"))
}

func (h *PageHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "")
		return
	}

	loc := locale.FromContext(r.Context())
	state := h.auth.Register(r.Context(), store, loc, model.SignUpRequest{
		FullName:        r.PostForm.Get("full_name"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	})
	if state.Error != "" {
		page := newPage(r, "signup.title")
		page.Error = state.Error
		page.Fields = state.Fields
		page.Form = map[string]string{
			"full_name": r.PostForm.Get("full_name"),
			"email":     r.PostForm.Get("email"),
		}
		h.view.Render(w, formStatus(state.Err), "sign_up", page)
		return
	}

	http.Redirect(w, r, state.Redirect, http.StatusSeeOther)
}

// SignOut answers with a redirect the browser must follow as a full page
// load, and asks it to drop anything cached for the old session.
func (h *PageHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}

	state := h.auth.Logout(r.Context(), store, locale.FromContext(r.Context()))
	w.Header().Set("Clear-Site-Data", clearSiteData)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, state.Redirect, http.StatusSeeOther)
}

func (h *PageHandler) Callback(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	state := h.auth.Callback(r.Context(), store, locale.FromContext(r.Context()), query.Get("token"), query.Get("error"))
	http.Redirect(w, r, state.Redirect, http.StatusFound)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	state, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var (
		wg         sync.WaitGroup
		workspaces []model.Workspace
		stats      *model.ConferenceStats
		wsErr      error
		statsErr   error
	)
	wg.Go(func() { workspaces, wsErr = h.workspaces.List(r.Context()) })
	wg.Go(func() { stats, statsErr = h.conferences.Stats(r.Context()) })
	wg.Wait()

	if apierror.IsUnauthorized(wsErr) || apierror.IsUnauthorized(statsErr) {
		h.redirectToSignIn(w, r)
		return
	}

	data := view.DashboardData{Workspaces: workspaces}
	if stats != nil {
		data.Stats = *stats
	}
	for _, err := range []error{wsErr, statsErr} {
		if err != nil {
			slog.WarnContext(r.Context(), "dashboard data unavailable", "error", err)
			data.Partial = true
		}
	}

	page := newPage(r, "dashboard.title")
	page.User = state.User
	page.Data = data
	h.view.Render(w, http.StatusOK, "dashboard", page)
}

func (h *PageHandler) Workspaces(w http.ResponseWriter, r *http.Request) {
	state, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	workspaces, err := h.workspaces.List(r.Context())
	if apierror.IsUnauthorized(err) {
		h.redirectToSignIn(w, r)
		return
	}
	data := view.WorkspaceListData{Workspaces: workspaces}
	if err != nil {
		slog.WarnContext(r.Context(), "workspace list unavailable", "error", err)
		data.Unavailable = true
	}

	page := newPage(r, "workspaces.title")
	page.User = state.User
	page.Data = data
	h.view.Render(w, http.StatusOK, "workspaces", page)
}

func (h *PageHandler) Glossaries(w http.ResponseWriter, r *http.Request) {
	state, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	glossaries, err := h.glossaries.List(r.Context())
	if apierror.IsUnauthorized(err) {
		h.redirectToSignIn(w, r)
		return
	}
	data := view.GlossaryListData{Glossaries: glossaries}
	if err != nil {
		slog.WarnContext(r.Context(), "glossary list unavailable", "error", err)
		data.Unavailable = true
	}

	page := newPage(r, "glossaries.title")
	page.User = state.User
	page.Data = data
	h.view.Render(w, http.StatusOK, "glossaries", page)
}

func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	state, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	page := newPage(r, "settings.title")
	page.User = state.User
	if r.URL.Query().Get("saved") == "1" {
		page.Notice = "settings.saved"
	}
	h.view.Render(w, http.StatusOK, "settings", page)
}

func (h *PageHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.settingsForm(w, r, func(ctx context.Context, store session.Store) (string, error) {
		_, err := h.users.UpdateProfile(ctx, store, model.UpdateProfileRequest{Name: r.PostForm.Get("name")})
		return "", err
	})
}

func (h *PageHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	h.settingsForm(w, r, func(ctx context.Context, _ session.Store) (string, error) {
		return "", h.users.UpdatePassword(ctx, model.UpdatePasswordRequest{
			CurrentPassword: r.PostForm.Get("current_password"),
			NewPassword:     r.PostForm.Get("new_password"),
			ConfirmPassword: r.PostForm.Get("confirm_password"),
		})
	})
}

// UpdateLocale switches the saved preference and moves the browser to the
// settings page under the new locale prefix.
func (h *PageHandler) UpdateLocale(w http.ResponseWriter, r *http.Request) {
	h.settingsForm(w, r, func(ctx context.Context, store session.Store) (string, error) {
		if _, err := h.users.UpdateLocale(ctx, store, r.PostForm.Get("locale")); err != nil {
			return "", err
		}
		return r.PostForm.Get("locale"), nil
	})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "error.not_found")
}

// settingsForm runs one settings mutation. On success the browser is sent
// back to the settings page, in the returned locale when one is given.
func (h *PageHandler) settingsForm(w http.ResponseWriter, r *http.Request, apply func(context.Context, session.Store) (string, error)) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "")
		return
	}

	next, err := apply(r.Context(), store)
	if err != nil {
		if apierror.IsUnauthorized(err) {
			h.redirectToSignIn(w, r)
			return
		}

		page := newPage(r, "settings.title")
		page.Error = apierror.MessageOf(err, "Could not save your changes")
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			page.Fields = apiErr.Fields
		}
		if user, ok := store.User(); ok {
			page.User = user
		} else {
			page.User = &model.User{}
		}
		h.view.Render(w, formStatus(err), "settings", page)
		return
	}

	loc := locale.FromContext(r.Context())
	if parsed, ok := locale.Parse(next); ok {
		loc = parsed
	}
	http.Redirect(w, r, loc.Path("/dashboard/settings")+"?saved=1", http.StatusSeeOther)
}

// requireSession resolves the auth state for a protected page. The locale
// middleware only checks that a token exists; an expired token or a token
// without a cached user shows up here as an unauthenticated state. What is
// left of such a session is cleared so the sign-in page does not bounce the
// browser back.
func (h *PageHandler) requireSession(w http.ResponseWriter, r *http.Request) (auth.State, bool) {
	store, ok := sessionStore(w, r)
	if !ok {
		return auth.State{}, false
	}

	state := h.auth.Initialize(r.Context(), store)
	if !state.IsAuthenticated || state.User == nil {
		store.Clear()
		h.redirectToSignIn(w, r)
		return auth.State{}, false
	}
	return state, true
}

func (h *PageHandler) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	target := auth.SignInRedirect(r.URL.Path, locale.FromContext(r.Context()))
	if target == "" {
		target = locale.FromContext(r.Context()).Path("/sign-in")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, status int, key string) {
	page := newPage(r, "error.title")
	if key != "" {
		page.Data = key
	}
	if store, ok := session.FromContext(r.Context()); ok {
		if user, ok := store.User(); ok {
			page.User = user
		}
	}
	h.view.Render(w, status, "error", page)
}

func newPage(r *http.Request, title string) view.Page {
	path := locale.StripPrefix(r.URL.Path)
	if path == "" {
		path = "/"
	}
	return view.Page{
		Locale: locale.FromContext(r.Context()),
		Path:   strings.TrimSuffix(path, "/"),
		Title:  title,
	}
}

func sessionStore(w http.ResponseWriter, r *http.Request) (session.Store, bool) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		slog.ErrorContext(r.Context(), "session store missing from request context", "path", r.URL.Path)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return store, true
}

// formStatus picks the status of a re-rendered form.
func formStatus(err error) int {
	switch apierror.KindOf(err) {
	case apierror.KindValidation:
		return http.StatusUnprocessableEntity
	case apierror.KindUnauthorized:
		return http.StatusUnauthorized
	case apierror.KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
