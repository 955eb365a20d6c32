package handler

import (
	"net/http"

	"giantylive-web/internal/auth"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/model"
	"giantylive-web/internal/session"
	"giantylive-web/pkg/apierror"
)

type SessionHandler struct {
	auth *auth.Manager
}

func NewSessionHandler(manager *auth.Manager) *SessionHandler {
	return &SessionHandler{auth: manager}
}

type sessionView struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
	Locale        string      `json:"locale"`
	Redirect      string      `json:"redirect,omitempty"`
	FullReload    bool        `json:"full_reload,omitempty"`
}

type signInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Locale   string `json:"locale,omitempty"`
}

type signUpPayload struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Locale          string `json:"locale,omitempty"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrNoSession)
		return
	}

	state := h.auth.Initialize(r.Context(), store)
	if apierror.IsUnauthorized(state.Err) {
		writeError(w, r, state.Err)
		return
	}
	writeSuccess(w, http.StatusOK, toSessionView(r, state), nil)
}

func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrNoSession)
		return
	}

	var payload signInPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	loc := locale.OrDefault(payload.Locale, locale.FromContext(r.Context()))
	state := h.auth.Login(r.Context(), store, loc, model.SignInRequest{Email: payload.Email, Password: payload.Password})
	if state.Error != "" {
		writeStateError(w, r, state)
		return
	}
	writeSuccess(w, http.StatusOK, toSessionView(r, state), nil)
}

func (h *SessionHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrNoSession)
		return
	}

	var payload signUpPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	loc := locale.OrDefault(payload.Locale, locale.FromContext(r.Context()))
	state := h.auth.Register(r.Context(), store, loc, model.SignUpRequest{
		FullName:        payload.FullName,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if state.Error != "" {
		writeStateError(w, r, state)
		return
	}
	writeSuccess(w, http.StatusCreated, toSessionView(r, state), nil)
}

// SignOut clears the session. The client is expected to do a full page load
// to the returned redirect.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrNoSession)
		return
	}

	loc := locale.FromContext(r.Context())
	if fromPage, ok := locale.FromPath(refererPath(r)); ok {
		loc = fromPage
	}

	state := h.auth.Logout(r.Context(), store, loc)
	w.Header().Set("Clear-Site-Data", clearSiteData)
	writeSuccess(w, http.StatusOK, toSessionView(r, state), nil)
}

func toSessionView(r *http.Request, state auth.State) sessionView {
	return sessionView{
		Authenticated: state.IsAuthenticated,
		User:          state.User,
		Locale:        locale.FromContext(r.Context()).String(),
		Redirect:      state.Redirect,
		FullReload:    state.FullReload,
	}
}

// writeStateError reports a failed sign-in or sign-up with the displayable
// message the auth flow settled on.
func writeStateError(w http.ResponseWriter, r *http.Request, state auth.State) {
	err := state.Err
	if err == nil {
		err = apierror.Validation(state.Error, state.Fields)
	}

	status := formStatus(err)
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	writeError(w, r, &apierror.APIError{
		Code:       codeFor(err),
		Message:    state.Error,
		Fields:     state.Fields,
		HTTPStatus: status,
		Kind:       apierror.KindOf(err),
	})
}

func codeFor(err error) string {
	switch apierror.KindOf(err) {
	case apierror.KindValidation:
		return "VALIDATION_ERROR"
	case apierror.KindUnauthorized:
		return "UNAUTHORIZED"
	case apierror.KindNetwork:
		return "NETWORK_ERROR"
	default:
		return "UPSTREAM_ERROR"
	}
}
