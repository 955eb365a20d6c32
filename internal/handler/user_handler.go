package handler

import (
	"net/http"

	"giantylive-web/internal/model"
	"giantylive-web/internal/service"
	"giantylive-web/internal/session"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, users, nil)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrNoSession)
		return
	}

	var payload model.UpdateProfileRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), store, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, nil)
}

type passwordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var payload passwordPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.service.UpdatePassword(r.Context(), model.UpdatePasswordRequest{
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"updated": true}, nil)
}

func (h *UserHandler) UpdateLocale(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, model.ErrNoSession)
		return
	}

	var payload model.UpdateLocaleRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.UpdateLocale(r.Context(), store, payload.Locale)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, nil)
}
