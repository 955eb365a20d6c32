package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"giantylive-web/internal/model"
	"giantylive-web/internal/service"
)

type ConferenceHandler struct {
	service *service.ConferenceService
}

func NewConferenceHandler(service *service.ConferenceService) *ConferenceHandler {
	return &ConferenceHandler{service: service}
}

func (h *ConferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip := parseIntOrDefault(query.Get("skip"), 0)
	limit := parseIntOrDefault(query.Get("limit"), 0)

	conferences, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, conferences, nil)
}

func (h *ConferenceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats, nil)
}

func (h *ConferenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.ConferenceCreate
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	conference, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, conference, nil)
}

func (h *ConferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	conference, err := h.service.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, conference, nil)
}

func (h *ConferenceHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	conference, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, conference, nil)
}

func (h *ConferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.ConferenceCreate
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	conference, err := h.service.Update(r.Context(), idParam(r, "id"), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, conference, nil)
}

func (h *ConferenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), idParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

// Transition runs start, pause, resume, end or toggle-status.
func (h *ConferenceHandler) Transition(w http.ResponseWriter, r *http.Request) {
	action := service.ConferenceAction(chi.URLParam(r, "action"))

	conference, err := h.service.Transition(r.Context(), idParam(r, "id"), action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, conference, nil)
}
