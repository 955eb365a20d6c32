package handler

import (
	"net/http"

	"giantylive-web/internal/model"
	"giantylive-web/internal/service"
)

type GlossaryHandler struct {
	service *service.GlossaryService
}

func NewGlossaryHandler(service *service.GlossaryService) *GlossaryHandler {
	return &GlossaryHandler{service: service}
}

func (h *GlossaryHandler) List(w http.ResponseWriter, r *http.Request) {
	glossaries, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, glossaries, nil)
}

func (h *GlossaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	glossary, err := h.service.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, glossary, nil)
}

func (h *GlossaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.GlossaryInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	glossary, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, glossary, nil)
}

func (h *GlossaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.GlossaryPatch
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), idParam(r, "id"), payload); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"updated": true}, nil)
}

func (h *GlossaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), idParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *GlossaryHandler) AvailableWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.service.AvailableWorkspaces(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, workspaces, nil)
}

func (h *GlossaryHandler) AddTerm(w http.ResponseWriter, r *http.Request) {
	var payload model.NewTerm
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.AddTerm(r.Context(), payload); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]bool{"created": true}, nil)
}

func (h *GlossaryHandler) BulkAddTerms(w http.ResponseWriter, r *http.Request) {
	var payload []model.GlossaryTerm
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	count, err := h.service.BulkAddTerms(r.Context(), idParam(r, "id"), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]int{"added": count}, nil)
}

func (h *GlossaryHandler) UpdateTerm(w http.ResponseWriter, r *http.Request) {
	var payload model.TermPatch
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.UpdateTerm(r.Context(), idParam(r, "termID"), payload); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"updated": true}, nil)
}

func (h *GlossaryHandler) DeleteTerm(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTerm(r.Context(), idParam(r, "termID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}
