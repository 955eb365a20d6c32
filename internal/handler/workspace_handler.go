package handler

import (
	"net/http"

	"giantylive-web/internal/model"
	"giantylive-web/internal/service"
)

type WorkspaceHandler struct {
	service *service.WorkspaceService
}

func NewWorkspaceHandler(service *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: service}
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, workspaces, nil)
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspace, err := h.service.Get(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, workspace, nil)
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.WorkspaceInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	workspace, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, workspace, nil)
}

func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.WorkspaceInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	workspace, err := h.service.Update(r.Context(), idParam(r, "id"), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, workspace, nil)
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), idParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

func (h *WorkspaceHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *WorkspaceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *WorkspaceHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	if err := h.service.SetActive(r.Context(), idParam(r, "id"), active); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"is_active": active}, nil)
}

func (h *WorkspaceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats, nil)
}

func (h *WorkspaceHandler) Channels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.service.Channels(r.Context(), idParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, channels, nil)
}
