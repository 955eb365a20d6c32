package handler

import (
	"net/http"
	"strings"

	"giantylive-web/internal/model"
	"giantylive-web/internal/service"
)

type ChatHistoryHandler struct {
	service *service.ChatHistoryService
}

func NewChatHistoryHandler(service *service.ChatHistoryService) *ChatHistoryHandler {
	return &ChatHistoryHandler{service: service}
}

func (h *ChatHistoryHandler) ListByWorkspace(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.ListByWorkspace(r.Context(), idParam(r, "workspaceID"), historyQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, history, nil)
}

func (h *ChatHistoryHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.ListByChannel(r.Context(), idParam(r, "workspaceID"), idParam(r, "channelID"), historyQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, history, nil)
}

func historyQuery(r *http.Request) model.ChatHistoryQuery {
	query := r.URL.Query()
	return model.ChatHistoryQuery{
		ChannelID: strings.TrimSpace(query.Get("channel_id")),
		Search:    strings.TrimSpace(query.Get("search")),
		StartDate: strings.TrimSpace(query.Get("start_date")),
		EndDate:   strings.TrimSpace(query.Get("end_date")),
		Limit:     parseIntOrDefault(query.Get("limit"), 0),
		Offset:    parseIntOrDefault(query.Get("offset"), 0),
	}
}
