package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"giantylive-web/internal/model"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type ChatHistoryService struct {
	backend Backend
}

func NewChatHistoryService(backend Backend) *ChatHistoryService {
	return &ChatHistoryService{backend: backend}
}

// ListByWorkspace returns translated messages for a workspace, optionally
// narrowed to one channel.
func (s *ChatHistoryService) ListByWorkspace(ctx context.Context, workspaceID model.ID, query model.ChatHistoryQuery) ([]model.ChatHistory, error) {
	segment, err := pathID("workspace_id", workspaceID)
	if err != nil {
		return nil, err
	}

	values := historyQuery(query, defaultHistoryLimit)
	if channel := strings.TrimSpace(query.ChannelID); channel != "" && channel != "all" {
		values.Set("channel_id", channel)
	}

	items := make([]model.ChatHistory, 0)
	if err := s.backend.Get(ctx, withQuery("/chat-history/workspace/"+segment, values), &items); err != nil {
		return nil, fmt.Errorf("list chat history for workspace %s: %w", workspaceID, err)
	}
	return items, nil
}

func (s *ChatHistoryService) ListByChannel(ctx context.Context, workspaceID model.ID, channelID model.ID, query model.ChatHistoryQuery) ([]model.ChatHistory, error) {
	workspaceSegment, err := pathID("workspace_id", workspaceID)
	if err != nil {
		return nil, err
	}
	channelSegment, err := pathID("channel_id", channelID)
	if err != nil {
		return nil, err
	}

	path := "/chat-history/workspace/" + workspaceSegment + "/channel/" + channelSegment
	items := make([]model.ChatHistory, 0)
	if err := s.backend.Get(ctx, withQuery(path, historyQuery(query, 2*defaultHistoryLimit)), &items); err != nil {
		return nil, fmt.Errorf("list chat history for channel %s: %w", channelID, err)
	}
	return items, nil
}

func historyQuery(query model.ChatHistoryQuery, defaultLimit int) url.Values {
	values := url.Values{}
	if search := strings.TrimSpace(query.Search); search != "" {
		values.Set("search", search)
	}
	if start := strings.TrimSpace(query.StartDate); start != "" {
		values.Set("start_date", start)
	}
	if end := strings.TrimSpace(query.EndDate); end != "" {
		values.Set("end_date", end)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(offset))
	return values
}
