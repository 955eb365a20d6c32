package service

import (
	"context"
	"fmt"
	"strings"

	"giantylive-web/internal/model"
)

type WorkspaceService struct {
	backend Backend
}

func NewWorkspaceService(backend Backend) *WorkspaceService {
	return &WorkspaceService{backend: backend}
}

func (s *WorkspaceService) List(ctx context.Context) ([]model.Workspace, error) {
	workspaces := make([]model.Workspace, 0)
	if err := s.backend.Get(ctx, "/workspaces", &workspaces); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return workspaces, nil
}

func (s *WorkspaceService) Get(ctx context.Context, id model.ID) (*model.Workspace, error) {
	segment, err := pathID("workspace_id", id)
	if err != nil {
		return nil, err
	}
	var workspace model.Workspace
	if err := s.backend.Get(ctx, "/workspaces/"+segment, &workspace); err != nil {
		return nil, fmt.Errorf("get workspace %s: %w", id, err)
	}
	return &workspace, nil
}

func (s *WorkspaceService) Create(ctx context.Context, input model.WorkspaceInput) (*model.Workspace, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := requireText("name", input.Name, "Workspace name is required"); err != nil {
		return nil, err
	}
	var workspace model.Workspace
	if err := s.backend.Post(ctx, "/workspaces", input, &workspace); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &workspace, nil
}

func (s *WorkspaceService) Update(ctx context.Context, id model.ID, input model.WorkspaceInput) (*model.Workspace, error) {
	segment, err := pathID("workspace_id", id)
	if err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := requireText("name", input.Name, "Workspace name is required"); err != nil {
		return nil, err
	}
	var workspace model.Workspace
	if err := s.backend.Put(ctx, "/workspaces/"+segment, input, &workspace); err != nil {
		return nil, fmt.Errorf("update workspace %s: %w", id, err)
	}
	return &workspace, nil
}

func (s *WorkspaceService) Delete(ctx context.Context, id model.ID) error {
	segment, err := pathID("workspace_id", id)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, "/workspaces/"+segment, nil); err != nil {
		return fmt.Errorf("delete workspace %s: %w", id, err)
	}
	return nil
}

// SetActive toggles a workspace through PATCH /workspaces/{id}/activate or
// /deactivate.
func (s *WorkspaceService) SetActive(ctx context.Context, id model.ID, active bool) error {
	segment, err := pathID("workspace_id", id)
	if err != nil {
		return err
	}
	action := "deactivate"
	if active {
		action = "activate"
	}
	if err := s.backend.Patch(ctx, "/workspaces/"+segment+"/"+action, nil, nil); err != nil {
		return fmt.Errorf("%s workspace %s: %w", action, id, err)
	}
	return nil
}

func (s *WorkspaceService) Stats(ctx context.Context, id model.ID) (*model.WorkspaceStats, error) {
	segment, err := pathID("workspace_id", id)
	if err != nil {
		return nil, err
	}
	var stats model.WorkspaceStats
	if err := s.backend.Get(ctx, "/workspaces/"+segment+"/stats", &stats); err != nil {
		return nil, fmt.Errorf("workspace %s stats: %w", id, err)
	}
	return &stats, nil
}

func (s *WorkspaceService) Channels(ctx context.Context, id model.ID) ([]model.Channel, error) {
	segment, err := pathID("workspace_id", id)
	if err != nil {
		return nil, err
	}
	channels := make([]model.Channel, 0)
	if err := s.backend.Get(ctx, "/workspaces/"+segment+"/channels", &channels); err != nil {
		return nil, fmt.Errorf("workspace %s channels: %w", id, err)
	}
	return channels, nil
}
