package service

import (
	"context"
	"fmt"
	"strings"

	"giantylive-web/internal/model"
	"giantylive-web/pkg/apierror"
)

type GlossaryService struct {
	backend Backend
}

func NewGlossaryService(backend Backend) *GlossaryService {
	return &GlossaryService{backend: backend}
}

func (s *GlossaryService) List(ctx context.Context) ([]model.Glossary, error) {
	glossaries := make([]model.Glossary, 0)
	if err := s.backend.Get(ctx, "/glossaries", &glossaries); err != nil {
		return nil, fmt.Errorf("list glossaries: %w", err)
	}
	return glossaries, nil
}

func (s *GlossaryService) Get(ctx context.Context, id model.ID) (*model.Glossary, error) {
	segment, err := pathID("glossary_id", id)
	if err != nil {
		return nil, err
	}
	var glossary model.Glossary
	if err := s.backend.Get(ctx, "/glossaries/"+segment, &glossary); err != nil {
		return nil, fmt.Errorf("get glossary %s: %w", id, err)
	}
	return &glossary, nil
}

func (s *GlossaryService) Create(ctx context.Context, input model.GlossaryInput) (*model.Glossary, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := requireText("name", input.Name, "Glossary name is required"); err != nil {
		return nil, err
	}
	var glossary model.Glossary
	if err := s.backend.Post(ctx, "/glossaries", input, &glossary); err != nil {
		return nil, fmt.Errorf("create glossary: %w", err)
	}
	return &glossary, nil
}

// Update sends only the fields set in patch.
func (s *GlossaryService) Update(ctx context.Context, id model.ID, patch model.GlossaryPatch) error {
	segment, err := pathID("glossary_id", id)
	if err != nil {
		return err
	}
	if patch.Name == nil && patch.Description == nil && patch.IsActive == nil {
		return apierror.Validation("Nothing to update", nil)
	}
	if patch.Name != nil {
		if err := requireText("name", *patch.Name, "Glossary name is required"); err != nil {
			return err
		}
	}
	if err := s.backend.Patch(ctx, "/glossaries/"+segment, patch, nil); err != nil {
		return fmt.Errorf("update glossary %s: %w", id, err)
	}
	return nil
}

func (s *GlossaryService) Delete(ctx context.Context, id model.ID) error {
	segment, err := pathID("glossary_id", id)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, "/glossaries/"+segment, nil); err != nil {
		return fmt.Errorf("delete glossary %s: %w", id, err)
	}
	return nil
}

// AvailableWorkspaces lists workspaces that do not have a glossary yet.
func (s *GlossaryService) AvailableWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	workspaces := make([]model.Workspace, 0)
	if err := s.backend.Get(ctx, "/glossaries/workspaces/available", &workspaces); err != nil {
		return nil, fmt.Errorf("list available workspaces: %w", err)
	}
	return workspaces, nil
}

func (s *GlossaryService) AddTerm(ctx context.Context, term model.NewTerm) error {
	if _, err := pathID("glossary_id", term.GlossaryID); err != nil {
		return err
	}
	term.Source = strings.TrimSpace(term.Source)
	term.Translation = strings.TrimSpace(term.Translation)
	if term.Source == "" || term.Translation == "" {
		return apierror.Validation("Source and translation are required", map[string]string{
			"source":      "required",
			"translation": "required",
		})
	}
	if err := s.backend.Post(ctx, "/glossaries/terms", term, nil); err != nil {
		return fmt.Errorf("add glossary term: %w", err)
	}
	return nil
}

// BulkAddTerms drops blank rows and sends the rest in one request. It
// reports how many terms were sent.
func (s *GlossaryService) BulkAddTerms(ctx context.Context, glossaryID model.ID, terms []model.GlossaryTerm) (int, error) {
	segment, err := pathID("glossary_id", glossaryID)
	if err != nil {
		return 0, err
	}

	valid := make([]model.GlossaryTerm, 0, len(terms))
	for _, term := range terms {
		term.SourceTerm = strings.TrimSpace(term.SourceTerm)
		term.TargetTerm = strings.TrimSpace(term.TargetTerm)
		if term.SourceTerm == "" || term.TargetTerm == "" {
			continue
		}
		valid = append(valid, term)
	}
	if len(valid) == 0 {
		return 0, apierror.Validation("No valid terms found to import", nil)
	}

	if err := s.backend.Post(ctx, "/glossaries/"+segment+"/terms/bulk", valid, nil); err != nil {
		return 0, fmt.Errorf("bulk add terms to glossary %s: %w", glossaryID, err)
	}
	return len(valid), nil
}

func (s *GlossaryService) UpdateTerm(ctx context.Context, termID model.ID, patch model.TermPatch) error {
	segment, err := pathID("term_id", termID)
	if err != nil {
		return err
	}
	if patch.SourceTerm == nil && patch.TargetTerm == nil && patch.TargetLang == nil {
		return apierror.Validation("Nothing to update", nil)
	}
	if err := s.backend.Patch(ctx, "/glossaries/terms/"+segment, patch, nil); err != nil {
		return fmt.Errorf("update term %s: %w", termID, err)
	}
	return nil
}

func (s *GlossaryService) DeleteTerm(ctx context.Context, termID model.ID) error {
	segment, err := pathID("term_id", termID)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, "/glossaries/terms/"+segment, nil); err != nil {
		return fmt.Errorf("delete term %s: %w", termID, err)
	}
	return nil
}
