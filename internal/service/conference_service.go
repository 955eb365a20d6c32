package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"giantylive-web/internal/model"
	"giantylive-web/pkg/apierror"
)

const conferencesPath = "/api/v1/conferences"

// ConferenceAction is a lifecycle transition exposed by the backend.
type ConferenceAction string

const (
	ConferenceStart        ConferenceAction = "start"
	ConferencePause        ConferenceAction = "pause"
	ConferenceResume       ConferenceAction = "resume"
	ConferenceEnd          ConferenceAction = "end"
	ConferenceToggleStatus ConferenceAction = "toggle-status"
)

func (a ConferenceAction) Valid() bool {
	switch a {
	case ConferenceStart, ConferencePause, ConferenceResume, ConferenceEnd, ConferenceToggleStatus:
		return true
	}
	return false
}

type ConferenceService struct {
	backend Backend
}

func NewConferenceService(backend Backend) *ConferenceService {
	return &ConferenceService{backend: backend}
}

func (s *ConferenceService) Create(ctx context.Context, input model.ConferenceCreate) (*model.Conference, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := requireText("title", input.Title, "Conference title is required"); err != nil {
		return nil, err
	}
	if input.Type == "" {
		input.Type = model.ConferenceInstant
	}
	if input.Type != model.ConferenceInstant && input.Type != model.ConferenceScheduled {
		return nil, apierror.Validation("Unknown conference type", map[string]string{"type": string(input.Type)})
	}

	var conference model.Conference
	if err := s.backend.Post(ctx, conferencesPath+"/", input, &conference); err != nil {
		return nil, fmt.Errorf("create conference: %w", err)
	}
	return &conference, nil
}

// List pages through the caller's conferences. limit defaults to 100.
func (s *ConferenceService) List(ctx context.Context, skip int, limit int) ([]model.Conference, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}
	values := url.Values{}
	values.Set("skip", strconv.Itoa(skip))
	values.Set("limit", strconv.Itoa(limit))

	conferences := make([]model.Conference, 0)
	if err := s.backend.Get(ctx, withQuery(conferencesPath+"/", values), &conferences); err != nil {
		return nil, fmt.Errorf("list conferences: %w", err)
	}
	return conferences, nil
}

func (s *ConferenceService) Stats(ctx context.Context) (*model.ConferenceStats, error) {
	var stats model.ConferenceStats
	if err := s.backend.Get(ctx, conferencesPath+"/stats", &stats); err != nil {
		return nil, fmt.Errorf("conference stats: %w", err)
	}
	return &stats, nil
}

func (s *ConferenceService) Get(ctx context.Context, id model.ID) (*model.Conference, error) {
	segment, err := pathID("conference_id", id)
	if err != nil {
		return nil, err
	}
	var conference model.Conference
	if err := s.backend.Get(ctx, conferencesPath+"/"+segment, &conference); err != nil {
		return nil, fmt.Errorf("get conference %s: %w", id, err)
	}
	return &conference, nil
}

func (s *ConferenceService) GetByCode(ctx context.Context, code string) (*model.Conference, error) {
	code = strings.TrimSpace(code)
	if err := requireText("code", code, "Conference code is required"); err != nil {
		return nil, err
	}
	var conference model.Conference
	if err := s.backend.Get(ctx, conferencesPath+"/code/"+url.PathEscape(code), &conference); err != nil {
		return nil, fmt.Errorf("get conference by code: %w", err)
	}
	return &conference, nil
}

func (s *ConferenceService) Update(ctx context.Context, id model.ID, input model.ConferenceCreate) (*model.Conference, error) {
	segment, err := pathID("conference_id", id)
	if err != nil {
		return nil, err
	}
	var conference model.Conference
	if err := s.backend.Put(ctx, conferencesPath+"/"+segment, input, &conference); err != nil {
		return nil, fmt.Errorf("update conference %s: %w", id, err)
	}
	return &conference, nil
}

func (s *ConferenceService) Delete(ctx context.Context, id model.ID) error {
	segment, err := pathID("conference_id", id)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, conferencesPath+"/"+segment, nil); err != nil {
		return fmt.Errorf("delete conference %s: %w", id, err)
	}
	return nil
}

// Transition runs one lifecycle action and returns the updated conference.
func (s *ConferenceService) Transition(ctx context.Context, id model.ID, action ConferenceAction) (*model.Conference, error) {
	if !action.Valid() {
		return nil, apierror.Validation("Unknown conference action", map[string]string{"action": string(action)})
	}
	segment, err := pathID("conference_id", id)
	if err != nil {
		return nil, err
	}

	var conference model.Conference
	if err := s.backend.Post(ctx, conferencesPath+"/"+segment+"/"+string(action), struct{}{}, &conference); err != nil {
		return nil, fmt.Errorf("%s conference %s: %w", action, id, err)
	}
	return &conference, nil
}
