package service

import (
	"context"
	"fmt"
	"strings"

	"giantylive-web/internal/event"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/logger"
	"giantylive-web/internal/model"
	"giantylive-web/internal/session"
	"giantylive-web/pkg/apierror"
)

const minPasswordLength = 6

type UserService struct {
	backend Backend
	events  event.Publisher
}

func NewUserService(backend Backend, events event.Publisher) *UserService {
	if events == nil {
		events = event.Discard{}
	}
	return &UserService{backend: backend, events: events}
}

func (s *UserService) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := s.backend.Get(ctx, "/users/me", &user); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	if err := s.backend.Get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfile renames the user and re-serializes the cached session.
func (s *UserService) UpdateProfile(ctx context.Context, store session.Store, req model.UpdateProfileRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := requireText("name", req.Name, "Name is required"); err != nil {
		return nil, err
	}

	if err := s.backend.Put(ctx, "/users/update-profile", req, nil); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.refreshSession(ctx, store, "")
}

func (s *UserService) UpdatePassword(ctx context.Context, req model.UpdatePasswordRequest) error {
	fields := map[string]string{}
	if req.CurrentPassword == "" {
		fields["current_password"] = "Current password is required"
	}
	switch {
	case len(req.NewPassword) < minPasswordLength:
		fields["new_password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	case req.NewPassword != req.ConfirmPassword:
		fields["confirm_password"] = "Passwords do not match"
	}
	if len(fields) > 0 {
		return apierror.Validation("Invalid password change", fields)
	}

	if err := s.backend.Put(ctx, "/users/update-password", req, nil); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateLocale stores the preference on the backend, then refreshes the
// cached user so the session and NEXT_LOCALE cookies follow it.
func (s *UserService) UpdateLocale(ctx context.Context, store session.Store, raw string) (*model.User, error) {
	loc, ok := locale.Parse(raw)
	if !ok {
		return nil, apierror.Validation("Unsupported language", map[string]string{"locale": "must be one of vi, en, ja"})
	}

	if err := s.backend.Put(ctx, "/users/update-locale", model.UpdateLocaleRequest{Locale: loc.String()}, nil); err != nil {
		return nil, fmt.Errorf("update locale: %w", err)
	}

	user, err := s.refreshSession(ctx, store, loc)
	if err != nil {
		return nil, err
	}

	s.events.Publish(event.Event{
		Type:      event.TypeLocaleChanged,
		UserID:    user.ID.String(),
		Email:     user.Email,
		Locale:    loc.String(),
		RequestID: logger.RequestID(ctx),
		ClientIP:  logger.ClientIP(ctx),
	})
	return user, nil
}

func (s *UserService) refreshSession(ctx context.Context, store session.Store, loc locale.Locale) (*model.User, error) {
	user, err := s.Me(ctx)
	if err != nil {
		return nil, err
	}
	if loc != "" && user.PreferredLocale() == "" {
		user.Locale = loc.String()
	}

	token, ok := store.Token()
	if !ok {
		return nil, fmt.Errorf("refresh session: %w", model.ErrNoSession)
	}
	if err := store.SetSession(token, user); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return user, nil
}
