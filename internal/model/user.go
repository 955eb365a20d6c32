package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ID accepts both numeric and string identifiers from the backend.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// User is the frontend's cached copy of the backend user.
type User struct {
	ID                 ID     `json:"id"`
	Email              string `json:"email"`
	Username           string `json:"username,omitempty"`
	FullName           string `json:"full_name,omitempty"`
	Name               string `json:"name,omitempty"`
	Role               string `json:"role,omitempty"`
	AvatarURL          string `json:"avatar_url,omitempty"`
	Locale             string `json:"locale,omitempty"`
	LanguagePreference string `json:"language_preference,omitempty"`
	Timezone           string `json:"timezone,omitempty"`
	IsActive           bool   `json:"is_active,omitempty"`
	IsSuperuser        bool   `json:"is_superuser,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

func (u User) DisplayName() string {
	for _, candidate := range []string{u.FullName, u.Name, u.Username, u.Email} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// PreferredLocale returns the raw locale preference, which may be empty.
func (u User) PreferredLocale() string {
	if u.Locale != "" {
		return u.Locale
	}
	return u.LanguagePreference
}

func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin) || u.IsSuperuser
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FullName        string `json:"full_name,omitempty"`
	ConfirmPassword string `json:"-"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"-"`
}

type UpdateLocaleRequest struct {
	Locale string `json:"locale"`
}
