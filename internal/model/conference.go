package model

type ConferenceStatus string

const (
	ConferencePending   ConferenceStatus = "PENDING"
	ConferenceStarted   ConferenceStatus = "STARTED"
	ConferencePaused    ConferenceStatus = "PAUSED"
	ConferenceEnded     ConferenceStatus = "ENDED"
	ConferenceCancelled ConferenceStatus = "CANCELLED"
)

type ConferenceType string

const (
	ConferenceInstant   ConferenceType = "INSTANT"
	ConferenceScheduled ConferenceType = "SCHEDULED"
)

type Conference struct {
	ID               ID               `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	ConferenceCode   string           `json:"conference_code"`
	MaxParticipants  int              `json:"max_participants"`
	LanguageFrom     string           `json:"language_from"`
	LanguageTo       string           `json:"language_to"`
	IsActive         bool             `json:"is_active"`
	Status           ConferenceStatus `json:"status"`
	Type             ConferenceType   `json:"type"`
	ParticipantCount int              `json:"participant_count,omitempty"`
	ScheduledAt      string           `json:"scheduled_at,omitempty"`
	StartedAt        string           `json:"started_at,omitempty"`
	EndedAt          string           `json:"ended_at,omitempty"`
	CreatedAt        string           `json:"created_at,omitempty"`
	UpdatedAt        string           `json:"updated_at,omitempty"`
}

type ConferenceCreate struct {
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Type            ConferenceType `json:"type,omitempty"`
	MaxParticipants int            `json:"max_participants,omitempty"`
	LanguageFrom    string         `json:"language_from,omitempty"`
	LanguageTo      string         `json:"language_to,omitempty"`
	ScheduledAt     string         `json:"scheduled_at,omitempty"`
}

type ConferenceStats struct {
	TotalConferences  int `json:"total_conferences"`
	ActiveConferences int `json:"active_conferences"`
	TotalParticipants int `json:"total_participants"`
}
