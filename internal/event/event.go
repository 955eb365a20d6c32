package event

import "time"

type Type string

const (
	TypeSignedIn       Type = "session.signed_in"
	TypeSignedUp       Type = "session.signed_up"
	TypeSignedOut      Type = "session.signed_out"
	TypeSessionExpired Type = "session.expired"
	TypeRefreshed      Type = "session.refreshed"
	TypeLocaleChanged  Type = "session.locale_changed"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Locale     string    `json:"locale,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(e Event)
}

type Bus interface {
	Publisher
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
