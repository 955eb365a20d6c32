package model

import "time"

// SessionEventQuery filters the session event log. Zero From/To leave that
// side of the time range open.
type SessionEventQuery struct {
	Type   string
	UserID string
	From   time.Time
	To     time.Time
	Page   int
	Limit  int
}
