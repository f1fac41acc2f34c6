package model

import "time"

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Sent       Status = "sent"
	Failed     Status = "failed"
)

// ValidReport reports whether s is a status a dispatcher may report back.
func ValidReport(s Status) bool {
	return s == Sent || s == Failed
}

// Job is one queued outbound SMS. Status only moves forward
// (pending -> processing -> sent/failed); the sole exception is the
// recovery reclaim of stalled processing jobs back to pending.
type Job struct {
	ID           int64      `json:"id"`
	Phone        string     `json:"phone"`
	Message      string     `json:"message"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	ClaimedAt    *time.Time `json:"claimedAt,omitempty"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
}
