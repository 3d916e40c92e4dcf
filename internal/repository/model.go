package repository

import (
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusFinished SessionStatus = "finished"
)

func StatusOf(s *session.Session) SessionStatus {
	if s.Phase == session.PhaseFinished {
		return SessionStatusFinished
	}
	return SessionStatusActive
}

// SessionSummary is the listing view of a stored snapshot.
type SessionSummary struct {
	ID          string
	CompanyName string
	CreatedBy   string
	Quarter     int
	Phase       session.Phase
	Status      SessionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
