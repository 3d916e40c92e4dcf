package repository

import (
	"context"
	"errors"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

var ErrNotFound = errors.New("session snapshot not found")

// SessionStore keeps point-in-time copies of sessions. The orchestrator stays
// the authority on live state; a store is written after the fact only.
type SessionStore interface {
	SaveSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, id string) (*session.Session, error)
	// ListSessions returns summaries newest first. An empty status lists all.
	ListSessions(ctx context.Context, status SessionStatus) ([]SessionSummary, error)
	Close() error
}
