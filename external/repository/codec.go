package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
)

// sessionRow is the column layout shared by the SQL stores.
type sessionRow struct {
	ID             string
	CompanyName    string
	CreatedBy      string
	Quarter        int
	Phase          string
	Status         string
	AgendaIndex    int
	Participants   []byte
	Agenda         []byte
	Messages       []byte
	CompanyState   []byte
	Config         []byte
	CreatedAt      time.Time
	PhaseStartedAt time.Time
	UpdatedAt      time.Time
}

func encodeSession(s *session.Session, now time.Time) (sessionRow, error) {
	row := sessionRow{
		ID:             s.ID,
		CompanyName:    s.CompanyName,
		CreatedBy:      s.CreatedBy,
		Quarter:        s.Quarter,
		Phase:          string(s.Phase),
		Status:         string(repository.StatusOf(s)),
		AgendaIndex:    s.CurrentAgendaIndex,
		CreatedAt:      s.CreatedAt,
		PhaseStartedAt: s.PhaseStartedAt,
		UpdatedAt:      now,
	}
	var err error
	if row.Participants, err = json.Marshal(s.Participants); err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode participants: %w", err)
	}
	if row.Agenda, err = json.Marshal(s.Agenda); err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode agenda: %w", err)
	}
	if row.Messages, err = json.Marshal(s.Messages); err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode messages: %w", err)
	}
	if row.CompanyState, err = json.Marshal(s.CompanyState); err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode company state: %w", err)
	}
	if row.Config, err = json.Marshal(s.Config); err != nil {
		return sessionRow{}, fmt.Errorf("failed to encode config: %w", err)
	}
	return row, nil
}

func decodeSession(row sessionRow) (*session.Session, error) {
	s := &session.Session{
		ID:                 row.ID,
		CompanyName:        row.CompanyName,
		CreatedBy:          row.CreatedBy,
		CreatedAt:          row.CreatedAt,
		Quarter:            row.Quarter,
		Phase:              session.Phase(row.Phase),
		PhaseStartedAt:     row.PhaseStartedAt,
		CurrentAgendaIndex: row.AgendaIndex,
	}
	if err := json.Unmarshal(row.Participants, &s.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	if err := json.Unmarshal(row.Agenda, &s.Agenda); err != nil {
		return nil, fmt.Errorf("failed to decode agenda: %w", err)
	}
	if err := json.Unmarshal(row.Messages, &s.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if err := json.Unmarshal(row.CompanyState, &s.CompanyState); err != nil {
		return nil, fmt.Errorf("failed to decode company state: %w", err)
	}
	if err := json.Unmarshal(row.Config, &s.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return s, nil
}

func summaryOf(row sessionRow) repository.SessionSummary {
	return repository.SessionSummary{
		ID:          row.ID,
		CompanyName: row.CompanyName,
		CreatedBy:   row.CreatedBy,
		Quarter:     row.Quarter,
		Phase:       session.Phase(row.Phase),
		Status:      repository.SessionStatus(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
