// Package notify describes the end-of-meeting report sent to outside systems.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

type Resolution struct {
	AgendaID     string `json:"agenda_id"`
	Title        string `json:"title"`
	ProposedBy   string `json:"proposed_by"`
	ChosenOption string `json:"chosen_option"`
	Passed       bool   `json:"passed"`
	Votes        int    `json:"votes"`
}

type Seat struct {
	Role      session.Role            `json:"role"`
	AgentName string                  `json:"agent_name"`
	Kind      session.ParticipantKind `json:"kind"`
}

type Result struct {
	SessionID    string               `json:"session_id"`
	CompanyName  string               `json:"company_name"`
	Quarter      int                  `json:"quarter"`
	StartedAt    time.Time            `json:"started_at"`
	EndedAt      time.Time            `json:"ended_at"`
	Seats        []Seat               `json:"seats"`
	Resolutions  []Resolution         `json:"resolutions"`
	CompanyState session.CompanyState `json:"company_state"`
	MessageCount int                  `json:"message_count"`
}

type Notifier interface {
	NotifySessionResult(ctx context.Context, result Result) error
}

// ResultFrom summarizes a finished session.
func ResultFrom(s *session.Session, endedAt time.Time) Result {
	r := Result{
		SessionID:    s.ID,
		CompanyName:  s.CompanyName,
		Quarter:      s.Quarter,
		StartedAt:    s.CreatedAt,
		EndedAt:      endedAt,
		Seats:        make([]Seat, 0, len(s.Participants)),
		Resolutions:  []Resolution{},
		CompanyState: s.CompanyState,
	}
	for _, p := range s.Participants {
		r.Seats = append(r.Seats, Seat{Role: p.Role, AgentName: p.AgentName, Kind: p.Kind})
	}
	for _, item := range s.Agenda {
		if !item.Resolved {
			continue
		}
		r.Resolutions = append(r.Resolutions, Resolution{
			AgendaID:     item.ID,
			Title:        item.Title,
			ProposedBy:   item.ProposedByRole.Label(),
			ChosenOption: item.ChosenOption,
			Passed:       item.Passed,
			Votes:        len(item.Votes),
		})
	}
	for _, m := range s.Messages {
		if m.Type == session.MessageTypeMessage {
			r.MessageCount++
		}
	}
	return r
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) NotifySessionResult(ctx context.Context, result Result) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifySessionResult(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
