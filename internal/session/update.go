package session

import "time"

type UpdateType string

const (
	UpdateSessionCreated   UpdateType = "session-created"
	UpdatePhaseChange      UpdateType = "phase-change"
	UpdateNewMessage       UpdateType = "new-message"
	UpdateVote             UpdateType = "vote-update"
	UpdateVoteResolved     UpdateType = "vote-resolved"
	UpdateAgendaAdded      UpdateType = "agenda-added"
	UpdateParticipantJoin  UpdateType = "participant-join"
	UpdateParticipantLeave UpdateType = "participant-leave"
	UpdateCompany          UpdateType = "company-update"
	UpdateSessionEnded     UpdateType = "session-ended"
)

// Update is an ephemeral notification about one state change. Data holds one
// of the *Payload types below, matching Type.
type Update struct {
	Type      UpdateType `json:"type"`
	SessionID string     `json:"session_id"`
	Timestamp time.Time  `json:"timestamp"`
	Data      any        `json:"data"`
}

type SessionCreatedPayload struct {
	CompanyName string `json:"company_name"`
	CreatedBy   string `json:"created_by"`
	Quarter     int    `json:"quarter"`
}

type PhaseChangePayload struct {
	Phase    Phase     `json:"phase"`
	Previous Phase     `json:"previous"`
	Deadline time.Time `json:"deadline"`
}

type MessagePayload struct {
	Message Message `json:"message"`
}

type VotePayload struct {
	AgendaID string            `json:"agenda_id"`
	Votes    map[string]string `json:"votes"`
	AllVoted bool              `json:"all_voted"`
}

type AgendaPayload struct {
	Item AgendaItem `json:"item"`
}

type ParticipantPayload struct {
	Participant Participant `json:"participant"`
}

type CompanyPayload struct {
	State  CompanyState `json:"state"`
	Reason string       `json:"reason"`
}

type SessionEndedPayload struct {
	Quarter      int          `json:"quarter"`
	CompanyState CompanyState `json:"company_state"`
	Resolutions  []AgendaItem `json:"resolutions"`
}
