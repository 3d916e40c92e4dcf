package session

import (
	"maps"
	"strings"
	"time"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseAgenda    Phase = "agenda"
	PhaseDebate    Phase = "debate"
	PhaseVoting    Phase = "voting"
	PhaseExecuting Phase = "executing"
	PhaseFeedback  Phase = "feedback"
	PhaseFinished  Phase = "finished"
)

var phaseOrder = []Phase{
	PhaseWaiting,
	PhaseAgenda,
	PhaseDebate,
	PhaseVoting,
	PhaseExecuting,
	PhaseFeedback,
	PhaseFinished,
}

// Phases returns the meeting phases in their natural order.
func Phases() []Phase {
	return append([]Phase(nil), phaseOrder...)
}

// Next returns the phase that follows p. Finished has no successor.
func (p Phase) Next() (Phase, bool) {
	for i, candidate := range phaseOrder {
		if candidate == p && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

func (p Phase) Valid() bool {
	for _, candidate := range phaseOrder {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", newError(ErrInvalidPhase, "unknown phase "+s)
	}
	return p, nil
}

type Role string

const (
	RoleCEO Role = "ceo"
	RoleCTO Role = "cto"
	RoleCMO Role = "cmo"
	RoleCFO Role = "cfo"
)

var roleOrder = []Role{RoleCEO, RoleCTO, RoleCMO, RoleCFO}

// Roles returns the fixed board seats in seating order.
func Roles() []Role {
	return append([]Role(nil), roleOrder...)
}

func (r Role) Valid() bool {
	for _, candidate := range roleOrder {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r Role) Label() string {
	return strings.ToUpper(string(r))
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", newError(ErrInvalidRole, "unknown role "+s)
	}
	return r, nil
}

type ParticipantKind string

const (
	KindHuman      ParticipantKind = "human"
	KindSubstitute ParticipantKind = "substitute"
)

type ParticipantStatus string

const (
	StatusOnline  ParticipantStatus = "online"
	StatusOffline ParticipantStatus = "offline"
	StatusIdle    ParticipantStatus = "idle"
)

type Participant struct {
	ID         string            `json:"id"`
	AgentID    string            `json:"agent_id"`
	AgentName  string            `json:"agent_name"`
	Role       Role              `json:"role"`
	Kind       ParticipantKind   `json:"kind"`
	JoinedAt   time.Time         `json:"joined_at"`
	LastActive time.Time         `json:"last_active"`
	Status     ParticipantStatus `json:"status"`
	HasVoted   bool              `json:"has_voted"`
}

type AgendaItem struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	ProposedBy     string            `json:"proposed_by"`
	ProposedByRole Role              `json:"proposed_by_role"`
	Options        []string          `json:"options"`
	Votes          map[string]string `json:"votes"`
	// VoteOrder lists participant ids in the order of their first vote.
	VoteOrder    []string  `json:"vote_order"`
	Deadline     time.Time `json:"deadline"`
	Resolved     bool      `json:"resolved"`
	ChosenOption string    `json:"chosen_option,omitempty"`
	Passed       bool      `json:"passed"`
}

func (a *AgendaItem) HasOption(option string) bool {
	for _, o := range a.Options {
		if o == option {
			return true
		}
	}
	return false
}

type MessageType string

const (
	MessageTypeMessage MessageType = "message"
	MessageTypeSystem  MessageType = "system"
	MessageTypeVote    MessageType = "vote"
	MessageTypeJoin    MessageType = "join"
	MessageTypeLeave   MessageType = "leave"
)

const SystemAuthorID = "system"

type Message struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"session_id"`
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	AuthorRole Role        `json:"author_role,omitempty"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	ReplyTo    string      `json:"reply_to,omitempty"`
	Mentions   []string    `json:"mentions"`
	Type       MessageType `json:"type"`
}

type CompanyState struct {
	Cash        float64 `json:"cash"`
	Valuation   float64 `json:"valuation"`
	Revenue     float64 `json:"revenue"`
	Employees   float64 `json:"employees"`
	MarketShare float64 `json:"market_share"`
	Morale      float64 `json:"morale"`
}

func DefaultCompanyState() CompanyState {
	return CompanyState{
		Cash:        1000000,
		Valuation:   5000000,
		Revenue:     500000,
		Employees:   10,
		MarketShare: 15,
		Morale:      80,
	}
}

type Config struct {
	MaxParticipants int           `json:"max_participants"`
	PhaseTimeout    time.Duration `json:"phase_timeout"`
	AutoStart       bool          `json:"auto_start"`
	// PhaseDurations overrides PhaseTimeout for the phases it names.
	PhaseDurations map[Phase]time.Duration `json:"phase_durations,omitempty"`
}

// TimeoutFor is how long the given phase is scheduled to last.
func (c Config) TimeoutFor(phase Phase) time.Duration {
	if d, ok := c.PhaseDurations[phase]; ok && d > 0 {
		return d
	}
	return c.PhaseTimeout
}

func DefaultConfig() Config {
	return Config{
		MaxParticipants: 3,
		PhaseTimeout:    5 * time.Minute,
		AutoStart:       true,
	}
}

type Session struct {
	ID                 string        `json:"id"`
	CompanyName        string        `json:"company_name"`
	CreatedBy          string        `json:"created_by"`
	CreatedAt          time.Time     `json:"created_at"`
	Quarter            int           `json:"quarter"`
	Phase              Phase         `json:"phase"`
	PhaseStartedAt     time.Time     `json:"phase_started_at"`
	Participants       []Participant `json:"participants"`
	Agenda             []AgendaItem  `json:"agenda"`
	CurrentAgendaIndex int           `json:"current_agenda_index"`
	Messages           []Message     `json:"messages"`
	CompanyState       CompanyState  `json:"company_state"`
	Config             Config        `json:"config"`
}

// AvailableRoles lists the seats nobody occupies yet.
func (s *Session) AvailableRoles() []Role {
	taken := make(map[Role]struct{}, len(s.Participants))
	for _, p := range s.Participants {
		taken[p.Role] = struct{}{}
	}
	out := make([]Role, 0, len(roleOrder))
	for _, r := range roleOrder {
		if _, ok := taken[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) ParticipantByAgent(agentID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].AgentID == agentID {
			return &s.Participants[i]
		}
	}
	return nil
}

func (s *Session) ParticipantByRole(role Role) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Role == role {
			return &s.Participants[i]
		}
	}
	return nil
}

func (s *Session) AgendaByID(id string) *AgendaItem {
	for i := range s.Agenda {
		if s.Agenda[i].ID == id {
			return &s.Agenda[i]
		}
	}
	return nil
}

// CurrentAgenda returns the item under the agenda pointer, or nil once it runs past the end.
func (s *Session) CurrentAgenda() *AgendaItem {
	if s.CurrentAgendaIndex < 0 || s.CurrentAgendaIndex >= len(s.Agenda) {
		return nil
	}
	return &s.Agenda[s.CurrentAgendaIndex]
}

// Deadline is the advisory end of the current phase.
func (s *Session) Deadline() time.Time {
	return s.PhaseStartedAt.Add(s.Config.TimeoutFor(s.Phase))
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Config.PhaseDurations = maps.Clone(s.Config.PhaseDurations)
	out.Participants = append([]Participant(nil), s.Participants...)
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		m.Mentions = append([]string(nil), m.Mentions...)
		out.Messages[i] = m
	}
	out.Agenda = make([]AgendaItem, len(s.Agenda))
	for i, a := range s.Agenda {
		out.Agenda[i] = a.clone()
	}
	return &out
}

func (a AgendaItem) clone() AgendaItem {
	a.Options = append([]string(nil), a.Options...)
	a.VoteOrder = append([]string(nil), a.VoteOrder...)
	votes := make(map[string]string, len(a.Votes))
	for k, v := range a.Votes {
		votes[k] = v
	}
	a.Votes = votes
	return a
}

type CreateRequest struct {
	CompanyName string
	CreatedBy   string
	Quarter     int
}

type JoinRequest struct {
	AgentID   string
	AgentName string
	Role      Role
	Kind      ParticipantKind
}

type MessageRequest struct {
	AgentID string
	Content string
	ReplyTo string
}

type VoteRequest struct {
	AgentID   string
	AgendaID  string
	Option    string
	Reasoning string
}

type AgendaRequest struct {
	Title       string
	Description string
	Options     []string
	ProposedBy  string
}
