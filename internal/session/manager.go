package session

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the single owner of every session's state. Each session has its
// own lock; a public method holds it for the whole operation and publishes the
// resulting updates after releasing it, in the order the writes happened.
// Subscribers may therefore read or change the session they are notified
// about. Sessions are independent of each other.
type Manager struct {
	hub      *Hub
	defaults Config
	now      func() time.Time
	newID    func() string

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	mu         sync.Mutex
	s          *Session
	outbox     []Update
	delivering bool
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

func NewManager(defaults Config, hub *Hub, opts ...Option) *Manager {
	if hub == nil {
		hub = NewHub()
	}
	if defaults.MaxParticipants <= 0 {
		defaults.MaxParticipants = DefaultConfig().MaxParticipants
	}
	if defaults.PhaseTimeout <= 0 {
		defaults.PhaseTimeout = DefaultConfig().PhaseTimeout
	}
	m := &Manager{
		hub:      hub,
		defaults: defaults,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Hub() *Hub {
	return m.hub
}

// Subscribe registers fn for updates of one session.
func (m *Manager) Subscribe(sessionID string, fn Subscriber) func() {
	return m.hub.Subscribe(sessionID, fn)
}

func (m *Manager) CreateSession(req CreateRequest) *Session {
	quarter := req.Quarter
	if quarter <= 0 {
		quarter = 1
	}
	now := m.now()
	s := &Session{
		ID:             m.newID(),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		CreatedBy:      req.CreatedBy,
		CreatedAt:      now,
		Quarter:        quarter,
		Phase:          PhaseWaiting,
		PhaseStartedAt: now,
		Participants:   []Participant{},
		Agenda:         []AgendaItem{},
		Messages:       []Message{},
		CompanyState:   DefaultCompanyState(),
		Config:         m.defaults,
	}
	e := &entry{s: s}

	e.mu.Lock()
	defer m.release(e)

	m.mu.Lock()
	m.sessions[s.ID] = e
	m.mu.Unlock()

	m.addSystemMessage(s, MessageTypeSystem, createdText(s.CompanyName, s.Quarter))
	slog.Info("session created", "session_id", s.ID, "company", s.CompanyName, "created_by", s.CreatedBy)
	m.publish(e, UpdateSessionCreated, SessionCreatedPayload{
		CompanyName: s.CompanyName,
		CreatedBy:   s.CreatedBy,
		Quarter:     s.Quarter,
	})
	return s.Clone()
}

func (m *Manager) GetSession(id string) (*Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Clone(), nil
}

// ListSessions returns every session that has not finished, newest first.
func (m *Manager) ListSessions() []*Session {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]*Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.s.Phase != PhaseFinished {
			out = append(out, e.s.Clone())
		}
		e.mu.Unlock()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *Manager) JoinSession(id string, req JoinRequest) (Participant, error) {
	if strings.TrimSpace(req.AgentID) == "" || strings.TrimSpace(req.AgentName) == "" {
		return Participant{}, newError(ErrInvalidRequest, "agent id and agent name are required")
	}
	if !req.Role.Valid() {
		return Participant{}, newError(ErrInvalidRole, "unknown role "+string(req.Role))
	}
	e, err := m.lookup(id)
	if err != nil {
		return Participant{}, err
	}
	e.mu.Lock()
	defer m.release(e)
	s := e.s

	if s.Phase != PhaseWaiting {
		return Participant{}, ErrSessionAlreadyStarted
	}
	if s.ParticipantByRole(req.Role) != nil {
		return Participant{}, newError(ErrRoleTaken, "role "+string(req.Role)+" already taken")
	}
	if s.ParticipantByAgent(req.AgentID) != nil {
		return Participant{}, ErrAgentAlreadyJoined
	}

	kind := req.Kind
	if kind == "" {
		kind = KindHuman
	}
	now := m.now()
	p := Participant{
		ID:         m.newID(),
		AgentID:    req.AgentID,
		AgentName:  req.AgentName,
		Role:       req.Role,
		Kind:       kind,
		JoinedAt:   now,
		LastActive: now,
		Status:     StatusOnline,
	}
	s.Participants = append(s.Participants, p)
	m.addSystemMessage(s, MessageTypeJoin, joinedText(p))
	slog.Info("participant joined", "session_id", s.ID, "agent_id", p.AgentID, "role", p.Role, "kind", p.Kind, "participants", len(s.Participants))

	if s.Config.AutoStart && len(s.Participants) >= s.Config.MaxParticipants {
		m.start(e)
	}
	m.publish(e, UpdateParticipantJoin, ParticipantPayload{Participant: p})
	return p, nil
}

// StartSession moves a waiting session into the agenda phase.
func (m *Manager) StartSession(id string) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer m.release(e)
	if e.s.Phase != PhaseWaiting {
		return ErrSessionAlreadyStarted
	}
	m.start(e)
	return nil
}

// Advance performs the natural next transition of the phase sequence. From
// waiting it behaves exactly like StartSession.
func (m *Manager) Advance(id string) (Phase, error) {
	e, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer m.release(e)
	return m.advance(e)
}

// AdvanceFrom is Advance guarded by the phase the caller last saw. It fails
// with ErrPhaseChanged when the session has moved on since.
func (m *Manager) AdvanceFrom(id string, expected Phase) (Phase, error) {
	e, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer m.release(e)
	if e.s.Phase != expected {
		return e.s.Phase, newError(ErrPhaseChanged, "session is in "+string(e.s.Phase)+", not "+string(expected))
	}
	return m.advance(e)
}

func (m *Manager) advance(e *entry) (Phase, error) {
	s := e.s
	if s.Phase == PhaseWaiting {
		m.start(e)
		return s.Phase, nil
	}
	next, ok := s.Phase.Next()
	if !ok {
		return s.Phase, newError(ErrInvalidPhase, "session already finished")
	}
	m.transition(e, next)
	return next, nil
}

// TransitionPhase forces the session into phase regardless of the natural
// order. It is an operator and test entry point; game flow goes through
// StartSession and Advance.
func (m *Manager) TransitionPhase(id string, phase Phase) error {
	if !phase.Valid() {
		return newError(ErrInvalidPhase, "unknown phase "+string(phase))
	}
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer m.release(e)
	m.transition(e, phase)
	return nil
}

func (m *Manager) SendMessage(id string, req MessageRequest) (Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return Message{}, newError(ErrInvalidRequest, "content is required")
	}
	e, err := m.lookup(id)
	if err != nil {
		return Message{}, err
	}
	e.mu.Lock()
	defer m.release(e)
	s := e.s

	p := s.ParticipantByAgent(req.AgentID)
	if p == nil {
		return Message{}, ErrAgentNotInSession
	}
	now := m.now()
	msg := Message{
		ID:         m.newID(),
		SessionID:  s.ID,
		AuthorID:   p.ID,
		AuthorName: p.AgentName,
		AuthorRole: p.Role,
		Content:    req.Content,
		Timestamp:  now,
		ReplyTo:    req.ReplyTo,
		Mentions:   extractMentions(req.Content),
		Type:       MessageTypeMessage,
	}
	s.Messages = append(s.Messages, msg)
	p.LastActive = now

	m.publish(e, UpdateNewMessage, MessagePayload{Message: msg})
	return msg, nil
}

func (m *Manager) SubmitVote(id string, req VoteRequest) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer m.release(e)
	s := e.s

	if s.Phase != PhaseVoting {
		return ErrNotVotingPhase
	}
	p := s.ParticipantByAgent(req.AgentID)
	if p == nil {
		return ErrAgentNotInSession
	}
	item := s.AgendaByID(req.AgendaID)
	if item == nil {
		return ErrAgendaNotFound
	}
	if !item.HasOption(req.Option) {
		return newError(ErrInvalidOption, "option "+req.Option+" is not offered")
	}
	if item.Resolved {
		return ErrAgendaResolved
	}

	if item.Votes == nil {
		item.Votes = make(map[string]string)
	}
	if _, voted := item.Votes[p.ID]; !voted {
		item.VoteOrder = append(item.VoteOrder, p.ID)
	}
	item.Votes[p.ID] = req.Option
	p.HasVoted = true
	p.LastActive = m.now()
	m.addSystemMessage(s, MessageTypeVote, votedText(*p))
	slog.Debug("vote recorded", "session_id", s.ID, "agenda_id", item.ID, "agent_id", p.AgentID, "option", req.Option, "reasoning", req.Reasoning)

	everyone := allVoted(item, s.Participants)
	var resolved *AgendaItem
	if everyone {
		if m.resolveItem(s, item) {
			resolved = item
			m.advanceAgenda(s)
		}
	}

	votes := make(map[string]string, len(item.Votes))
	for k, v := range item.Votes {
		votes[k] = v
	}
	m.publish(e, UpdateVote, VotePayload{AgendaID: item.ID, Votes: votes, AllVoted: everyone})
	if resolved != nil {
		m.publish(e, UpdateVoteResolved, AgendaPayload{Item: resolved.clone()})
	}
	return nil
}

func (m *Manager) AddAgendaItem(id string, req AgendaRequest) (AgendaItem, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return AgendaItem{}, newError(ErrInvalidRequest, "title is required")
	}
	options, err := normalizeOptions(req.Options)
	if err != nil {
		return AgendaItem{}, err
	}
	e, err := m.lookup(id)
	if err != nil {
		return AgendaItem{}, err
	}
	e.mu.Lock()
	defer m.release(e)
	s := e.s

	if s.Phase != PhaseAgenda {
		return AgendaItem{}, ErrNotAgendaPhase
	}
	p := s.ParticipantByAgent(req.ProposedBy)
	if p == nil {
		return AgendaItem{}, ErrAgentNotInSession
	}
	now := m.now()
	item := AgendaItem{
		ID:             m.newID(),
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		ProposedBy:     p.ID,
		ProposedByRole: p.Role,
		Options:        options,
		Votes:          map[string]string{},
		Deadline:       now.Add(s.Config.PhaseTimeout),
	}
	s.Agenda = append(s.Agenda, item)
	p.LastActive = now
	m.addSystemMessage(s, MessageTypeSystem, agendaAddedText(*p, item))

	m.publish(e, UpdateAgendaAdded, AgendaPayload{Item: item.clone()})
	return item.clone(), nil
}

// ApplyCompanyChange replaces the company state with fn's result. It is the
// only way state changes after creation: event effects and round settlement
// both go through here.
func (m *Manager) ApplyCompanyChange(id, reason string, fn func(CompanyState) CompanyState) (CompanyState, error) {
	e, err := m.lookup(id)
	if err != nil {
		return CompanyState{}, err
	}
	e.mu.Lock()
	defer m.release(e)
	s := e.s

	s.CompanyState = fn(s.CompanyState)
	m.addSystemMessage(s, MessageTypeSystem, companyUpdateText(reason, s.CompanyState))
	m.publish(e, UpdateCompany, CompanyPayload{State: s.CompanyState, Reason: reason})
	return s.CompanyState, nil
}

// SetParticipantStatus changes presence only; the seat stays assigned.
func (m *Manager) SetParticipantStatus(id, agentID string, status ParticipantStatus) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer m.release(e)
	s := e.s

	p := s.ParticipantByAgent(agentID)
	if p == nil {
		return ErrAgentNotInSession
	}
	previous := p.Status
	p.Status = status
	if status == StatusOffline && previous != StatusOffline {
		m.addSystemMessage(s, MessageTypeLeave, leftText(*p))
		m.publish(e, UpdateParticipantLeave, ParticipantPayload{Participant: *p})
	}
	return nil
}

// Announce posts a system message on behalf of the host and publishes it as
// new-message. Messages the manager writes itself are not published.
func (m *Manager) Announce(id, content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, newError(ErrInvalidRequest, "content is required")
	}
	e, err := m.lookup(id)
	if err != nil {
		return Message{}, err
	}
	e.mu.Lock()
	defer m.release(e)
	s := e.s

	m.addSystemMessage(s, MessageTypeSystem, content)
	msg := s.Messages[len(s.Messages)-1]
	m.publish(e, UpdateNewMessage, MessagePayload{Message: msg})
	return msg, nil
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (m *Manager) start(e *entry) {
	s := e.s
	m.setPhase(s, PhaseAgenda)
	m.addSystemMessage(s, MessageTypeSystem, phaseText(PhaseAgenda))
	m.addSystemMessage(s, MessageTypeSystem, startedText(s.Quarter))
	m.addSystemMessage(s, MessageTypeSystem, participantsText(s.Participants))
	slog.Info("session started", "session_id", s.ID, "participants", len(s.Participants))
	m.publish(e, UpdatePhaseChange, PhaseChangePayload{Phase: PhaseAgenda, Previous: PhaseWaiting, Deadline: s.Deadline()})
}

func (m *Manager) transition(e *entry, phase Phase) {
	s := e.s
	previous := s.Phase
	var resolved []AgendaItem
	if previous == PhaseVoting && phase != PhaseVoting {
		for i := range s.Agenda {
			if m.resolveItem(s, &s.Agenda[i]) {
				resolved = append(resolved, s.Agenda[i].clone())
			}
		}
	}

	m.setPhase(s, phase)
	if phase == PhaseDebate || phase == PhaseVoting {
		s.CurrentAgendaIndex = firstUnresolved(s.Agenda)
	}
	m.addSystemMessage(s, MessageTypeSystem, phaseText(phase))
	slog.Info("session phase changed", "session_id", s.ID, "phase", phase, "previous", previous)

	for _, item := range resolved {
		m.publish(e, UpdateVoteResolved, AgendaPayload{Item: item})
	}
	m.publish(e, UpdatePhaseChange, PhaseChangePayload{Phase: phase, Previous: previous, Deadline: s.Deadline()})
	if phase == PhaseFinished {
		m.publish(e, UpdateSessionEnded, SessionEndedPayload{
			Quarter:      s.Quarter,
			CompanyState: s.CompanyState,
			Resolutions:  resolutions(s.Agenda),
		})
	}
}

func (m *Manager) setPhase(s *Session, phase Phase) {
	s.Phase = phase
	s.PhaseStartedAt = m.now()
	for i := range s.Participants {
		s.Participants[i].HasVoted = false
	}
}

func (m *Manager) resolveItem(s *Session, item *AgendaItem) bool {
	t, ok := resolve(item)
	if !ok {
		return false
	}
	m.addSystemMessage(s, MessageTypeSystem, voteResultText(*item, t.Count))
	slog.Info("agenda item resolved", "session_id", s.ID, "agenda_id", item.ID, "chosen_option", item.ChosenOption, "passed", item.Passed, "votes", t.Total)
	return true
}

// advanceAgenda moves the pointer past resolved items and clears the per-item
// vote flags for the next one.
func (m *Manager) advanceAgenda(s *Session) {
	s.CurrentAgendaIndex = firstUnresolved(s.Agenda)
	for i := range s.Participants {
		s.Participants[i].HasVoted = false
	}
}

func (m *Manager) addSystemMessage(s *Session, typ MessageType, content string) {
	s.Messages = append(s.Messages, Message{
		ID:         m.newID(),
		SessionID:  s.ID,
		AuthorID:   SystemAuthorID,
		AuthorName: systemAuthorName,
		Content:    content,
		Timestamp:  m.now(),
		Mentions:   []string{},
		Type:       typ,
	})
}

// publish queues an update for delivery once the session lock is released.
func (m *Manager) publish(e *entry, typ UpdateType, data any) {
	e.outbox = append(e.outbox, Update{
		Type:      typ,
		SessionID: e.s.ID,
		Timestamp: m.now(),
		Data:      data,
	})
}

// release unlocks e and delivers its queued updates outside the lock. At most
// one goroutine delivers for a session at a time, so subscribers see updates in
// the order they were produced. Updates produced while another goroutine is
// delivering are left to that goroutine.
func (m *Manager) release(e *entry) {
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.outbox) > 0 {
		u := e.outbox[0]
		e.outbox = e.outbox[1:]
		e.mu.Unlock()
		m.hub.Publish(u)
		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
}

func firstUnresolved(agenda []AgendaItem) int {
	for i := range agenda {
		if !agenda[i].Resolved {
			return i
		}
	}
	return len(agenda)
}

func resolutions(agenda []AgendaItem) []AgendaItem {
	out := make([]AgendaItem, 0, len(agenda))
	for _, item := range agenda {
		if item.Resolved {
			out = append(out, item.clone())
		}
	}
	return out
}

func normalizeOptions(options []string) ([]string, error) {
	out := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, newError(ErrInvalidRequest, "options must not be empty")
		}
		if _, dup := seen[o]; dup {
			return nil, newError(ErrInvalidRequest, "duplicate option "+o)
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	if len(out) < 2 {
		return nil, newError(ErrInvalidRequest, "at least two options are required")
	}
	return out, nil
}
