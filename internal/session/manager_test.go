package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type updateRecorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *updateRecorder) record(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *updateRecorder) types() []UpdateType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]UpdateType, 0, len(r.updates))
	for _, u := range r.updates {
		out = append(out, u.Type)
	}
	return out
}

func (r *updateRecorder) last(typ UpdateType) (Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.updates) - 1; i >= 0; i-- {
		if r.updates[i].Type == typ {
			return r.updates[i], true
		}
	}
	return Update{}, false
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	var mu sync.Mutex
	seq := 0
	return NewManager(cfg, NewHub(),
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
}

func join(t *testing.T, m *Manager, sessionID, agentID string, role Role) Participant {
	t.Helper()
	p, err := m.JoinSession(sessionID, JoinRequest{AgentID: agentID, AgentName: "Agent " + agentID, Role: role})
	require.NoError(t, err)
	return p
}

func mustGet(t *testing.T, m *Manager, id string) *Session {
	t.Helper()
	s, err := m.GetSession(id)
	require.NoError(t, err)
	return s
}

func manualConfig(maxParticipants int) Config {
	return Config{MaxParticipants: maxParticipants, PhaseTimeout: 5 * time.Minute, AutoStart: false}
}

func TestCreateSessionStartsWaiting(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, DefaultConfig())
	rec := &updateRecorder{}
	m.Hub().SubscribeAll(rec.record)

	s := m.CreateSession(CreateRequest{CompanyName: "Acme", CreatedBy: "user-1"})

	assert.Equal(t, PhaseWaiting, s.Phase)
	assert.Equal(t, 1, s.Quarter)
	assert.Empty(t, s.Participants)
	assert.Equal(t, DefaultCompanyState(), s.CompanyState)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, SystemAuthorID, s.Messages[0].AuthorID)
	assert.Equal(t, []UpdateType{UpdateSessionCreated}, rec.types())
}

func TestJoinSessionEnforcesUniqueness(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(4))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})

	join(t, m, s.ID, "a1", RoleCEO)

	_, err := m.JoinSession(s.ID, JoinRequest{AgentID: "a2", AgentName: "Two", Role: RoleCEO})
	require.ErrorIs(t, err, ErrRoleTaken)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = m.JoinSession(s.ID, JoinRequest{AgentID: "a1", AgentName: "One", Role: RoleCTO})
	require.ErrorIs(t, err, ErrAgentAlreadyJoined)

	join(t, m, s.ID, "a2", RoleCTO)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 2)
	roles := map[Role]bool{}
	agents := map[string]bool{}
	for _, p := range got.Participants {
		assert.False(t, roles[p.Role])
		assert.False(t, agents[p.AgentID])
		roles[p.Role] = true
		agents[p.AgentID] = true
		assert.Equal(t, StatusOnline, p.Status)
		assert.Equal(t, KindHuman, p.Kind)
	}
	assert.Equal(t, []Role{RoleCMO, RoleCFO}, got.AvailableRoles())
}

func TestJoinSessionFailures(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})

	_, err := m.JoinSession("missing", JoinRequest{AgentID: "a1", AgentName: "One", Role: RoleCEO})
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = m.JoinSession(s.ID, JoinRequest{AgentID: "a1", AgentName: "One", Role: "cto-ish"})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = m.JoinSession(s.ID, JoinRequest{AgentName: "One", Role: RoleCEO})
	require.ErrorIs(t, err, ErrInvalidRequest)

	join(t, m, s.ID, "a1", RoleCEO)
	require.NoError(t, m.StartSession(s.ID))

	_, err = m.JoinSession(s.ID, JoinRequest{AgentID: "a2", AgentName: "Two", Role: RoleCTO})
	require.ErrorIs(t, err, ErrSessionAlreadyStarted)
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestAutoStartWhenQuotaReached(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, DefaultConfig())
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	join(t, m, s.ID, "a1", RoleCEO)
	join(t, m, s.ID, "a2", RoleCTO)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, got.Phase)

	join(t, m, s.ID, "a3", RoleCMO)

	got, err = m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseAgenda, got.Phase)
	assert.Equal(t, []UpdateType{
		UpdateParticipantJoin,
		UpdateParticipantJoin,
		UpdatePhaseChange,
		UpdateParticipantJoin,
	}, rec.types())

	u, ok := rec.last(UpdatePhaseChange)
	require.True(t, ok)
	payload := u.Data.(PhaseChangePayload)
	assert.Equal(t, PhaseAgenda, payload.Phase)
	assert.Equal(t, PhaseWaiting, payload.Previous)
}

func TestStartSessionOnlyFromWaiting(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	join(t, m, s.ID, "a1", RoleCEO)

	require.NoError(t, m.StartSession(s.ID))
	require.ErrorIs(t, m.StartSession(s.ID), ErrSessionAlreadyStarted)
	require.ErrorIs(t, m.StartSession("missing"), ErrSessionNotFound)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseAgenda, got.Phase)
	n := len(got.Messages)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, "Entering phase: AGENDA", got.Messages[n-3].Content)
	assert.Equal(t, "Board meeting started! Q1 strategy discussion", got.Messages[n-2].Content)
	assert.Contains(t, got.Messages[n-1].Content, "Agent a1(CEO)")
}

func TestAdvanceFollowsNaturalOrder(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})

	var seen []Phase
	for {
		phase, err := m.Advance(s.ID)
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidPhase)
			break
		}
		seen = append(seen, phase)
	}
	assert.Equal(t, Phases()[1:], seen)
}

func TestAdvanceFromRequiresExpectedPhase(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	require.NoError(t, m.TransitionPhase(s.ID, PhaseDebate))

	phase, err := m.AdvanceFrom(s.ID, PhaseAgenda)
	require.ErrorIs(t, err, ErrPhaseChanged)
	assert.Equal(t, PhaseDebate, phase)
	assert.Equal(t, KindInvalidState, KindOf(err))

	phase, err = m.AdvanceFrom(s.ID, PhaseDebate)
	require.NoError(t, err)
	assert.Equal(t, PhaseVoting, phase)

	_, err = m.AdvanceFrom("missing", PhaseVoting)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPhaseChangeDeadlineUsesPhaseDuration(t *testing.T) {
	t.Parallel()
	cfg := manualConfig(3)
	cfg.PhaseDurations = map[Phase]time.Duration{PhaseDebate: 10 * time.Minute, PhaseVoting: 3 * time.Minute}
	m := newTestManager(t, cfg)
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	require.NoError(t, m.TransitionPhase(s.ID, PhaseDebate))
	u, ok := rec.last(UpdatePhaseChange)
	require.True(t, ok)
	got := mustGet(t, m, s.ID)
	assert.Equal(t, got.PhaseStartedAt.Add(10*time.Minute), u.Data.(PhaseChangePayload).Deadline)

	require.NoError(t, m.TransitionPhase(s.ID, PhaseVoting))
	got = mustGet(t, m, s.ID)
	assert.Equal(t, got.PhaseStartedAt.Add(3*time.Minute), got.Deadline())

	require.NoError(t, m.TransitionPhase(s.ID, PhaseExecuting))
	got = mustGet(t, m, s.ID)
	assert.Equal(t, got.PhaseStartedAt.Add(5*time.Minute), got.Deadline())
}

func setupVoting(t *testing.T, m *Manager, agents []string, options []string) (*Session, AgendaItem) {
	t.Helper()
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	roles := Roles()
	for i, agent := range agents {
		join(t, m, s.ID, agent, roles[i])
	}
	require.NoError(t, m.StartSession(s.ID))
	item, err := m.AddAgendaItem(s.ID, AgendaRequest{
		Title:      "Pricing",
		Options:    options,
		ProposedBy: agents[0],
	})
	require.NoError(t, err)
	require.NoError(t, m.TransitionPhase(s.ID, PhaseVoting))
	return s, item
}

func vote(t *testing.T, m *Manager, sessionID, agentID, agendaID, option string) {
	t.Helper()
	require.NoError(t, m.SubmitVote(sessionID, VoteRequest{AgentID: agentID, AgendaID: agendaID, Option: option}))
}

func TestSubmitVoteResolvesByPlurality(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s, item := setupVoting(t, m, []string{"a1", "a2", "a3"}, []string{"A", "B", "C"})
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	vote(t, m, s.ID, "a1", item.ID, "A")
	vote(t, m, s.ID, "a2", item.ID, "A")

	u, ok := rec.last(UpdateVote)
	require.True(t, ok)
	assert.False(t, u.Data.(VotePayload).AllVoted)

	vote(t, m, s.ID, "a3", item.ID, "B")

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	resolved := got.AgendaByID(item.ID)
	require.NotNil(t, resolved)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "A", resolved.ChosenOption)
	assert.True(t, resolved.Passed)
	for _, option := range resolved.Votes {
		assert.True(t, resolved.HasOption(option))
	}
	assert.Equal(t, 1, got.CurrentAgendaIndex)

	u, ok = rec.last(UpdateVote)
	require.True(t, ok)
	assert.True(t, u.Data.(VotePayload).AllVoted)
	assert.Len(t, u.Data.(VotePayload).Votes, 3)
	_, ok = rec.last(UpdateVoteResolved)
	assert.True(t, ok)
}

func TestSubmitVoteTieGoesToFirstVotedOption(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(2))
	s, item := setupVoting(t, m, []string{"a1", "a2"}, []string{"A", "B"})

	vote(t, m, s.ID, "a1", item.ID, "B")
	vote(t, m, s.ID, "a2", item.ID, "A")

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	resolved := got.AgendaByID(item.ID)
	assert.Equal(t, "B", resolved.ChosenOption)
	// two votes cast: threshold is 1, so a 1-1 split still passes
	assert.True(t, resolved.Passed)
}

func TestTallyThreshold(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		votes  []string
		winner string
		passed bool
	}{
		{name: "single vote", votes: []string{"A"}, winner: "A", passed: true},
		{name: "two way split", votes: []string{"A", "B"}, winner: "A", passed: true},
		{name: "three way split", votes: []string{"C", "A", "B"}, winner: "C", passed: false},
		{name: "four votes two two", votes: []string{"B", "A", "A", "B"}, winner: "B", passed: true},
		{name: "four votes spread", votes: []string{"A", "B", "C", "C"}, winner: "C", passed: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := &AgendaItem{Options: []string{"A", "B", "C"}, Votes: map[string]string{}}
			for i, v := range tc.votes {
				pid := fmt.Sprintf("p%d", i)
				item.Votes[pid] = v
				item.VoteOrder = append(item.VoteOrder, pid)
			}
			tally, ok := tallyVotes(item)
			require.True(t, ok)
			assert.Equal(t, tc.winner, tally.Winner)
			assert.Equal(t, tc.passed, tally.Passed)
		})
	}
}

func TestSubmitVoteRejectsResolvedItem(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(2))
	s, item := setupVoting(t, m, []string{"a1", "a2"}, []string{"A", "B"})

	vote(t, m, s.ID, "a1", item.ID, "A")
	vote(t, m, s.ID, "a2", item.ID, "A")

	err := m.SubmitVote(s.ID, VoteRequest{AgentID: "a2", AgendaID: item.ID, Option: "B"})
	require.ErrorIs(t, err, ErrAgendaResolved)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	resolved := got.AgendaByID(item.ID)
	assert.Equal(t, "A", resolved.ChosenOption)
	assert.True(t, resolved.Passed)
	assert.Equal(t, "A", resolved.Votes[got.ParticipantByAgent("a2").ID])
}

func TestSubmitVoteFailures(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(2))
	s, item := setupVoting(t, m, []string{"a1", "a2"}, []string{"A", "B"})

	cases := []struct {
		name string
		req  VoteRequest
		want *Error
	}{
		{name: "unknown agent", req: VoteRequest{AgentID: "ghost", AgendaID: item.ID, Option: "A"}, want: ErrAgentNotInSession},
		{name: "unknown agenda", req: VoteRequest{AgentID: "a1", AgendaID: "nope", Option: "A"}, want: ErrAgendaNotFound},
		{name: "unknown option", req: VoteRequest{AgentID: "a1", AgendaID: item.ID, Option: "Z"}, want: ErrInvalidOption},
	}
	for _, tc := range cases {
		err := m.SubmitVote(s.ID, tc.req)
		require.ErrorIs(t, err, tc.want, tc.name)
	}

	require.NoError(t, m.TransitionPhase(s.ID, PhaseExecuting))
	err := m.SubmitVote(s.ID, VoteRequest{AgentID: "a1", AgendaID: item.ID, Option: "A"})
	require.ErrorIs(t, err, ErrNotVotingPhase)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AgendaByID(item.ID).Votes)
}

func TestPhaseTransitionResetsHasVoted(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s, item := setupVoting(t, m, []string{"a1", "a2", "a3"}, []string{"A", "B"})
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	vote(t, m, s.ID, "a1", item.ID, "B")
	vote(t, m, s.ID, "a2", item.ID, "A")

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.True(t, got.ParticipantByAgent("a1").HasVoted)

	require.NoError(t, m.TransitionPhase(s.ID, PhaseExecuting))

	got, err = m.GetSession(s.ID)
	require.NoError(t, err)
	for _, p := range got.Participants {
		assert.False(t, p.HasVoted, p.AgentID)
	}
	resolved := got.AgendaByID(item.ID)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "B", resolved.ChosenOption)
	assert.Equal(t, []UpdateType{UpdateVote, UpdateVote, UpdateVoteResolved, UpdatePhaseChange}, rec.types())
}

func TestLeavingVotingKeepsUnvotedItemsOpen(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(2))
	s, item := setupVoting(t, m, []string{"a1", "a2"}, []string{"A", "B"})

	require.NoError(t, m.TransitionPhase(s.ID, PhaseExecuting))

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.False(t, got.AgendaByID(item.ID).Resolved)
	assert.Empty(t, got.AgendaByID(item.ID).ChosenOption)
}

func TestTransitionToFinishedPublishesSessionEnded(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(2))
	s, item := setupVoting(t, m, []string{"a1", "a2"}, []string{"A", "B"})
	vote(t, m, s.ID, "a1", item.ID, "A")
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	require.NoError(t, m.TransitionPhase(s.ID, PhaseFinished))

	u, ok := rec.last(UpdateSessionEnded)
	require.True(t, ok)
	payload := u.Data.(SessionEndedPayload)
	require.Len(t, payload.Resolutions, 1)
	assert.Equal(t, "A", payload.Resolutions[0].ChosenOption)
	assert.Empty(t, m.ListSessions())

	require.ErrorIs(t, m.TransitionPhase(s.ID, "lunch"), ErrInvalidPhase)
}

func TestSendMessage(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	p := join(t, m, s.ID, "a1", RoleCFO)
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	msg, err := m.SendMessage(s.ID, MessageRequest{AgentID: "a1", Content: "@ceo @cto runway is 6 months", ReplyTo: "m-0"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, msg.AuthorID)
	assert.Equal(t, RoleCFO, msg.AuthorRole)
	assert.Equal(t, []string{"ceo", "cto"}, msg.Mentions)
	assert.Equal(t, "m-0", msg.ReplyTo)
	assert.Equal(t, MessageTypeMessage, msg.Type)
	assert.Equal(t, []UpdateType{UpdateNewMessage}, rec.types())

	_, err = m.SendMessage(s.ID, MessageRequest{AgentID: "ghost", Content: "hi"})
	require.ErrorIs(t, err, ErrAgentNotInSession)
	_, err = m.SendMessage("missing", MessageRequest{AgentID: "a1", Content: "hi"})
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.SendMessage(s.ID, MessageRequest{AgentID: "a1", Content: "  "})
	require.ErrorIs(t, err, ErrInvalidRequest)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Equal(t, msg, got.Messages[len(got.Messages)-1])
}

func TestAddAgendaItem(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	join(t, m, s.ID, "a1", RoleCEO)

	_, err := m.AddAgendaItem(s.ID, AgendaRequest{Title: "Hire", Options: []string{"Yes", "No"}, ProposedBy: "a1"})
	require.ErrorIs(t, err, ErrNotAgendaPhase)

	require.NoError(t, m.StartSession(s.ID))

	_, err = m.AddAgendaItem(s.ID, AgendaRequest{Title: "Hire", Options: []string{"Yes"}, ProposedBy: "a1"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = m.AddAgendaItem(s.ID, AgendaRequest{Title: "Hire", Options: []string{"Yes", "Yes"}, ProposedBy: "a1"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = m.AddAgendaItem(s.ID, AgendaRequest{Title: "", Options: []string{"Yes", "No"}, ProposedBy: "a1"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = m.AddAgendaItem(s.ID, AgendaRequest{Title: "Hire", Options: []string{"Yes", "No"}, ProposedBy: "ghost"})
	require.ErrorIs(t, err, ErrAgentNotInSession)

	item, err := m.AddAgendaItem(s.ID, AgendaRequest{Title: " Hire ", Description: "two engineers", Options: []string{"Yes", "No"}, ProposedBy: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "Hire", item.Title)
	assert.Equal(t, RoleCEO, item.ProposedByRole)
	assert.False(t, item.Deadline.IsZero())

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	require.Len(t, got.Agenda, 1)
}

func TestGetSessionReturnsIsolatedCopy(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	join(t, m, s.ID, "a1", RoleCEO)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	got.Participants[0].Role = RoleCFO
	got.Messages = nil

	again, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleCEO, again.Participants[0].Role)
	assert.NotEmpty(t, again.Messages)
}

func TestListSessionsNewestFirst(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	first := m.CreateSession(CreateRequest{CompanyName: "First"})
	second := m.CreateSession(CreateRequest{CompanyName: "Second"})
	third := m.CreateSession(CreateRequest{CompanyName: "Third"})
	require.NoError(t, m.TransitionPhase(second.ID, PhaseFinished))

	list := m.ListSessions()
	require.Len(t, list, 2)
	assert.Equal(t, third.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestApplyCompanyChange(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	state, err := m.ApplyCompanyChange(s.ID, "bonus", func(cs CompanyState) CompanyState {
		cs.Cash += 100
		return cs
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000100, state.Cash, 0.001)

	u, ok := rec.last(UpdateCompany)
	require.True(t, ok)
	assert.Equal(t, "bonus", u.Data.(CompanyPayload).Reason)

	_, err = m.ApplyCompanyChange("missing", "x", func(cs CompanyState) CompanyState { return cs })
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSetParticipantStatusPublishesLeaveOnce(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	join(t, m, s.ID, "a1", RoleCEO)
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	require.NoError(t, m.SetParticipantStatus(s.ID, "a1", StatusOffline))
	require.NoError(t, m.SetParticipantStatus(s.ID, "a1", StatusOffline))
	require.ErrorIs(t, m.SetParticipantStatus(s.ID, "ghost", StatusIdle), ErrAgentNotInSession)

	assert.Equal(t, []UpdateType{UpdateParticipantLeave}, rec.types())
	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, got.ParticipantByAgent("a1").Status)
	assert.Equal(t, []Role{RoleCTO, RoleCMO, RoleCFO}, got.AvailableRoles())
}

func TestAnnouncePublishesSystemMessage(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(3))
	s := m.CreateSession(CreateRequest{CompanyName: "Acme"})
	rec := &updateRecorder{}
	m.Subscribe(s.ID, rec.record)

	msg, err := m.Announce(s.ID, "Event ended: Viral launch")
	require.NoError(t, err)
	assert.Equal(t, MessageTypeSystem, msg.Type)
	assert.Equal(t, SystemAuthorID, msg.AuthorID)

	u, ok := rec.last(UpdateNewMessage)
	require.True(t, ok)
	assert.Equal(t, msg, u.Data.(MessagePayload).Message)

	_, err = m.Announce(s.ID, " ")
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = m.Announce("missing", "hello")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentVotesSerializePerSession(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, manualConfig(4))
	agents := []string{"a1", "a2", "a3", "a4"}
	s, item := setupVoting(t, m, agents, []string{"A", "B"})

	var wg sync.WaitGroup
	errs := make(chan error, len(agents))
	for _, agent := range agents {
		wg.Add(1)
		go func(agent string) {
			defer wg.Done()
			errs <- m.SubmitVote(s.ID, VoteRequest{AgentID: agent, AgendaID: item.ID, Option: "A"})
		}(agent)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	resolved := got.AgendaByID(item.ID)
	assert.True(t, resolved.Resolved)
	assert.Len(t, resolved.Votes, 4)
	assert.Len(t, resolved.VoteOrder, 4)
}

func TestErrorMatchesByCode(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("join: %w", newError(ErrRoleTaken, "role ceo already taken"))
	assert.True(t, errors.Is(err, ErrRoleTaken))
	assert.False(t, errors.Is(err, ErrAgentAlreadyJoined))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
