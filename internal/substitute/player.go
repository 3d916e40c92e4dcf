// Package substitute fills unoccupied board seats with scripted players that
// act on a randomized recurring timer until stopped.
package substitute

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

const (
	DefaultMinDelay = 10 * time.Second
	DefaultMaxDelay = 30 * time.Second
)

// Actor is the part of the session orchestrator a substitute drives.
type Actor interface {
	GetSession(id string) (*session.Session, error)
	SendMessage(id string, req session.MessageRequest) (session.Message, error)
	SubmitVote(id string, req session.VoteRequest) error
	AddAgendaItem(id string, req session.AgendaRequest) (session.AgendaItem, error)
}

type Rand interface {
	IntN(n int) int
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

type Settings struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Rand     Rand
	Now      func() time.Time
}

func (s Settings) withDefaults() Settings {
	if s.MinDelay <= 0 {
		s.MinDelay = DefaultMinDelay
	}
	if s.MaxDelay <= 0 {
		s.MaxDelay = DefaultMaxDelay
	}
	if s.MaxDelay < s.MinDelay {
		s.MaxDelay = s.MinDelay
	}
	if s.Rand == nil {
		s.Rand = globalRand{}
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

type Player struct {
	sessionID string
	role      session.Role
	agentID   string
	agentName string
	actor     Actor
	settings  Settings

	mu       sync.Mutex
	timer    *time.Timer
	started  bool
	stopped  bool
	proposed bool
}

func NewPlayer(sessionID string, role session.Role, actor Actor, settings Settings) *Player {
	settings = settings.withDefaults()
	return &Player{
		sessionID: sessionID,
		role:      role,
		agentID:   fmt.Sprintf("ai-%s-%d", role, settings.Now().UnixMilli()),
		agentName: "AI-" + role.Label(),
		actor:     actor,
		settings:  settings,
	}
}

func (p *Player) SessionID() string { return p.sessionID }

func (p *Player) Role() session.Role { return p.role }

func (p *Player) AgentID() string { return p.agentID }

func (p *Player) AgentName() string { return p.agentName }

// Start arms the first action. It has no effect once started or stopped.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	p.scheduleLocked()
	slog.Info("substitute started", "session_id", p.sessionID, "role", p.role, "agent_id", p.agentID)
}

// Stop cancels the pending action; an action already firing may still finish.
// Stop is idempotent.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	slog.Info("substitute stopped", "session_id", p.sessionID, "role", p.role, "agent_id", p.agentID)
}

func (p *Player) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *Player) nextDelay() time.Duration {
	lo, hi := p.settings.MinDelay, p.settings.MaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.settings.Rand.Int64N(int64(hi-lo)))
}

func (p *Player) scheduleLocked() {
	p.timer = time.AfterFunc(p.nextDelay(), p.fire)
}

func (p *Player) fire() {
	p.act()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.scheduleLocked()
}

func (p *Player) act() {
	s, err := p.actor.GetSession(p.sessionID)
	if err != nil {
		slog.Warn("substitute could not load session", "session_id", p.sessionID, "role", p.role, "error", err)
		return
	}
	if s.ParticipantByAgent(p.agentID) == nil {
		return
	}

	switch s.Phase {
	case session.PhaseAgenda:
		p.propose(s)
	case session.PhaseDebate:
		p.speak()
	case session.PhaseVoting:
		p.vote(s)
	}
}

func (p *Player) propose(s *session.Session) {
	p.mu.Lock()
	already := p.proposed
	p.mu.Unlock()
	if already {
		p.speak()
		return
	}

	pr := roleProposal(p.role, s.Quarter)
	_, err := p.actor.AddAgendaItem(p.sessionID, session.AgendaRequest{
		Title:       pr.title,
		Description: pr.description,
		Options:     pr.options,
		ProposedBy:  p.agentID,
	})
	if err != nil {
		slog.Warn("substitute proposal failed", "session_id", p.sessionID, "role", p.role, "error", err)
		return
	}
	p.mu.Lock()
	p.proposed = true
	p.mu.Unlock()
}

func (p *Player) speak() {
	_, err := p.actor.SendMessage(p.sessionID, session.MessageRequest{
		AgentID: p.agentID,
		Content: p.GenerateMessage(),
	})
	if err != nil {
		slog.Warn("substitute message failed", "session_id", p.sessionID, "role", p.role, "error", err)
	}
}

// vote casts a ballot on every open item the player has not voted on yet.
func (p *Player) vote(s *session.Session) {
	me := s.ParticipantByAgent(p.agentID)
	for _, item := range s.Agenda {
		if item.Resolved {
			continue
		}
		if _, voted := item.Votes[me.ID]; voted {
			continue
		}
		err := p.actor.SubmitVote(p.sessionID, session.VoteRequest{
			AgentID:   p.agentID,
			AgendaID:  item.ID,
			Option:    p.GenerateVote(item.Options),
			Reasoning: voteReasons[p.role],
		})
		if errors.Is(err, session.ErrNotVotingPhase) {
			return
		}
		if err != nil {
			slog.Warn("substitute vote failed", "session_id", p.sessionID, "role", p.role, "agenda_id", item.ID, "error", err)
		}
	}
}

// GenerateMessage picks one of the role's canned lines at random.
func (p *Player) GenerateMessage() string {
	pool := rolePhrases[p.role]
	if len(pool) == 0 {
		return fallbackPhrase
	}
	return pool[p.settings.Rand.IntN(len(pool))]
}

// GenerateVote always takes the middle option.
func (p *Player) GenerateVote(options []string) string {
	return GenerateVote(options)
}

func GenerateVote(options []string) string {
	if len(options) == 0 {
		return ""
	}
	if len(options) < 2 {
		return options[0]
	}
	return options[len(options)/2]
}
