package countdown

import (
	"sync"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

// Manager keeps at most one running countdown per session.
type Manager struct {
	durations Durations
	tick      time.Duration

	mu         sync.Mutex
	countdowns map[string]*Countdown
}

func NewManager(durations Durations, tick time.Duration) *Manager {
	return &Manager{
		durations:  durations,
		tick:       tick,
		countdowns: make(map[string]*Countdown),
	}
}

func (m *Manager) Durations() Durations {
	return m.durations
}

// Start replaces any countdown already running for sessionID.
func (m *Manager) Start(sessionID string, phase session.Phase, onTick func(time.Duration), onComplete func()) *Countdown {
	c := New(sessionID, phase, m.durations.For(phase), m.tick, onTick, onComplete)

	m.mu.Lock()
	previous := m.countdowns[sessionID]
	m.countdowns[sessionID] = c
	m.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	c.Start()
	return c
}

func (m *Manager) Stop(sessionID string) {
	m.mu.Lock()
	c := m.countdowns[sessionID]
	delete(m.countdowns, sessionID)
	m.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}

func (m *Manager) Get(sessionID string) (*Countdown, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.countdowns[sessionID]
	return c, ok
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	all := m.countdowns
	m.countdowns = make(map[string]*Countdown)
	m.mu.Unlock()

	for _, c := range all {
		c.Stop()
	}
}
