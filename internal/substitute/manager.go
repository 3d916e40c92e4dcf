package substitute

import (
	"sync"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

// Manager holds at most one substitute per (session, role) seat.
type Manager struct {
	actor    Actor
	settings Settings

	mu      sync.Mutex
	players map[string]*Player
}

func NewManager(actor Actor, settings Settings) *Manager {
	return &Manager{
		actor:    actor,
		settings: settings.withDefaults(),
		players:  make(map[string]*Player),
	}
}

func key(sessionID string, role session.Role) string {
	return sessionID + "-" + string(role)
}

// Add starts a substitute for the seat, or returns the one already there.
// created reports whether a new player was started.
func (m *Manager) Add(sessionID string, role session.Role) (p *Player, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(sessionID, role)
	if existing, ok := m.players[k]; ok {
		return existing, false
	}
	p = NewPlayer(sessionID, role, m.actor, m.settings)
	m.players[k] = p
	p.Start()
	return p, true
}

func (m *Manager) Remove(sessionID string, role session.Role) {
	m.mu.Lock()
	k := key(sessionID, role)
	p := m.players[k]
	delete(m.players, k)
	m.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}

// RemoveAll stops every substitute of the session and returns them.
func (m *Manager) RemoveAll(sessionID string) []*Player {
	var removed []*Player

	m.mu.Lock()
	for k, p := range m.players {
		if p.sessionID == sessionID {
			removed = append(removed, p)
			delete(m.players, k)
		}
	}
	m.mu.Unlock()

	for _, p := range removed {
		p.Stop()
	}
	return removed
}

func (m *Manager) Has(sessionID string, role session.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.players[key(sessionID, role)]
	return ok
}

func (m *Manager) Get(sessionID string, role session.Role) (*Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[key(sessionID, role)]
	return p, ok
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}
