package event

import (
	"math/rand/v2"
	"sync"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

// Rand is the randomness the engine draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type active struct {
	event     Event
	remaining int
}

// Engine samples events from a catalog and tracks the ones still in effect.
// One engine serves one company.
type Engine struct {
	catalog []Event
	rng     Rand

	mu     sync.Mutex
	order  []string
	active map[string]*active
}

func NewEngine(catalog []Event, rng Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{
		catalog: catalog,
		rng:     rng,
		active:  make(map[string]*active),
	}
}

// TriggerEvent samples the catalog for phase. Each phase-eligible event is
// drawn independently against its probability and one of the hits is picked
// uniformly. The pick becomes active. ok is false when nothing was drawn.
func (e *Engine) TriggerEvent(phase session.Phase) (Event, bool) {
	return e.trigger(func(ev Event) bool {
		return ev.Conditions.allowsPhase(phase)
	})
}

// TriggerEventFor is TriggerEvent with the state thresholds also enforced.
func (e *Engine) TriggerEventFor(phase session.Phase, state session.CompanyState) (Event, bool) {
	return e.trigger(func(ev Event) bool {
		return ev.Conditions.allowsPhase(phase) && ev.Conditions.allowsState(state)
	})
}

func (e *Engine) trigger(eligible func(Event) bool) (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var hits []Event
	for _, ev := range e.catalog {
		if !eligible(ev) {
			continue
		}
		if e.rng.Float64() < ev.Probability {
			hits = append(hits, ev)
		}
	}
	if len(hits) == 0 {
		return Event{}, false
	}
	picked := hits[e.rng.IntN(len(hits))]
	rounds := picked.Duration
	if rounds <= 0 {
		rounds = 1
	}
	if _, exists := e.active[picked.ID]; !exists {
		e.order = append(e.order, picked.ID)
	}
	e.active[picked.ID] = &active{event: picked, remaining: rounds}
	return picked, true
}

// NextRound ages every active event by one round and returns those that expired.
func (e *Engine) NextRound() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var expired []Event
	kept := e.order[:0]
	for _, id := range e.order {
		a := e.active[id]
		a.remaining--
		if a.remaining <= 0 {
			expired = append(expired, a.event)
			delete(e.active, id)
			continue
		}
		kept = append(kept, id)
	}
	e.order = kept
	return expired
}

func (e *Engine) ActiveEvents() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.active[id].event)
	}
	return out
}

func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.order = nil
	e.active = make(map[string]*active)
}
