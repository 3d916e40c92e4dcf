// Package director runs meetings on the clock: it arms a countdown for every
// phase, seats substitutes when the wait runs out, settles the quarter and
// reports the result.
package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/countdown"
	"github.com/fangligamedev/AgentLinkin/internal/event"
	"github.com/fangligamedev/AgentLinkin/internal/market"
	"github.com/fangligamedev/AgentLinkin/internal/notify"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/fangligamedev/AgentLinkin/internal/substitute"
)

const externalCallTimeout = 10 * time.Second

type Options struct {
	// FillSeats seats substitutes in open roles when the waiting phase expires.
	FillSeats bool
	Store     repository.SessionStore
	Notifier  notify.Notifier
	Scorer    market.Scorer
	EventRand event.Rand
	Now       func() time.Time
}

type Director struct {
	sessions    *session.Manager
	countdowns  *countdown.Manager
	substitutes *substitute.Manager
	catalog     []event.Event
	opts        Options

	mu          sync.Mutex
	engines     map[string]*event.Engine
	queue       *session.Queue
	unsubscribe func()
}

func New(sessions *session.Manager, countdowns *countdown.Manager, substitutes *substitute.Manager, catalog []event.Event, opts Options) *Director {
	if opts.Scorer == nil {
		opts.Scorer = market.ShareScorer{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Director{
		sessions:    sessions,
		countdowns:  countdowns,
		substitutes: substitutes,
		catalog:     catalog,
		opts:        opts,
		engines:     make(map[string]*event.Engine),
	}
}

// Start subscribes to every session. Updates are handled one at a time on the
// director's own goroutine.
func (d *Director) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue != nil {
		return
	}
	d.queue = session.NewQueue(d.handle)
	d.unsubscribe = d.sessions.Hub().SubscribeAll(d.queue.Push)
	slog.Info("meeting director started", "fill_seats", d.opts.FillSeats)
}

// Stop unsubscribes, drains queued updates and cancels every countdown.
func (d *Director) Stop() {
	d.mu.Lock()
	queue, unsubscribe := d.queue, d.unsubscribe
	d.queue, d.unsubscribe = nil, nil
	d.mu.Unlock()
	if queue == nil {
		return
	}
	unsubscribe()
	queue.Close()
	d.countdowns.StopAll()
}

func (d *Director) handle(u session.Update) {
	switch u.Type {
	case session.UpdateSessionCreated:
		d.arm(u.SessionID, session.PhaseWaiting)
	case session.UpdatePhaseChange:
		payload, ok := u.Data.(session.PhaseChangePayload)
		if !ok {
			return
		}
		d.enter(u.SessionID, payload.Phase)
	case session.UpdateSessionEnded:
		d.finish(u.SessionID)
	}
}

func (d *Director) enter(sessionID string, phase session.Phase) {
	switch phase {
	case session.PhaseExecuting:
		d.settle(sessionID)
	case session.PhaseFeedback:
		d.review(sessionID)
	case session.PhaseFinished:
		d.countdowns.Stop(sessionID)
		return
	}
	d.save(sessionID)
	d.arm(sessionID, phase)
}

func (d *Director) arm(sessionID string, phase session.Phase) {
	d.countdowns.Start(sessionID, phase, nil, func() {
		d.expire(sessionID, phase)
	})
}

// expire runs on the countdown goroutine. A countdown that outlived its phase
// does nothing.
func (d *Director) expire(sessionID string, phase session.Phase) {
	s, err := d.sessions.GetSession(sessionID)
	if err != nil {
		slog.Warn("countdown expired for unknown session", "session_id", sessionID, "phase", phase, "error", err)
		return
	}
	if s.Phase != phase {
		return
	}
	slog.Info("phase countdown expired", "session_id", sessionID, "phase", phase)

	if phase == session.PhaseWaiting {
		d.openMeeting(s)
		return
	}
	if _, err := d.sessions.AdvanceFrom(sessionID, phase); err != nil {
		if errors.Is(err, session.ErrPhaseChanged) {
			slog.Debug("phase moved before countdown expired", "session_id", sessionID, "phase", phase)
			return
		}
		slog.Error("failed to advance session", "session_id", sessionID, "phase", phase, "error", err)
	}
}

func (d *Director) openMeeting(s *session.Session) {
	if d.opts.FillSeats {
		d.fillSeats(s)
	}
	current, err := d.sessions.GetSession(s.ID)
	if err != nil {
		return
	}
	if current.Phase != session.PhaseWaiting {
		return
	}
	if len(current.Participants) == 0 {
		slog.Info("nobody joined, waiting again", "session_id", s.ID)
		d.arm(s.ID, session.PhaseWaiting)
		return
	}
	if err := d.sessions.StartSession(s.ID); err != nil && !errors.Is(err, session.ErrSessionAlreadyStarted) {
		slog.Error("failed to start session", "session_id", s.ID, "error", err)
	}
}

// fillSeats seats substitutes in open roles until the quota is reached.
func (d *Director) fillSeats(s *session.Session) {
	seated := len(s.Participants)
	for _, role := range s.AvailableRoles() {
		if seated >= s.Config.MaxParticipants {
			return
		}
		player, created := d.substitutes.Add(s.ID, role)
		if !created {
			continue
		}
		_, err := d.sessions.JoinSession(s.ID, session.JoinRequest{
			AgentID:   player.AgentID(),
			AgentName: player.AgentName(),
			Role:      role,
			Kind:      session.KindSubstitute,
		})
		if err != nil {
			d.substitutes.Remove(s.ID, role)
			if errors.Is(err, session.ErrSessionAlreadyStarted) {
				return
			}
			slog.Warn("substitute could not take seat", "session_id", s.ID, "role", role, "error", err)
			continue
		}
		seated++
	}
}

func (d *Director) engine(sessionID string) *event.Engine {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.engines[sessionID]
	if !ok {
		e = event.NewEngine(d.catalog, d.opts.EventRand)
		d.engines[sessionID] = e
	}
	return e
}

func (d *Director) dropEngine(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.engines, sessionID)
}

// settle runs the quarter's market round, then lays one market event over the
// result so the event's share and revenue effects stand.
func (d *Director) settle(sessionID string) {
	s, err := d.sessions.GetSession(sessionID)
	if err != nil {
		return
	}

	passed := passedResolutions(s.Agenda)
	var result market.Result
	settled, err := d.sessions.ApplyCompanyChange(sessionID, "Market round", func(cs session.CompanyState) session.CompanyState {
		next, r := market.Round(d.opts.Scorer, s.ID, s.CompanyName, cs, passed)
		result = r
		return next
	})
	if err != nil {
		slog.Error("failed to settle market round", "session_id", sessionID, "error", err)
		return
	}
	slog.Info("market round settled", "session_id", sessionID, "passed", passed, "share", result.Share, "revenue", result.Revenue)

	ev, ok := d.engine(sessionID).TriggerEventFor(session.PhaseExecuting, settled)
	if !ok {
		return
	}
	slog.Info("market event triggered", "session_id", sessionID, "event_id", ev.ID)
	if _, err := d.sessions.ApplyCompanyChange(sessionID, "Event: "+ev.Name, func(cs session.CompanyState) session.CompanyState {
		return event.ApplyEffects(cs, ev)
	}); err != nil {
		slog.Error("failed to apply event", "session_id", sessionID, "event_id", ev.ID, "error", err)
	}
}

// review ages active events and announces the ones that ran out.
func (d *Director) review(sessionID string) {
	for _, ev := range d.engine(sessionID).NextRound() {
		if _, err := d.sessions.Announce(sessionID, fmt.Sprintf("Event ended: %s", ev.Name)); err != nil {
			slog.Error("failed to announce expired event", "session_id", sessionID, "event_id", ev.ID, "error", err)
		}
	}
}

// finish tears down the session's substitutes and countdown, then saves and
// reports the result.
func (d *Director) finish(sessionID string) {
	d.countdowns.Stop(sessionID)
	d.dropEngine(sessionID)
	for _, p := range d.substitutes.RemoveAll(sessionID) {
		if err := d.sessions.SetParticipantStatus(sessionID, p.AgentID(), session.StatusOffline); err != nil && !errors.Is(err, session.ErrAgentNotInSession) {
			slog.Error("failed to release substitute seat", "session_id", sessionID, "role", p.Role(), "error", err)
		}
	}
	d.save(sessionID)

	if d.opts.Notifier == nil {
		return
	}
	s, err := d.sessions.GetSession(sessionID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), externalCallTimeout)
	defer cancel()
	if err := d.opts.Notifier.NotifySessionResult(ctx, notify.ResultFrom(s, d.opts.Now())); err != nil {
		slog.Error("failed to send session result", "session_id", sessionID, "error", err)
		return
	}
	slog.Info("session result sent", "session_id", sessionID)
}

func (d *Director) save(sessionID string) {
	if d.opts.Store == nil {
		return
	}
	s, err := d.sessions.GetSession(sessionID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), externalCallTimeout)
	defer cancel()
	if err := d.opts.Store.SaveSession(ctx, s); err != nil {
		slog.Error("failed to save session snapshot", "session_id", sessionID, "phase", s.Phase, "error", err)
	}
}

func passedResolutions(agenda []session.AgendaItem) int {
	n := 0
	for _, item := range agenda {
		if item.Resolved && item.Passed {
			n++
		}
	}
	return n
}
