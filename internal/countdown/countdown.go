// Package countdown runs advisory per-phase deadline timers. Expiry is reported
// to a callback; nothing here changes session state.
package countdown

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

const (
	fallbackDuration = 300 * time.Second
	runningLowAt     = 30 * time.Second
)

type Durations struct {
	Waiting   time.Duration
	Agenda    time.Duration
	Debate    time.Duration
	Voting    time.Duration
	Executing time.Duration
	Feedback  time.Duration
}

func DefaultDurations() Durations {
	return Durations{
		Waiting:   300 * time.Second,
		Agenda:    600 * time.Second,
		Debate:    600 * time.Second,
		Voting:    180 * time.Second,
		Executing: 60 * time.Second,
		Feedback:  300 * time.Second,
	}
}

// For returns the configured length of phase, falling back to five minutes
// for phases without a positive setting.
func (d Durations) For(phase session.Phase) time.Duration {
	var v time.Duration
	switch phase {
	case session.PhaseWaiting:
		v = d.Waiting
	case session.PhaseAgenda:
		v = d.Agenda
	case session.PhaseDebate:
		v = d.Debate
	case session.PhaseVoting:
		v = d.Voting
	case session.PhaseExecuting:
		v = d.Executing
	case session.PhaseFeedback:
		v = d.Feedback
	}
	if v <= 0 {
		return fallbackDuration
	}
	return v
}

type Countdown struct {
	sessionID  string
	phase      session.Phase
	total      time.Duration
	tick       time.Duration
	onTick     func(remaining time.Duration)
	onComplete func()

	mu        sync.Mutex
	remaining time.Duration
	started   bool
	stopOnce  sync.Once
	stop      chan struct{}
}

func New(sessionID string, phase session.Phase, total, tick time.Duration, onTick func(time.Duration), onComplete func()) *Countdown {
	if tick <= 0 {
		tick = time.Second
	}
	return &Countdown{
		sessionID:  sessionID,
		phase:      phase,
		total:      total,
		tick:       tick,
		onTick:     onTick,
		onComplete: onComplete,
		remaining:  total,
		stop:       make(chan struct{}),
	}
}

// Start begins ticking. Calling it more than once has no effect.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	slog.Debug("countdown started", "session_id", c.sessionID, "phase", c.phase, "total", c.total)
	go c.run()
}

// Stop cancels the countdown without firing onComplete. It is idempotent.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		c.remaining -= c.tick
		if c.remaining < 0 {
			c.remaining = 0
		}
		remaining := c.remaining
		c.mu.Unlock()

		select {
		case <-c.stop:
			return
		default:
		}
		if c.onTick != nil {
			c.onTick(remaining)
		}
		if remaining <= 0 {
			c.Stop()
			slog.Debug("countdown completed", "session_id", c.sessionID, "phase", c.phase)
			if c.onComplete != nil {
				c.onComplete()
			}
			return
		}
	}
}

func (c *Countdown) SessionID() string { return c.sessionID }

func (c *Countdown) Phase() session.Phase { return c.phase }

func (c *Countdown) Total() time.Duration { return c.total }

func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Progress is the elapsed share of the countdown in percent.
func (c *Countdown) Progress() float64 {
	if c.total <= 0 {
		return 100
	}
	remaining := c.Remaining()
	return float64(c.total-remaining) / float64(c.total) * 100
}

func (c *Countdown) FormatTime() string {
	return FormatTime(c.Remaining())
}

func (c *Countdown) IsRunningLow() bool {
	return c.Remaining() <= runningLowAt
}
