package session

import (
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Hub, error) {
		return NewHub(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		hub := do.MustInvoke[*Hub](i)
		return NewManager(Config{
			MaxParticipants: cfg.SessionMaxParticipants,
			PhaseTimeout:    cfg.PhaseTimeout(),
			AutoStart:       cfg.SessionAutoStart,
			PhaseDurations: map[Phase]time.Duration{
				PhaseWaiting:   cfg.CountdownWaiting,
				PhaseAgenda:    cfg.CountdownAgenda,
				PhaseDebate:    cfg.CountdownDebate,
				PhaseVoting:    cfg.CountdownVoting,
				PhaseExecuting: cfg.CountdownExecuting,
				PhaseFeedback:  cfg.CountdownFeedback,
			},
		}, hub), nil
	})
}
