package countdown

import (
	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewManager(Durations{
			Waiting:   cfg.CountdownWaiting,
			Agenda:    cfg.CountdownAgenda,
			Debate:    cfg.CountdownDebate,
			Voting:    cfg.CountdownVoting,
			Executing: cfg.CountdownExecuting,
			Feedback:  cfg.CountdownFeedback,
		}, cfg.CountdownTick), nil
	})
}
