package substitute

import (
	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		sessions := do.MustInvoke[*session.Manager](i)
		return NewManager(sessions, Settings{
			MinDelay: cfg.SubstituteMinDelay,
			MaxDelay: cfg.SubstituteMaxDelay,
		}), nil
	})
}
