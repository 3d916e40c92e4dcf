package webhook

import (
	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*HTTPNotifier, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPNotifier(c.ResultWebhookURL), nil
	})
}
