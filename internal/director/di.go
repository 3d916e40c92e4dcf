package director

import (
	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/fangligamedev/AgentLinkin/internal/countdown"
	"github.com/fangligamedev/AgentLinkin/internal/event"
	"github.com/fangligamedev/AgentLinkin/internal/notify"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/fangligamedev/AgentLinkin/internal/substitute"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Director, error) {
		cfg := do.MustInvoke[*config.Config](i)
		catalog, err := loadCatalog(cfg.EventCatalogPath)
		if err != nil {
			return nil, err
		}
		store, err := do.Invoke[repository.SessionStore](i)
		if err != nil {
			return nil, err
		}
		return New(
			do.MustInvoke[*session.Manager](i),
			do.MustInvoke[*countdown.Manager](i),
			do.MustInvoke[*substitute.Manager](i),
			catalog,
			Options{
				FillSeats: cfg.SubstituteFill,
				Store:     store,
				Notifier:  do.MustInvoke[notify.Notifier](i),
			},
		), nil
	})
}

func loadCatalog(path string) ([]event.Event, error) {
	if path == "" {
		return event.MustDefaultCatalog(), nil
	}
	return event.LoadCatalog(path)
}
