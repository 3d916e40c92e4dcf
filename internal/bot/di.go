package bot

import (
	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/fangligamedev/AgentLinkin/internal/countdown"
	"github.com/fangligamedev/AgentLinkin/internal/discord"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		return NewHandler(
			do.MustInvoke[*session.Manager](i),
			do.MustInvoke[*countdown.Manager](i),
			do.MustInvoke[repository.SessionStore](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*Relay, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewRelay(
			do.MustInvoke[*session.Manager](i),
			do.MustInvoke[discord.Client](i),
			c.DiscordChannelID,
		), nil
	})
}
