package main

import (
	discordimpl "github.com/fangligamedev/AgentLinkin/external/discord"
	repositoryimpl "github.com/fangligamedev/AgentLinkin/external/repository"
	slackimpl "github.com/fangligamedev/AgentLinkin/external/slack"
	webhookimpl "github.com/fangligamedev/AgentLinkin/external/webhook"
	"github.com/fangligamedev/AgentLinkin/internal/bot"
	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/fangligamedev/AgentLinkin/internal/countdown"
	"github.com/fangligamedev/AgentLinkin/internal/director"
	"github.com/fangligamedev/AgentLinkin/internal/notify"
	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/fangligamedev/AgentLinkin/internal/substitute"
	"github.com/samber/do/v2"
)

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	discordimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	slackimpl.RegisterDI(injector)
	do.Provide(injector, func(i do.Injector) (notify.Notifier, error) {
		return notify.Multi{
			do.MustInvoke[*webhookimpl.HTTPNotifier](i),
			do.MustInvoke[*slackimpl.Notifier](i),
		}, nil
	})
	session.RegisterDI(injector)
	countdown.RegisterDI(injector)
	substitute.RegisterDI(injector)
	director.RegisterDI(injector)
	bot.RegisterDI(injector)

	return injector
}
