package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/bot"
	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/fangligamedev/AgentLinkin/internal/director"
	discordpkg "github.com/fangligamedev/AgentLinkin/internal/discord"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

const discordConnectTimeout = 20 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord boardroom bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireDiscord(); err != nil {
				return err
			}
			slog.Info("startup: building dependency graph")
			return runBot(cmd.Context(), cfg, setupDI(cfg))
		},
	}
}

func runBot(parent context.Context, cfg *config.Config, injector do.Injector) error {
	store, err := do.Invoke[repository.SessionStore](injector)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("snapshot store close failed", "error", err)
		}
	}()
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve discord client: %w", err)
	}
	d, err := do.Invoke[*director.Director](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve meeting director: %w", err)
	}
	handler := do.MustInvoke[*bot.Handler](injector)
	relay := do.MustInvoke[*bot.Relay](injector)

	ctx, cancel := context.WithTimeout(parent, discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		return fmt.Errorf("discord connect failed: %w", err)
	}
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()
	slog.Info("startup: discord connected")

	if err := dc.UpsertGuildSlashCommands(cfg.DiscordGuildID, bot.SlashCommandDefinitions()); err != nil {
		return fmt.Errorf("failed to upsert slash commands for guild %s: %w", cfg.DiscordGuildID, err)
	}

	d.Start()
	defer d.Stop()
	relay.Start()
	defer relay.Stop()
	dc.RegisterSlashCommandHandler(handler.HandleSlashCommand)
	slog.Info("discord handlers registered", "guild_id", cfg.DiscordGuildID, "channel_id", cfg.DiscordChannelID)

	sigCtx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	slog.Info("shutting down")
	return nil
}
