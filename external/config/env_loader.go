package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env                    string        `env:"ENV" envDefault:"production"`
	StoreDriver            string        `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL            string        `env:"DATABASE_URL"`
	SQLitePath             string        `env:"SQLITE_PATH" envDefault:"corpsim.db"`
	SessionMaxParticipants int           `env:"SESSION_MAX_PARTICIPANTS" envDefault:"3"`
	SessionAutoStart       bool          `env:"SESSION_AUTO_START" envDefault:"true"`
	PhaseTimeoutMin        int           `env:"PHASE_TIMEOUT_MIN" envDefault:"5"`
	CountdownWaiting       time.Duration `env:"COUNTDOWN_WAITING" envDefault:"300s"`
	CountdownAgenda        time.Duration `env:"COUNTDOWN_AGENDA" envDefault:"600s"`
	CountdownDebate        time.Duration `env:"COUNTDOWN_DEBATE" envDefault:"600s"`
	CountdownVoting        time.Duration `env:"COUNTDOWN_VOTING" envDefault:"180s"`
	CountdownExecuting     time.Duration `env:"COUNTDOWN_EXECUTING" envDefault:"60s"`
	CountdownFeedback      time.Duration `env:"COUNTDOWN_FEEDBACK" envDefault:"300s"`
	CountdownTick          time.Duration `env:"COUNTDOWN_TICK" envDefault:"1s"`
	SubstituteFill         bool          `env:"SUBSTITUTE_FILL" envDefault:"true"`
	SubstituteMinDelay     time.Duration `env:"SUBSTITUTE_MIN_DELAY" envDefault:"10s"`
	SubstituteMaxDelay     time.Duration `env:"SUBSTITUTE_MAX_DELAY" envDefault:"30s"`
	EventCatalogPath       string        `env:"EVENT_CATALOG_PATH"`
	DiscordToken           string        `env:"DISCORD_TOKEN"`
	DiscordGuildID         string        `env:"DISCORD_GUILD_ID"`
	DiscordChannelID       string        `env:"DISCORD_CHANNEL_ID"`
	ResultWebhookURL       string        `env:"RESULT_WEBHOOK_URL"`
	SlackBotToken          string        `env:"SLACK_BOT_TOKEN"`
	SlackChannelID         string        `env:"SLACK_CHANNEL_ID"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*internalconfig.Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
		slog.Debug("no .env file found, using process environment")
	}
	return parse()
}

func parse() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                    raw.Env,
		StoreDriver:            raw.StoreDriver,
		DatabaseURL:            raw.DatabaseURL,
		SQLitePath:             raw.SQLitePath,
		SessionMaxParticipants: raw.SessionMaxParticipants,
		SessionAutoStart:       raw.SessionAutoStart,
		PhaseTimeoutMin:        raw.PhaseTimeoutMin,
		CountdownWaiting:       raw.CountdownWaiting,
		CountdownAgenda:        raw.CountdownAgenda,
		CountdownDebate:        raw.CountdownDebate,
		CountdownVoting:        raw.CountdownVoting,
		CountdownExecuting:     raw.CountdownExecuting,
		CountdownFeedback:      raw.CountdownFeedback,
		CountdownTick:          raw.CountdownTick,
		SubstituteFill:         raw.SubstituteFill,
		SubstituteMinDelay:     raw.SubstituteMinDelay,
		SubstituteMaxDelay:     raw.SubstituteMaxDelay,
		EventCatalogPath:       raw.EventCatalogPath,
		DiscordToken:           raw.DiscordToken,
		DiscordGuildID:         raw.DiscordGuildID,
		DiscordChannelID:       raw.DiscordChannelID,
		ResultWebhookURL:       raw.ResultWebhookURL,
		SlackBotToken:          raw.SlackBotToken,
		SlackChannelID:         raw.SlackChannelID,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
