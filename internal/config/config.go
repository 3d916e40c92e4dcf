package config

import (
	"fmt"
	"time"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type Config struct {
	Env                    string
	StoreDriver            string
	DatabaseURL            string
	SQLitePath             string
	SessionMaxParticipants int
	SessionAutoStart       bool
	PhaseTimeoutMin        int
	CountdownWaiting       time.Duration
	CountdownAgenda        time.Duration
	CountdownDebate        time.Duration
	CountdownVoting        time.Duration
	CountdownExecuting     time.Duration
	CountdownFeedback      time.Duration
	CountdownTick          time.Duration
	SubstituteFill         bool
	SubstituteMinDelay     time.Duration
	SubstituteMaxDelay     time.Duration
	EventCatalogPath       string
	DiscordToken           string
	DiscordGuildID         string
	DiscordChannelID       string
	ResultWebhookURL       string
	SlackBotToken          string
	SlackChannelID         string
}

func (c *Config) Validate() error {
	if c.SessionMaxParticipants <= 0 {
		return fmt.Errorf("SESSION_MAX_PARTICIPANTS must be positive, got %d", c.SessionMaxParticipants)
	}
	if c.PhaseTimeoutMin <= 0 {
		return fmt.Errorf("PHASE_TIMEOUT_MIN must be positive, got %d", c.PhaseTimeoutMin)
	}
	for _, d := range c.durationChecks() {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	if c.SubstituteMinDelay > c.SubstituteMaxDelay {
		return fmt.Errorf("SUBSTITUTE_MIN_DELAY (%s) must not exceed SUBSTITUTE_MAX_DELAY (%s)", c.SubstituteMinDelay, c.SubstituteMaxDelay)
	}
	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", StoreDriverSQLite)
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver)
	}
	if c.SlackBotToken != "" && c.SlackChannelID == "" {
		return fmt.Errorf("SLACK_CHANNEL_ID is required when SLACK_BOT_TOKEN is set")
	}
	return nil
}

// RequireDiscord checks the settings only the Discord front end needs.
func (c *Config) RequireDiscord() error {
	for _, req := range c.discordFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	return nil
}

func (c *Config) PhaseTimeout() time.Duration {
	return time.Duration(c.PhaseTimeoutMin) * time.Minute
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) discordFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DISCORD_GUILD_ID", value: c.DiscordGuildID},
		{name: "DISCORD_CHANNEL_ID", value: c.DiscordChannelID},
	}
}

type durationField struct {
	name  string
	value time.Duration
}

func (c *Config) durationChecks() []durationField {
	return []durationField{
		{name: "COUNTDOWN_WAITING", value: c.CountdownWaiting},
		{name: "COUNTDOWN_AGENDA", value: c.CountdownAgenda},
		{name: "COUNTDOWN_DEBATE", value: c.CountdownDebate},
		{name: "COUNTDOWN_VOTING", value: c.CountdownVoting},
		{name: "COUNTDOWN_EXECUTING", value: c.CountdownExecuting},
		{name: "COUNTDOWN_FEEDBACK", value: c.CountdownFeedback},
		{name: "COUNTDOWN_TICK", value: c.CountdownTick},
		{name: "SUBSTITUTE_MIN_DELAY", value: c.SubstituteMinDelay},
		{name: "SUBSTITUTE_MAX_DELAY", value: c.SubstituteMaxDelay},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
