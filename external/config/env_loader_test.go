package config

import (
	"testing"
	"time"

	internalconfig "github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, internalconfig.StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.SessionMaxParticipants)
	assert.True(t, cfg.SessionAutoStart)
	assert.Equal(t, 5*time.Minute, cfg.PhaseTimeout())
	assert.Equal(t, 300*time.Second, cfg.CountdownWaiting)
	assert.Equal(t, 180*time.Second, cfg.CountdownVoting)
	assert.Equal(t, time.Second, cfg.CountdownTick)
	assert.Equal(t, 10*time.Second, cfg.SubstituteMinDelay)
	assert.Equal(t, 30*time.Second, cfg.SubstituteMaxDelay)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/board.db")
	t.Setenv("SESSION_MAX_PARTICIPANTS", "4")
	t.Setenv("SESSION_AUTO_START", "false")
	t.Setenv("COUNTDOWN_DEBATE", "90s")
	t.Setenv("DISCORD_CHANNEL_ID", "channel-1")

	cfg, err := parse()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, internalconfig.StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/board.db", cfg.SQLitePath)
	assert.Equal(t, 4, cfg.SessionMaxParticipants)
	assert.False(t, cfg.SessionAutoStart)
	assert.Equal(t, 90*time.Second, cfg.CountdownDebate)
	assert.Equal(t, "channel-1", cfg.DiscordChannelID)
}

func TestParse_RejectsInvalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestParse_RejectsMalformedDuration(t *testing.T) {
	t.Setenv("COUNTDOWN_TICK", "soon")
	_, err := parse()
	assert.Error(t, err)
}
