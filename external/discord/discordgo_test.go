package discord

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/fangligamedev/AgentLinkin/internal/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestSession(t *testing.T, rt roundTripFunc) *discordgo.Session {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	if rt != nil {
		s.Client = &http.Client{Transport: rt}
	}
	return s
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type recordedCall struct {
	method string
	path   string
	body   string
}

type callRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *callRecorder) record(req *http.Request) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{method: req.Method, path: req.URL.Path, body: body})
}

func (r *callRecorder) snapshot() []recordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedCall(nil), r.calls...)
}

func TestGetBotUserID_UsesStateCacheFirst(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected REST call: %s %s", req.Method, req.URL.String())
		return nil, nil
	})
	s.State.User = &discordgo.User{ID: "bot-1"}

	c := &Client{session: s}
	id, err := c.GetBotUserID()
	require.NoError(t, err)
	assert.Equal(t, "bot-1", id)
}

func TestGetBotUserID_FallsBackToREST(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		assert.True(t, strings.HasSuffix(req.URL.Path, "/users/@me"), req.URL.Path)
		return jsonResponse(`{"id":"bot-rest","username":"corpsim"}`), nil
	})

	c := &Client{session: s}
	id, err := c.GetBotUserID()
	require.NoError(t, err)
	assert.Equal(t, "bot-rest", id)
}

func TestSendChannelMessage_PostsToChannel(t *testing.T) {
	rec := &callRecorder{}
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		rec.record(req)
		return jsonResponse(`{"id":"m1","channel_id":"c1","content":"hello"}`), nil
	})

	c := &Client{session: s}
	require.NoError(t, c.SendChannelMessage("c1", "hello"))

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.True(t, strings.HasSuffix(calls[0].path, "/channels/c1/messages"), calls[0].path)
	assert.Contains(t, calls[0].body, `"content":"hello"`)
}

func TestSendChannelMessage_RequiresSession(t *testing.T) {
	c := NewClient("token")
	assert.Error(t, c.SendChannelMessage("c1", "hello"))
}

func TestUpsertGuildSlashCommands_CreatesMissingAndSkipsUnchanged(t *testing.T) {
	rec := &callRecorder{}
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		rec.record(req)
		if req.Method == http.MethodGet {
			return jsonResponse(`[{"id":"cmd-status","name":"boardroom-status","description":"Show the board","options":[]}]`), nil
		}
		return jsonResponse(`{"id":"cmd-new","name":"boardroom-join"}`), nil
	})
	s.State.User = &discordgo.User{ID: "app-1"}

	c := &Client{session: s}
	err := c.UpsertGuildSlashCommands("guild-1", []discordpkg.SlashCommandDefinition{
		{Name: "boardroom-status", Description: "Show the board"},
		{
			Name:        "boardroom-join",
			Description: "Take a seat",
			Options: []discordpkg.SlashCommandOption{
				{Name: "role", Description: "Seat to take", Required: true, Choices: []string{"ceo", "cto"}},
			},
		},
	})
	require.NoError(t, err)

	calls := rec.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodGet, calls[0].method)
	assert.True(t, strings.HasSuffix(calls[0].path, "/applications/app-1/guilds/guild-1/commands"), calls[0].path)
	assert.Equal(t, http.MethodPost, calls[1].method)

	var created discordgo.ApplicationCommand
	require.NoError(t, json.Unmarshal([]byte(calls[1].body), &created))
	assert.Equal(t, "boardroom-join", created.Name)
	require.Len(t, created.Options, 1)
	assert.Equal(t, "role", created.Options[0].Name)
	assert.True(t, created.Options[0].Required)
	assert.Len(t, created.Options[0].Choices, 2)
}

func TestUpsertGuildSlashCommands_RequiresApplicationID(t *testing.T) {
	c := &Client{session: newTestSession(t, nil)}
	assert.Error(t, c.UpsertGuildSlashCommands("guild-1", nil))
}

func TestCommandNeedsUpdate(t *testing.T) {
	base := &discordgo.ApplicationCommand{
		Description: "Take a seat",
		Options:     toApplicationCommandOptions([]discordpkg.SlashCommandOption{{Name: "role", Description: "Seat", Required: true}}),
	}

	same := &discordgo.ApplicationCommand{
		Description: "Take a seat",
		Options:     toApplicationCommandOptions([]discordpkg.SlashCommandOption{{Name: "role", Description: "Seat", Required: true}}),
	}
	assert.False(t, commandNeedsUpdate(base, same))

	optional := &discordgo.ApplicationCommand{
		Description: "Take a seat",
		Options:     toApplicationCommandOptions([]discordpkg.SlashCommandOption{{Name: "role", Description: "Seat"}}),
	}
	assert.True(t, commandNeedsUpdate(base, optional))

	renamed := &discordgo.ApplicationCommand{Description: "Sit down", Options: same.Options}
	assert.True(t, commandNeedsUpdate(base, renamed))
}

func TestOptionValues(t *testing.T) {
	got := optionValues([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "role", Type: discordgo.ApplicationCommandOptionString, Value: "cfo"},
		{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		nil,
		{Name: "", Type: discordgo.ApplicationCommandOptionString, Value: "ignored"},
	})
	assert.Equal(t, map[string]string{"role": "cfo", "count": "3"}, got)
}

func TestPreferredDiscordName(t *testing.T) {
	assert.Equal(t, "Global", preferredDiscordName("Global", "user", "id"))
	assert.Equal(t, "user", preferredDiscordName("", "user", "id"))
	assert.Equal(t, "id", preferredDiscordName("", "", "id"))
}
