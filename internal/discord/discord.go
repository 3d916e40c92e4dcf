package discord

import "context"

type SlashCommandOption struct {
	Name        string
	Description string
	Required    bool
	Choices     []string
}

type SlashCommandDefinition struct {
	Name        string
	Description string
	Options     []SlashCommandOption
}

type SlashCommandEvent struct {
	GuildID     string
	ChannelID   string
	CommandName string
	UserID      string
	UserName    string
	// Options holds every supplied option by name, rendered as text.
	Options map[string]string
	Respond func(content string, ephemeral bool) error
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	SendChannelMessage(channelID, content string) error
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
	GetBotUserID() (string, error)
}
