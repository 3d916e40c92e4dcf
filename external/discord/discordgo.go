package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/fangligamedev/AgentLinkin/internal/discord"
)

type Client struct {
	session   *discordgo.Session
	token     string
	botUserID string
}

func NewClient(token string) *Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds | discordgo.IntentsGuildMessages)
	if err := s.Open(); err != nil {
		return err
	}
	userID, err := c.GetBotUserID()
	if err != nil {
		return err
	}
	c.botUserID = userID
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	_, err := c.session.ChannelMessageSend(channelID, content)
	return err
}

func (c *Client) RegisterSlashCommandHandler(handler func(discordpkg.SlashCommandEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name == "" {
			return
		}
		user := interactionUser(ic)
		if user == nil || user.ID == "" {
			return
		}
		slog.Info("slash command interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "command", data.Name, "user_id", user.ID)
		handler(discordpkg.SlashCommandEvent{
			GuildID:     ic.GuildID,
			ChannelID:   ic.ChannelID,
			CommandName: data.Name,
			UserID:      user.ID,
			UserName:    interactionDisplayName(ic, user),
			Options:     optionValues(data.Options),
			Respond: func(content string, ephemeral bool) error {
				resp := &discordgo.InteractionResponseData{Content: content}
				if ephemeral {
					resp.Flags = discordgo.MessageFlagsEphemeral
				}
				return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseChannelMessageWithSource,
					Data: resp,
				})
			},
		})
	})
}

func interactionUser(ic *discordgo.InteractionCreate) *discordgo.User {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User
	}
	return ic.User
}

func interactionDisplayName(ic *discordgo.InteractionCreate, user *discordgo.User) string {
	if ic.Member != nil && ic.Member.Nick != "" {
		return ic.Member.Nick
	}
	return preferredDiscordName(user.GlobalName, user.Username, user.ID)
}

func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	out := make(map[string]string, len(opts))
	for _, opt := range opts {
		if opt == nil || opt.Name == "" {
			continue
		}
		if opt.Type == discordgo.ApplicationCommandOptionString {
			out[opt.Name] = opt.StringValue()
			continue
		}
		out[opt.Name] = fmt.Sprint(opt.Value)
	}
	return out
}

func (c *Client) UpsertGuildSlashCommands(guildID string, defs []discordpkg.SlashCommandDefinition) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	existing, err := c.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		existingByName[cmd.Name] = cmd
	}
	for _, def := range defs {
		if err := c.upsertGuildSlashCommand(appID, guildID, def, existingByName); err != nil {
			return fmt.Errorf("failed to upsert command %s: %w", def.Name, err)
		}
	}
	return nil
}

func (c *Client) upsertGuildSlashCommand(appID, guildID string, def discordpkg.SlashCommandDefinition, existingByName map[string]*discordgo.ApplicationCommand) error {
	if def.Name == "" {
		return nil
	}
	payload := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
		Options:     toApplicationCommandOptions(def.Options),
	}
	cmd, ok := existingByName[def.Name]
	if !ok {
		_, err := c.session.ApplicationCommandCreate(appID, guildID, payload)
		return err
	}
	if !commandNeedsUpdate(cmd, payload) {
		return nil
	}
	_, err := c.session.ApplicationCommandEdit(appID, guildID, cmd.ID, payload)
	return err
}

func toApplicationCommandOptions(opts []discordpkg.SlashCommandOption) []*discordgo.ApplicationCommandOption {
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, o := range opts {
		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        o.Name,
			Description: o.Description,
			Required:    o.Required,
		}
		for _, choice := range o.Choices {
			opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: choice, Value: choice})
		}
		out = append(out, opt)
	}
	return out
}

func commandNeedsUpdate(existing, want *discordgo.ApplicationCommand) bool {
	if existing.Description != want.Description || len(existing.Options) != len(want.Options) {
		return true
	}
	for i, opt := range want.Options {
		got := existing.Options[i]
		if got == nil || got.Name != opt.Name || got.Description != opt.Description || got.Required != opt.Required || len(got.Choices) != len(opt.Choices) {
			return true
		}
	}
	return false
}

func (c *Client) GetBotUserID() (string, error) {
	if c.botUserID != "" {
		return c.botUserID, nil
	}
	if c.session == nil {
		return "", fmt.Errorf("discord session is not initialized")
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.botUserID = c.session.State.User.ID
		return c.botUserID, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return "", err
	}
	c.botUserID = u.ID
	return c.botUserID, nil
}

func preferredDiscordName(globalName, username, fallback string) string {
	if globalName != "" {
		return globalName
	}
	if username != "" {
		return username
	}
	return fallback
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}
