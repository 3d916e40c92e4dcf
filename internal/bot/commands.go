package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/countdown"
	"github.com/fangligamedev/AgentLinkin/internal/discord"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
)

const (
	CommandCreate  = "boardroom-create"
	CommandJoin    = "boardroom-join"
	CommandStart   = "boardroom-start"
	CommandSay     = "boardroom-say"
	CommandPropose = "boardroom-propose"
	CommandVote    = "boardroom-vote"
	CommandStatus  = "boardroom-status"
	CommandHistory = "boardroom-history"
)

const (
	storeReadTimeout = 5 * time.Second
	historyLimit     = 10
)

const (
	optionName    = "name"
	optionSession = "session"
	optionRole    = "role"
	optionText    = "text"
	optionTitle   = "title"
	optionOptions = "options"
	optionAgenda  = "agenda"
	optionOption  = "option"
	optionStatus  = "status"
)

func sessionOption() discord.SlashCommandOption {
	return discord.SlashCommandOption{Name: optionSession, Description: "Session id (defaults to the newest open board)"}
}

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	roles := make([]string, 0, len(session.Roles()))
	for _, r := range session.Roles() {
		roles = append(roles, string(r))
	}
	return []discord.SlashCommandDefinition{
		{
			Name:        CommandCreate,
			Description: "Open a new boardroom session",
			Options: []discord.SlashCommandOption{
				{Name: optionName, Description: "Company name", Required: true},
			},
		},
		{
			Name:        CommandJoin,
			Description: "Take a seat on the board",
			Options: []discord.SlashCommandOption{
				{Name: optionRole, Description: "Seat to take", Required: true, Choices: roles},
				sessionOption(),
			},
		},
		{
			Name:        CommandStart,
			Description: "Start the meeting without waiting for a full board",
			Options:     []discord.SlashCommandOption{sessionOption()},
		},
		{
			Name:        CommandSay,
			Description: "Speak at the board meeting",
			Options: []discord.SlashCommandOption{
				{Name: optionText, Description: "What to say", Required: true},
				sessionOption(),
			},
		},
		{
			Name:        CommandPropose,
			Description: "Put an item on the agenda",
			Options: []discord.SlashCommandOption{
				{Name: optionTitle, Description: "Agenda title", Required: true},
				{Name: optionOptions, Description: "Comma separated options", Required: true},
				sessionOption(),
			},
		},
		{
			Name:        CommandVote,
			Description: "Vote on an agenda item",
			Options: []discord.SlashCommandOption{
				{Name: optionOption, Description: "Option to vote for", Required: true},
				{Name: optionAgenda, Description: "Agenda item id (defaults to the current item)"},
				sessionOption(),
			},
		},
		{
			Name:        CommandStatus,
			Description: "Show the state of a boardroom session",
			Options:     []discord.SlashCommandOption{sessionOption()},
		},
		{
			Name:        CommandHistory,
			Description: "List saved boardroom sessions",
			Options: []discord.SlashCommandOption{
				{Name: optionStatus, Description: "Only sessions in this state", Choices: []string{string(repository.SessionStatusActive), string(repository.SessionStatusFinished)}},
			},
		},
	}
}

// Handler maps slash commands onto the session manager. The Discord user id
// is used as the agent id. countdowns and store may be nil. Without them status
// shows no timer and only live sessions are found.
type Handler struct {
	manager    *session.Manager
	countdowns *countdown.Manager
	store      repository.SessionStore
}

func NewHandler(manager *session.Manager, countdowns *countdown.Manager, store repository.SessionStore) *Handler {
	return &Handler{manager: manager, countdowns: countdowns, store: store}
}

func (h *Handler) HandleSlashCommand(ev discord.SlashCommandEvent) {
	reply, ephemeral := h.Execute(ev)
	if ev.Respond == nil {
		return
	}
	if err := ev.Respond(reply, ephemeral); err != nil {
		slog.Error("failed to respond to slash command", "command", ev.CommandName, "user_id", ev.UserID, "error", err)
	}
}

// Execute runs one command and returns the reply text. Failures are replied
// to the caller only.
func (h *Handler) Execute(ev discord.SlashCommandEvent) (string, bool) {
	reply, err := h.execute(ev)
	if err != nil {
		slog.Warn("slash command rejected", "command", ev.CommandName, "user_id", ev.UserID, "error", err)
		return errorReply(err), true
	}
	return reply, false
}

func (h *Handler) execute(ev discord.SlashCommandEvent) (string, error) {
	switch ev.CommandName {
	case CommandCreate:
		return h.create(ev)
	case CommandJoin:
		return h.join(ev)
	case CommandStart:
		return h.start(ev)
	case CommandSay:
		return h.say(ev)
	case CommandPropose:
		return h.propose(ev)
	case CommandVote:
		return h.vote(ev)
	case CommandStatus:
		return h.status(ev)
	case CommandHistory:
		return h.history(ev)
	default:
		return "", fmt.Errorf("unknown command %s", ev.CommandName)
	}
}

func (h *Handler) create(ev discord.SlashCommandEvent) (string, error) {
	name := strings.TrimSpace(ev.Options[optionName])
	if name == "" {
		return "", fmt.Errorf("company name is required")
	}
	s := h.manager.CreateSession(session.CreateRequest{CompanyName: name, CreatedBy: ev.UserID})
	return fmt.Sprintf("Boardroom for **%s** opened (session `%s`). Seats: %s", s.CompanyName, s.ID, rolesText(s.AvailableRoles())), nil
}

func (h *Handler) join(ev discord.SlashCommandEvent) (string, error) {
	role, err := session.ParseRole(ev.Options[optionRole])
	if err != nil {
		return "", err
	}
	id, err := h.sessionID(ev)
	if err != nil {
		return "", err
	}
	p, err := h.manager.JoinSession(id, session.JoinRequest{
		AgentID:   ev.UserID,
		AgentName: displayName(ev),
		Role:      role,
		Kind:      session.KindHuman,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s takes the %s seat.", p.AgentName, p.Role.Label()), nil
}

func (h *Handler) start(ev discord.SlashCommandEvent) (string, error) {
	id, err := h.sessionID(ev)
	if err != nil {
		return "", err
	}
	if err := h.manager.StartSession(id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Meeting `%s` started.", id), nil
}

func (h *Handler) say(ev discord.SlashCommandEvent) (string, error) {
	id, err := h.sessionID(ev)
	if err != nil {
		return "", err
	}
	msg, err := h.manager.SendMessage(id, session.MessageRequest{AgentID: ev.UserID, Content: ev.Options[optionText]})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("**%s** (%s): %s", msg.AuthorName, msg.AuthorRole.Label(), msg.Content), nil
}

func (h *Handler) propose(ev discord.SlashCommandEvent) (string, error) {
	id, err := h.sessionID(ev)
	if err != nil {
		return "", err
	}
	item, err := h.manager.AddAgendaItem(id, session.AgendaRequest{
		Title:      strings.TrimSpace(ev.Options[optionTitle]),
		Options:    splitOptions(ev.Options[optionOptions]),
		ProposedBy: ev.UserID,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Agenda item `%s` added: **%s** [%s]", item.ID, item.Title, strings.Join(item.Options, " / ")), nil
}

func (h *Handler) vote(ev discord.SlashCommandEvent) (string, error) {
	id, err := h.sessionID(ev)
	if err != nil {
		return "", err
	}
	agendaID := strings.TrimSpace(ev.Options[optionAgenda])
	if agendaID == "" {
		s, err := h.manager.GetSession(id)
		if err != nil {
			return "", err
		}
		current := s.CurrentAgenda()
		if current == nil {
			return "", session.ErrAgendaNotFound
		}
		agendaID = current.ID
	}
	option := strings.TrimSpace(ev.Options[optionOption])
	if err := h.manager.SubmitVote(id, session.VoteRequest{AgentID: ev.UserID, AgendaID: agendaID, Option: option}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Vote recorded: %s", option), nil
}

func (h *Handler) status(ev discord.SlashCommandEvent) (string, error) {
	id, err := h.sessionID(ev)
	if err != nil {
		return "", err
	}
	s, err := h.manager.GetSession(id)
	if errors.Is(err, session.ErrSessionNotFound) && h.store != nil {
		return h.storedStatus(id, err)
	}
	if err != nil {
		return "", err
	}
	var cd *countdown.Countdown
	if h.countdowns != nil {
		cd, _ = h.countdowns.Get(id)
	}
	return FormatStatus(s, cd), nil
}

// storedStatus answers from the last snapshot for a session the manager does
// not hold, such as one from before a restart.
func (h *Handler) storedStatus(id string, notFound error) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeReadTimeout)
	defer cancel()
	s, err := h.store.GetSession(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", notFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return FormatStatus(s, nil), nil
}

func (h *Handler) history(ev discord.SlashCommandEvent) (string, error) {
	if h.store == nil {
		return "", fmt.Errorf("no session store configured")
	}
	status := repository.SessionStatus(strings.ToLower(strings.TrimSpace(ev.Options[optionStatus])))
	switch status {
	case "", repository.SessionStatusActive, repository.SessionStatusFinished:
	default:
		return "", fmt.Errorf("unknown status %s", status)
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeReadTimeout)
	defer cancel()
	summaries, err := h.store.ListSessions(ctx, status)
	if err != nil {
		return "", fmt.Errorf("failed to list sessions: %w", err)
	}
	return FormatHistory(summaries, historyLimit), nil
}

// sessionID resolves the session option, falling back to the newest session
// that has not finished.
func (h *Handler) sessionID(ev discord.SlashCommandEvent) (string, error) {
	if id := strings.TrimSpace(ev.Options[optionSession]); id != "" {
		return id, nil
	}
	open := h.manager.ListSessions()
	if len(open) == 0 {
		return "", session.ErrSessionNotFound
	}
	return open[0].ID, nil
}

func displayName(ev discord.SlashCommandEvent) string {
	if ev.UserName != "" {
		return ev.UserName
	}
	return ev.UserID
}

func splitOptions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func errorReply(err error) string {
	var se *session.Error
	if errors.As(err, &se) {
		return fmt.Sprintf("Rejected (%s): %s", se.Code, se.Message)
	}
	return "Rejected: " + err.Error()
}
