package bot

import (
	"fmt"
	"strings"

	"github.com/fangligamedev/AgentLinkin/internal/countdown"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/fangligamedev/AgentLinkin/internal/session"
)

const (
	relayTimeLayout   = "15:04:05"
	historyTimeLayout = "2006-01-02 15:04"
)

// FormatUpdate renders an update for the relay channel. ok is false for
// update types the channel does not show.
func FormatUpdate(u session.Update) (string, bool) {
	tag := shortID(u.SessionID)
	switch d := u.Data.(type) {
	case session.SessionCreatedPayload:
		return fmt.Sprintf("[%s] Boardroom for **%s** opened for Q%d", tag, d.CompanyName, d.Quarter), true
	case session.PhaseChangePayload:
		if d.Phase == session.PhaseFinished {
			return fmt.Sprintf("[%s] Meeting adjourned", tag), true
		}
		return fmt.Sprintf("[%s] Phase **%s** (until %s)", tag, strings.ToUpper(string(d.Phase)), d.Deadline.Format(relayTimeLayout)), true
	case session.MessagePayload:
		m := d.Message
		return fmt.Sprintf("[%s] **%s** (%s): %s", tag, m.AuthorName, m.AuthorRole.Label(), m.Content), true
	case session.ParticipantPayload:
		p := d.Participant
		if u.Type == session.UpdateParticipantLeave {
			return fmt.Sprintf("[%s] %s (%s) left the board", tag, p.AgentName, p.Role.Label()), true
		}
		return fmt.Sprintf("[%s] %s joined as %s", tag, p.AgentName, p.Role.Label()), true
	case session.AgendaPayload:
		item := d.Item
		if u.Type == session.UpdateVoteResolved {
			return fmt.Sprintf("[%s] **%s** resolved: %s (%s)", tag, item.Title, item.ChosenOption, outcome(item.Passed)), true
		}
		return fmt.Sprintf("[%s] New agenda item `%s`: **%s** [%s]", tag, item.ID, item.Title, strings.Join(item.Options, " / ")), true
	case session.CompanyPayload:
		return fmt.Sprintf("[%s] %s: %s", tag, d.Reason, companyText(d.State)), true
	case session.SessionEndedPayload:
		return fmt.Sprintf("[%s] Q%d closed with %d resolutions. %s", tag, d.Quarter, len(d.Resolutions), companyText(d.CompanyState)), true
	default:
		return "", false
	}
}

// FormatStatus summarizes a session for the status command. cd is shown
// only while it counts down the session's current phase.
func FormatStatus(s *session.Session, cd *countdown.Countdown) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** Q%d (session `%s`)\n", s.CompanyName, s.Quarter, s.ID)
	fmt.Fprintf(&b, "Phase: %s\n", strings.ToUpper(string(s.Phase)))
	if cd != nil && cd.Phase() == s.Phase {
		fmt.Fprintf(&b, "Time left: %s (%.0f%% elapsed)", cd.FormatTime(), cd.Progress())
		if cd.IsRunningLow() {
			b.WriteString(" - running low")
		}
		b.WriteString("\n")
	}
	if len(s.Participants) == 0 {
		b.WriteString("Board: empty\n")
	}
	for _, p := range s.Participants {
		fmt.Fprintf(&b, "- %s %s (%s, %s)\n", p.Role.Label(), p.AgentName, p.Kind, p.Status)
	}
	if open := s.AvailableRoles(); len(open) > 0 {
		fmt.Fprintf(&b, "Open seats: %s\n", rolesText(open))
	}
	for i, item := range s.Agenda {
		marker := " "
		if i == s.CurrentAgendaIndex && !item.Resolved {
			marker = ">"
		}
		state := fmt.Sprintf("%d votes", len(item.Votes))
		if item.Resolved {
			state = fmt.Sprintf("%s, %s", item.ChosenOption, outcome(item.Passed))
		}
		fmt.Fprintf(&b, "%s `%s` %s [%s] %s\n", marker, item.ID, item.Title, strings.Join(item.Options, " / "), state)
	}
	b.WriteString(companyText(s.CompanyState))
	return b.String()
}

// FormatHistory lists up to limit stored sessions, newest first.
func FormatHistory(summaries []repository.SessionSummary, limit int) string {
	if len(summaries) == 0 {
		return "No saved sessions."
	}
	var b strings.Builder
	for i, sum := range summaries {
		if i == limit {
			fmt.Fprintf(&b, "... and %d more", len(summaries)-limit)
			break
		}
		fmt.Fprintf(&b, "`%s` **%s** Q%d %s (%s, updated %s)\n", sum.ID, sum.CompanyName, sum.Quarter,
			strings.ToUpper(string(sum.Phase)), sum.Status, sum.UpdatedAt.Format(historyTimeLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}

func companyText(c session.CompanyState) string {
	return fmt.Sprintf("Cash %.0f, valuation %.0f, revenue %.0f, employees %.0f, share %.1f%%, morale %.0f",
		c.Cash, c.Valuation, c.Revenue, c.Employees, c.MarketShare, c.Morale)
}

func rolesText(roles []session.Role) string {
	if len(roles) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(roles))
	for _, r := range roles {
		labels = append(labels, r.Label())
	}
	return strings.Join(labels, ", ")
}

func outcome(passed bool) string {
	if passed {
		return "passed"
	}
	return "rejected"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
