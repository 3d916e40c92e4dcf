package session

import (
	"fmt"
	"regexp"
	"strings"
)

const systemAuthorName = "System"

const (
	messageCreatedFormat       = "Board created: %s Q%d"
	messageJoinedFormat        = "%s joined the board as %s"
	messageMeetingStarted      = "Board meeting started! Q%d strategy discussion"
	messageParticipantsFormat  = "Participants: %s"
	messagePhaseFormat         = "Entering phase: %s"
	messageVotedFormat         = "%s(%s) has voted"
	messageVoteResultFormat    = "Vote result for %q: %s (%d votes, %s)"
	messageAgendaAddedFormat   = "%s(%s) proposed: %s [%s]"
	messageLeftFormat          = "%s(%s) left the board"
	messageCompanyUpdateFormat = "Company update (%s): cash %.0f, valuation %.0f, market share %.1f%%, morale %.0f"
)

func createdText(companyName string, quarter int) string {
	return fmt.Sprintf(messageCreatedFormat, companyName, quarter)
}

func joinedText(p Participant) string {
	return fmt.Sprintf(messageJoinedFormat, p.AgentName, p.Role.Label())
}

func startedText(quarter int) string {
	return fmt.Sprintf(messageMeetingStarted, quarter)
}

func participantsText(participants []Participant) string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, fmt.Sprintf("%s(%s)", p.AgentName, p.Role.Label()))
	}
	return fmt.Sprintf(messageParticipantsFormat, strings.Join(names, ", "))
}

func phaseText(p Phase) string {
	return fmt.Sprintf(messagePhaseFormat, strings.ToUpper(string(p)))
}

func votedText(p Participant) string {
	return fmt.Sprintf(messageVotedFormat, p.AgentName, p.Role.Label())
}

func voteResultText(item AgendaItem, count int) string {
	outcome := "rejected"
	if item.Passed {
		outcome = "passed"
	}
	return fmt.Sprintf(messageVoteResultFormat, item.Title, item.ChosenOption, count, outcome)
}

func agendaAddedText(p Participant, item AgendaItem) string {
	return fmt.Sprintf(messageAgendaAddedFormat, p.AgentName, p.Role.Label(), item.Title, strings.Join(item.Options, " / "))
}

func leftText(p Participant) string {
	return fmt.Sprintf(messageLeftFormat, p.AgentName, p.Role.Label())
}

func companyUpdateText(reason string, s CompanyState) string {
	return fmt.Sprintf(messageCompanyUpdateFormat, reason, s.Cash, s.Valuation, s.MarketShare, s.Morale)
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// extractMentions returns the @-targets in content in order of appearance.
func extractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
