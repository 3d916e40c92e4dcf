package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/fangligamedev/AgentLinkin/internal/notify"
	"github.com/slack-go/slack"
)

// Notifier posts a plain text meeting summary to one Slack channel.
type Notifier struct {
	api       *slack.Client
	channelID string
}

func NewNotifier(token, channelID string, opts ...slack.Option) *Notifier {
	return &Notifier{
		api:       slack.New(token, opts...),
		channelID: channelID,
	}
}

func (n *Notifier) NotifySessionResult(ctx context.Context, result notify.Result) error {
	if n.channelID == "" {
		return nil
	}
	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(FormatResult(result), false),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack summary: %w", err)
	}
	return nil
}

func FormatResult(r notify.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* Q%d board meeting finished\n", r.CompanyName, r.Quarter)
	for _, res := range r.Resolutions {
		outcome := "rejected"
		if res.Passed {
			outcome = "passed"
		}
		fmt.Fprintf(&b, "• %s: %s (%s, %d votes)\n", res.Title, res.ChosenOption, outcome, res.Votes)
	}
	if len(r.Resolutions) == 0 {
		b.WriteString("• no resolutions\n")
	}
	s := r.CompanyState
	fmt.Fprintf(&b, "Cash $%.0f | Valuation $%.0f | Revenue $%.0f | Share %.1f%% | Morale %.0f",
		s.Cash, s.Valuation, s.Revenue, s.MarketShare, s.Morale)
	return b.String()
}
