package substitute

import (
	"fmt"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

const fallbackPhrase = "I need more information before I can decide."

var rolePhrases = map[session.Role][]string{
	session.RoleCEO: {
		"@CTO @CMO how does our current cash flow support the expansion plan?",
		"Weighing everyone's input, I lean towards a steady strategy.",
		"Every view here is valuable. We need a balance between risk and opportunity.",
		"Looking at the overall strategy, I suggest we put long-term sustainability first.",
		"@channel does anyone have anything else to add?",
	},
	session.RoleCTO: {
		"@CEO engineering can absorb five to eight hires, beyond ten we take on management risk.",
		"From the CTO seat, I want to pay down tech debt before building new features.",
		"@CMO the new marketing features need a three to four week build.",
		"@CEO more engineers would lift product quality noticeably.",
		"Tech investment is long term. I propose at least 20% of resources for infrastructure.",
	},
	session.RoleCMO: {
		"@CEO research shows rivals will take our share if we do not invest more.",
		"From the CMO seat, we need at least $500k of marketing budget for a decent ROI.",
		"@CTO the campaign schedule has to match the product launch.",
		"@CEO brand awareness directly drives our acquisition cost.",
		"I understand the cash pressure, but zero marketing means missing the market window.",
	},
	session.RoleCFO: {
		"@CEO based on the numbers our cash only covers six months of runway.",
		"From the CFO seat, I recommend tight cost control so the company survives.",
		"@channel aggressive expansion is risky, running out of cash would be severe.",
		"I suggest a staged investment and deciding Q2 after we see Q1 data.",
		"@CEO financial health is our lifeline, growth cannot ignore runway.",
	},
}

var voteReasons = map[session.Role]string{
	session.RoleCEO: "balancing risk and opportunity",
	session.RoleCTO: "technology investment cannot be skipped",
	session.RoleCMO: "market windows close fast",
	session.RoleCFO: "cash safety comes first",
}

type proposal struct {
	title       string
	description string
	options     []string
}

func roleProposal(role session.Role, quarter int) proposal {
	switch role {
	case session.RoleCTO:
		return proposal{
			title:       "Engineering headcount",
			description: "Hire engineers to support the product roadmap",
			options:     []string{"Hire 5 (aggressive)", "Hire 2 (moderate)", "No hires (hold)"},
		}
	case session.RoleCMO:
		return proposal{
			title:       fmt.Sprintf("Q%d marketing budget", quarter),
			description: "Marketing spend for the quarter",
			options:     []string{"$500k (all in)", "$200k (moderate)", "$50k (conservative)"},
		}
	case session.RoleCFO:
		return proposal{
			title:       "Cost control measures",
			description: "Respond to cash flow pressure",
			options:     []string{"Strict controls", "Moderate controls", "No controls yet"},
		}
	default:
		return proposal{
			title:       fmt.Sprintf("Q%d strategic direction", quarter),
			description: "Set the main strategic direction for the quarter",
			options:     []string{"Aggressive expansion", "Steady growth", "Defensive retrenchment"},
		}
	}
}
