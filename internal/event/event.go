package event

import (
	"github.com/fangligamedev/AgentLinkin/internal/session"
)

type Event struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Probability float64     `yaml:"probability"`
	Conditions  *Conditions `yaml:"conditions,omitempty"`
	Effects     Effects     `yaml:"effects"`
	// Duration is the number of rounds the event stays active; zero means one.
	Duration int `yaml:"duration,omitempty"`
}

// Conditions restrict when an event may be drawn. Nil bounds are unchecked.
type Conditions struct {
	MinCash        *float64        `yaml:"min_cash,omitempty"`
	MaxCash        *float64        `yaml:"max_cash,omitempty"`
	MinValuation   *float64        `yaml:"min_valuation,omitempty"`
	MaxValuation   *float64        `yaml:"max_valuation,omitempty"`
	MinEmployees   *float64        `yaml:"min_employees,omitempty"`
	MaxEmployees   *float64        `yaml:"max_employees,omitempty"`
	MinMarketShare *float64        `yaml:"min_market_share,omitempty"`
	MaxMarketShare *float64        `yaml:"max_market_share,omitempty"`
	Phases         []session.Phase `yaml:"phases,omitempty"`
}

type Effects struct {
	Cash        *float64 `yaml:"cash,omitempty"`
	Valuation   *float64 `yaml:"valuation,omitempty"`
	Revenue     *float64 `yaml:"revenue,omitempty"`
	Employees   *float64 `yaml:"employees,omitempty"`
	MarketShare *float64 `yaml:"market_share,omitempty"`
	Morale      *float64 `yaml:"morale,omitempty"`
}

func (c *Conditions) allowsPhase(phase session.Phase) bool {
	if c == nil || len(c.Phases) == 0 {
		return true
	}
	for _, p := range c.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

func (c *Conditions) allowsState(s session.CompanyState) bool {
	if c == nil {
		return true
	}
	return within(s.Cash, c.MinCash, c.MaxCash) &&
		within(s.Valuation, c.MinValuation, c.MaxValuation) &&
		within(s.Employees, c.MinEmployees, c.MaxEmployees) &&
		within(s.MarketShare, c.MinMarketShare, c.MaxMarketShare)
}

func within(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// ApplyEffects returns state with e's effects applied. Valuation moves by a
// percentage; every other field is an absolute delta. Market share never
// drops below zero and morale stays within 0..100.
func ApplyEffects(state session.CompanyState, e Event) session.CompanyState {
	fx := e.Effects
	if fx.Cash != nil {
		state.Cash += *fx.Cash
	}
	if fx.Valuation != nil {
		state.Valuation *= 1 + *fx.Valuation/100
	}
	if fx.Revenue != nil {
		state.Revenue += *fx.Revenue
	}
	if fx.Employees != nil {
		state.Employees += *fx.Employees
	}
	if fx.MarketShare != nil {
		state.MarketShare = max(0, state.MarketShare+*fx.MarketShare)
	}
	if fx.Morale != nil {
		state.Morale = min(100, max(0, state.Morale+*fx.Morale))
	}
	return state
}
