// Package market scores competing companies for one round and turns the
// result into company state changes.
package market

import (
	"math"

	"github.com/fangligamedev/AgentLinkin/internal/session"
)

const (
	availableShare      = 85.0
	customersPerShare   = 10
	monthsPerYear       = 12
	skillPerEmployee    = 5.0
	defaultPrice        = 100.0
	defaultFeatures     = 3
	defaultQuality      = 60.0
	budgetPerResolution = 0.10
	maxBudgetShare      = 0.30
)

type Company struct {
	ID              string
	Name            string
	Employees       float64
	SalesPeople     float64
	Features        int
	Quality         float64
	Price           float64
	MarketingBudget float64
}

type Breakdown struct {
	Product float64
	Brand   float64
	Price   float64
	Channel float64
}

type Result struct {
	CompanyID string
	Score     float64
	Breakdown Breakdown
	Share     float64
	Revenue   float64
}

// Scorer distributes the market among competing companies.
type Scorer interface {
	Score(companies []Company) []Result
}

// ShareScorer weights product 40%, brand 30%, price 20% and channel 10%, then
// splits 85% of the market by score share. The remaining 15% is legacy demand.
type ShareScorer struct{}

func (ShareScorer) Score(companies []Company) []Result {
	results := make([]Result, len(companies))
	total := 0.0
	for i, c := range companies {
		b := Breakdown{
			Product: math.Min(100, c.Employees*skillPerEmployee+float64(c.Features)*10+c.Quality*0.5),
			Brand:   math.Min(100, c.MarketingBudget/10000),
			Price:   math.Max(0, (300-c.Price)/300*100),
			Channel: math.Min(100, c.SalesPeople*5+20),
		}
		score := b.Product*0.4 + b.Brand*0.3 + b.Price*0.2 + b.Channel*0.1
		results[i] = Result{CompanyID: c.ID, Score: score, Breakdown: b}
		total += score
	}
	for i := range results {
		if total > 0 {
			results[i].Share = results[i].Score / total * availableShare
		}
		customers := math.Floor(results[i].Share * customersPerShare)
		results[i].Revenue = customers * companies[i].Price * monthsPerYear
	}
	return results
}

// Rivals are the baseline competitors every boardroom company faces.
func Rivals() []Company {
	return []Company{
		{ID: "rival-betasoft", Name: "BetaSoft", Employees: 10, SalesPeople: 2, Features: defaultFeatures, Quality: defaultQuality, Price: defaultPrice, MarketingBudget: 100000},
		{ID: "rival-gammainc", Name: "GammaInc", Employees: 8, SalesPeople: 1, Features: defaultFeatures, Quality: defaultQuality, Price: 90, MarketingBudget: 50000},
	}
}

// Decide derives the round's decisions from the board outcome: each passed
// resolution commits another 10% of cash to marketing, capped at 30%.
func Decide(id, name string, state session.CompanyState, passed int) Company {
	share := math.Min(maxBudgetShare, float64(max(0, passed))*budgetPerResolution)
	return Company{
		ID:              id,
		Name:            name,
		Employees:       state.Employees,
		SalesPeople:     math.Floor(state.Employees / 5),
		Features:        defaultFeatures,
		Quality:         defaultQuality,
		Price:           defaultPrice,
		MarketingBudget: math.Max(0, state.Cash) * share,
	}
}

// Settle applies the company's own result: marketing spend leaves cash,
// revenue comes in, and share and revenue are replaced.
func Settle(state session.CompanyState, c Company, r Result) session.CompanyState {
	state.Cash = state.Cash - c.MarketingBudget + r.Revenue
	state.Revenue = r.Revenue
	state.MarketShare = r.Share
	return state
}

// Round scores the company against the rivals and returns its settled state.
func Round(scorer Scorer, id, name string, state session.CompanyState, passed int) (session.CompanyState, Result) {
	own := Decide(id, name, state, passed)
	companies := append([]Company{own}, Rivals()...)
	results := scorer.Score(companies)
	return Settle(state, own, results[0]), results[0]
}
