package analysis

import "math"

// Category weights in percent; they sum to 100.
const (
	weightMarketOpportunity    = 25
	weightCompetitiveAdvantage = 20
	weightFeasibility          = 15
	weightRevenuePotential     = 15
	weightMarketTiming         = 15
	weightScalability          = 10
)

const (
	readyThreshold      = 70
	refinementThreshold = 50
)

// WeightedCategory pairs a block with its key and weight, in display order.
type WeightedCategory struct {
	Key      string
	Label    string
	Weight   int
	Category Category
}

// Weighted lists the six blocks with their weights.
func (c Categories) Weighted() []WeightedCategory {
	return []WeightedCategory{
		{"market_opportunity", "Market Opportunity", weightMarketOpportunity, c.MarketOpportunity},
		{"competitive_advantage", "Competitive Advantage", weightCompetitiveAdvantage, c.CompetitiveAdvantage},
		{"feasibility", "Feasibility", weightFeasibility, c.Feasibility},
		{"revenue_potential", "Revenue Potential", weightRevenuePotential, c.RevenuePotential},
		{"market_timing", "Market Timing", weightMarketTiming, c.MarketTiming},
		{"scalability", "Scalability", weightScalability, c.Scalability},
	}
}

// TotalScore is the weighted mean of the six scores, rounded half up once
// at the end. Whole-number scores give an exact result.
func TotalScore(c Categories) int {
	var sum float64
	for _, w := range c.Weighted() {
		sum += float64(w.Weight) * clamp(w.Category.Score)
	}
	return int(math.Round(clamp(sum / 100)))
}

// StatusFor maps a total score onto a verdict.
func StatusFor(total int) Status {
	switch {
	case total >= readyThreshold:
		return StatusReady
	case total >= refinementThreshold:
		return StatusRefinement
	default:
		return StatusConcerns
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
