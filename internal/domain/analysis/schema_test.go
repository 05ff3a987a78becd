package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/bryanwahyu/launchlab/internal/domain/contract"
)

func block(score string, tips int) string {
	t := make([]string, tips)
	for i := range t {
		t[i] = `"tip"`
	}
	return `{"score": ` + score + `, "insights": [{"title": "t", "description": "d"}], "improvement_tips": [` + strings.Join(t, ",") + `]}`
}

func payload(mo string) string {
	b := block("60", 3)
	return `{"market_opportunity": ` + mo + `, "competitive_advantage": ` + b + `, "feasibility": ` + b +
		`, "revenue_potential": ` + b + `, "market_timing": ` + b + `, "scalability": ` + b +
		`, "total_score": 60, "validation_status": "NEEDS REFINEMENT", "critical_issues": [{"issue": "i", "recommendation": "r"}]}`
}

func TestSchemaAcceptsCompleteResult(t *testing.T) {
	var r Result
	if err := contract.Parse([]byte(payload(block("80", 3))), Schema(), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.MarketOpportunity.Score != 80 || len(r.CriticalIssues) != 1 {
		t.Fatalf("decoded wrong: %+v", r)
	}
}

func TestSchemaAcceptsFractionalScores(t *testing.T) {
	raw := strings.Replace(payload(block("75.5", 3)), `"total_score": 60`, `"total_score": 71.25`, 1)
	raw = strings.Replace(raw, `"score": 60`, `"score": 75.0`, 1)
	var r Result
	if err := contract.Parse([]byte(raw), Schema(), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.MarketOpportunity.Score != 75.5 || r.CompetitiveAdvantage.Score != 75 || r.TotalScore != 71.25 {
		t.Fatalf("decoded wrong: %+v", r)
	}
}

func TestSchemaRejects(t *testing.T) {
	cases := map[string]string{
		"two tips":       payload(block("80", 2)),
		"score over 100": payload(block("101", 3)),
		"score as text":  payload(block(`"80"`, 3)),
		"missing block":  strings.Replace(payload(block("80", 3)), `"scalability"`, `"scale"`, 1),
		"bad status":     strings.Replace(payload(block("80", 3)), "NEEDS REFINEMENT", "MAYBE", 1),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var r Result
			if err := contract.Parse([]byte(raw), Schema(), &r); !errors.Is(err, contract.ErrSchemaViolation) {
				t.Fatalf("expected schema violation, got %v", err)
			}
		})
	}
}
