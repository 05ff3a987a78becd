package analysis

import (
	"encoding/json"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/idea"
)

// ID identifier type
type ID string

// Status is the verdict derived from the total score.
type Status string

const (
	StatusReady      Status = "READY TO VALIDATE"
	StatusRefinement Status = "NEEDS REFINEMENT"
	StatusConcerns   Status = "MAJOR CONCERNS"
)

// Insight is one observation the model made about a category.
type Insight struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ActionSteps []string `json:"action_steps,omitempty"`
}

// Category is a scored block of the analysis.
// Scores are kept as the model sent them; only the total is rounded.
type Category struct {
	Score           float64   `json:"score"`
	Insights        []Insight `json:"insights"`
	ImprovementTips []string  `json:"improvement_tips"`
}

type CriticalIssue struct {
	Issue          string `json:"issue"`
	Recommendation string `json:"recommendation"`
}

// Categories holds the six scored blocks.
type Categories struct {
	MarketOpportunity    Category `json:"market_opportunity"`
	CompetitiveAdvantage Category `json:"competitive_advantage"`
	Feasibility          Category `json:"feasibility"`
	RevenuePotential     Category `json:"revenue_potential"`
	MarketTiming         Category `json:"market_timing"`
	Scalability          Category `json:"scalability"`
}

// Result is the payload the model returns for an idea.
type Result struct {
	Categories
	TotalScore       float64         `json:"total_score"`
	ValidationStatus Status          `json:"validation_status"`
	CriticalIssues   []CriticalIssue `json:"critical_issues"`
}

// Analysis is the stored, scored evaluation of one idea.
type Analysis struct {
	ID ID `json:"id"`
	idea.Idea
	Categories
	TotalScore        int             `json:"total_score"`
	ValidationStatus  Status          `json:"validation_status"`
	CriticalIssues    []CriticalIssue `json:"critical_issues"`
	ReportGenerated   bool            `json:"report_generated"`
	ReportData        json.RawMessage `json:"report_data,omitempty"`
	ReportGeneratedAt *time.Time      `json:"report_generated_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// New builds an Analysis from a parsed model result. The total and the status
// are recomputed from the category scores; whatever the model claimed is dropped.
func New(id ID, i idea.Idea, r Result, now time.Time) *Analysis {
	total := TotalScore(r.Categories)
	issues := r.CriticalIssues
	if issues == nil {
		issues = []CriticalIssue{}
	}
	return &Analysis{
		ID:               id,
		Idea:             i.Normalize(),
		Categories:       r.Categories,
		TotalScore:       total,
		ValidationStatus: StatusFor(total),
		CriticalIssues:   issues,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
