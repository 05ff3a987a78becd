// Package report holds the validation roadmap generated from an analysis.
package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

type ValidationStrategy struct {
	Summary       string   `json:"summary"`
	KeyObjectives []string `json:"key_objectives"`
	Timeline      string   `json:"timeline"`
}

type TargetSegment struct {
	Segment         string `json:"segment"`
	Characteristics string `json:"characteristics"`
	FindingChannels string `json:"finding_channels"`
}

type CustomerValidation struct {
	TargetSegments     []TargetSegment `json:"target_segments"`
	InterviewQuestions []string        `json:"interview_questions"`
	SuccessMetrics     []string        `json:"success_metrics"`
}

type MVPFeature struct {
	Feature         string `json:"feature"`
	Purpose         string `json:"purpose"`
	TestingApproach string `json:"testing_approach"`
}

type TestingMethod struct {
	Method          string `json:"method"`
	Description     string `json:"description"`
	ExpectedOutcome string `json:"expected_outcome"`
}

type SolutionValidation struct {
	MVPFeatures    []MVPFeature    `json:"mvp_features"`
	TestingMethods []TestingMethod `json:"testing_methods"`
}

type MarketResearch struct {
	Area    string `json:"area"`
	Sources string `json:"sources"`
	Metrics string `json:"metrics"`
}

type Competitor struct {
	Competitor string `json:"competitor"`
	Strengths  string `json:"strengths"`
	Weaknesses string `json:"weaknesses"`
}

type MarketValidation struct {
	MarketResearch     []MarketResearch `json:"market_research"`
	CompetitorAnalysis []Competitor     `json:"competitor_analysis"`
}

type Risk struct {
	Risk               string `json:"risk"`
	Impact             string `json:"impact"`
	MitigationStrategy string `json:"mitigation_strategy"`
}

type CriticalIssue struct {
	Issue          string `json:"issue"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

type NextStep struct {
	Step     string   `json:"step"`
	Details  string   `json:"details"`
	Priority Priority `json:"priority"`
}

// Report is the validation roadmap for one analysis. It is stored inside the
// analysis row and replaced wholesale on regeneration.
type Report struct {
	ValidationStrategy ValidationStrategy `json:"validation_strategy"`
	CustomerValidation CustomerValidation `json:"customer_validation"`
	SolutionValidation SolutionValidation `json:"solution_validation"`
	MarketValidation   MarketValidation   `json:"market_validation"`
	Risks              []Risk             `json:"risks"`
	ValidationStatus   analysis.Status    `json:"validation_status"`
	CriticalIssues     []CriticalIssue    `json:"critical_issues"`
	NextSteps          []NextStep         `json:"next_steps_report"`
}

// Archive keeps an immutable copy of every generated report.
type Archive interface {
	Put(ctx context.Context, id analysis.ID, data json.RawMessage, at time.Time) (string, error)
}
