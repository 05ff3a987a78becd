// Package record maps domain entities onto the flat rows every SQL adapter
// stores. JSON columns travel as strings so that MySQL JSON, Postgres JSONB
// and SQLite TEXT all accept them.
package record

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/idea"
)

// AnalysisColumns in the order used by Args and Dest.
const AnalysisColumns = `id, idea_name, problem_statement, target_audience, unique_value_proposition,
  product_description, total_score, validation_status, market_opportunity, competitive_advantage,
  feasibility, revenue_potential, market_timing, scalability, critical_issues, report_generated,
  report_data, report_generated_at, created_at, updated_at`

// AnalysisColumnCount matches AnalysisColumns.
const AnalysisColumnCount = 20

type Analysis struct {
	ID                     string         `db:"id"`
	IdeaName               string         `db:"idea_name"`
	ProblemStatement       string         `db:"problem_statement"`
	TargetAudience         string         `db:"target_audience"`
	UniqueValueProposition string         `db:"unique_value_proposition"`
	ProductDescription     string         `db:"product_description"`
	TotalScore             int            `db:"total_score"`
	ValidationStatus       string         `db:"validation_status"`
	MarketOpportunity      string         `db:"market_opportunity"`
	CompetitiveAdvantage   string         `db:"competitive_advantage"`
	Feasibility            string         `db:"feasibility"`
	RevenuePotential       string         `db:"revenue_potential"`
	MarketTiming           string         `db:"market_timing"`
	Scalability            string         `db:"scalability"`
	CriticalIssues         string         `db:"critical_issues"`
	ReportGenerated        bool           `db:"report_generated"`
	ReportData             sql.NullString `db:"report_data"`
	ReportGeneratedAt      sql.NullTime   `db:"report_generated_at"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

func FromAnalysis(a *analysis.Analysis) (*Analysis, error) {
	r := &Analysis{
		ID:                     string(a.ID),
		IdeaName:               a.Name,
		ProblemStatement:       a.ProblemStatement,
		TargetAudience:         a.TargetAudience,
		UniqueValueProposition: a.UniqueValueProposition,
		ProductDescription:     a.ProductDescription,
		TotalScore:             a.TotalScore,
		ValidationStatus:       string(a.ValidationStatus),
		ReportGenerated:        a.ReportGenerated,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
	var err error
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&r.MarketOpportunity, a.MarketOpportunity},
		{&r.CompetitiveAdvantage, a.CompetitiveAdvantage},
		{&r.Feasibility, a.Feasibility},
		{&r.RevenuePotential, a.RevenuePotential},
		{&r.MarketTiming, a.MarketTiming},
		{&r.Scalability, a.Scalability},
		{&r.CriticalIssues, a.CriticalIssues},
	} {
		if *f.dst, err = encode(f.v); err != nil {
			return nil, err
		}
	}
	if len(a.ReportData) > 0 {
		r.ReportData = sql.NullString{String: string(a.ReportData), Valid: true}
	}
	if a.ReportGeneratedAt != nil {
		r.ReportGeneratedAt = sql.NullTime{Time: *a.ReportGeneratedAt, Valid: true}
	}
	return r, nil
}

func (r *Analysis) ToAnalysis() (*analysis.Analysis, error) {
	a := &analysis.Analysis{
		ID: analysis.ID(r.ID),
		Idea: idea.Idea{
			Name:                   r.IdeaName,
			ProblemStatement:       r.ProblemStatement,
			TargetAudience:         r.TargetAudience,
			UniqueValueProposition: r.UniqueValueProposition,
			ProductDescription:     r.ProductDescription,
		},
		TotalScore:       r.TotalScore,
		ValidationStatus: analysis.Status(r.ValidationStatus),
		ReportGenerated:  r.ReportGenerated,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	for _, f := range []struct {
		col string
		src string
		dst any
	}{
		{"market_opportunity", r.MarketOpportunity, &a.MarketOpportunity},
		{"competitive_advantage", r.CompetitiveAdvantage, &a.CompetitiveAdvantage},
		{"feasibility", r.Feasibility, &a.Feasibility},
		{"revenue_potential", r.RevenuePotential, &a.RevenuePotential},
		{"market_timing", r.MarketTiming, &a.MarketTiming},
		{"scalability", r.Scalability, &a.Scalability},
		{"critical_issues", r.CriticalIssues, &a.CriticalIssues},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("decode %s of analysis %s: %w", f.col, r.ID, err)
		}
	}
	if r.ReportData.Valid {
		a.ReportData = json.RawMessage(r.ReportData.String)
	}
	if r.ReportGeneratedAt.Valid {
		t := r.ReportGeneratedAt.Time.UTC()
		a.ReportGeneratedAt = &t
	}
	return a, nil
}

// Args returns the column values in AnalysisColumns order.
func (r *Analysis) Args() []any {
	return []any{
		r.ID, r.IdeaName, r.ProblemStatement, r.TargetAudience, r.UniqueValueProposition,
		r.ProductDescription, r.TotalScore, r.ValidationStatus, r.MarketOpportunity, r.CompetitiveAdvantage,
		r.Feasibility, r.RevenuePotential, r.MarketTiming, r.Scalability, r.CriticalIssues, r.ReportGenerated,
		r.ReportData, r.ReportGeneratedAt, r.CreatedAt, r.UpdatedAt,
	}
}

// Dest returns scan targets in AnalysisColumns order.
func (r *Analysis) Dest() []any {
	return []any{
		&r.ID, &r.IdeaName, &r.ProblemStatement, &r.TargetAudience, &r.UniqueValueProposition,
		&r.ProductDescription, &r.TotalScore, &r.ValidationStatus, &r.MarketOpportunity, &r.CompetitiveAdvantage,
		&r.Feasibility, &r.RevenuePotential, &r.MarketTiming, &r.Scalability, &r.CriticalIssues, &r.ReportGenerated,
		&r.ReportData, &r.ReportGeneratedAt, &r.CreatedAt, &r.UpdatedAt,
	}
}

const TokenColumns = "token, email, analysis_id, created_at, expires_at"

type Token struct {
	Token      string    `db:"token"`
	Email      string    `db:"email"`
	AnalysisID string    `db:"analysis_id"`
	CreatedAt  time.Time `db:"created_at"`
	ExpiresAt  time.Time `db:"expires_at"`
}

func FromToken(t *access.Token) *Token {
	return &Token{
		Token:      t.Token,
		Email:      t.Email,
		AnalysisID: string(t.AnalysisID),
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
	}
}

func (r *Token) ToToken() *access.Token {
	return &access.Token{
		Token:      r.Token,
		Email:      r.Email,
		AnalysisID: analysis.ID(r.AnalysisID),
		CreatedAt:  r.CreatedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
	}
}

func (r *Token) Args() []any {
	return []any{r.Token, r.Email, r.AnalysisID, r.CreatedAt, r.ExpiresAt}
}

func (r *Token) Dest() []any {
	return []any{&r.Token, &r.Email, &r.AnalysisID, &r.CreatedAt, &r.ExpiresAt}
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Columns splits a column list constant into names.
func Columns(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// MutableAnalysisColumns are rewritten when an existing analysis is saved again.
func MutableAnalysisColumns() []string {
	var out []string
	for _, c := range Columns(AnalysisColumns) {
		if c != "id" && c != "created_at" {
			out = append(out, c)
		}
	}
	return out
}
