// Package dbtest holds the behaviour every repository adapter must share.
package dbtest

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/launchlab/internal/domain/access"
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	"github.com/bryanwahyu/launchlab/internal/domain/apperr"
	"github.com/bryanwahyu/launchlab/internal/domain/idea"
)

// Base is a fixed instant with whole-microsecond precision, which every
// supported store can hold exactly.
var Base = time.Date(2025, 4, 2, 10, 30, 0, 123000, time.UTC)

// SampleAnalysis returns a fully populated analysis with a new id.
func SampleAnalysis() *analysis.Analysis {
	cat := func(score float64) analysis.Category {
		return analysis.Category{
			Score: score,
			Insights: []analysis.Insight{
				{Title: "Clear pain", Description: "Owners complain weekly", ActionSteps: []string{"Interview 10 owners"}},
				{Title: "Thin data", Description: "Few public datasets"},
			},
			ImprovementTips: []string{"Talk to users", "Price early", "Narrow the niche"},
		}
	}
	r := analysis.Result{
		Categories: analysis.Categories{
			MarketOpportunity:    cat(80),
			CompetitiveAdvantage: cat(70),
			Feasibility:          cat(60),
			RevenuePotential:     cat(50),
			MarketTiming:         cat(90),
			Scalability:          cat(40),
		},
		CriticalIssues: []analysis.CriticalIssue{{Issue: "Regulation", Recommendation: "Ask a lawyer"}},
	}
	in := idea.Idea{
		Name:                   "Shelf",
		ProblemStatement:       "Small bookshops cannot predict which titles sell out.",
		TargetAudience:         "Independent bookshop owners.",
		UniqueValueProposition: "Forecasts from local reading clubs.",
		ProductDescription:     "A weekly reorder dashboard for small shops.",
	}
	return analysis.New(analysis.ID(uuid.NewString()), in, r, Base)
}

// AnalysisRepository exercises an analysis.Repository implementation.
func AnalysisRepository(t *testing.T, repo analysis.Repository) {
	ctx := context.Background()

	t.Run("roundtrip", func(t *testing.T) {
		a := SampleAnalysis()
		if err := repo.Save(ctx, a); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !reflect.DeepEqual(got.Categories, a.Categories) {
			t.Fatalf("categories changed:\n got %+v\nwant %+v", got.Categories, a.Categories)
		}
		if !reflect.DeepEqual(got.CriticalIssues, a.CriticalIssues) || got.Idea != a.Idea {
			t.Fatalf("analysis changed: %+v", got)
		}
		if got.TotalScore != 68 || got.ValidationStatus != analysis.StatusRefinement || got.ReportGenerated {
			t.Fatalf("unexpected score fields: %+v", got)
		}
		if !got.CreatedAt.Equal(a.CreatedAt) {
			t.Fatalf("created_at changed: %v != %v", got.CreatedAt, a.CreatedAt)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := repo.Get(ctx, analysis.ID(uuid.NewString())); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		err := repo.SaveReport(ctx, analysis.ID(uuid.NewString()), json.RawMessage(`{}`), Base)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("expected not found on report save, got %v", err)
		}
	})

	t.Run("report overwrite", func(t *testing.T) {
		a := SampleAnalysis()
		if err := repo.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
		at := Base.Add(time.Hour)
		if err := repo.SaveReport(ctx, a.ID, json.RawMessage(`{"v":1}`), at); err != nil {
			t.Fatal(err)
		}
		if err := repo.SaveReport(ctx, a.ID, json.RawMessage(`{"v":2}`), at.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}
		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.ReportGenerated || !jsonEqual(got.ReportData, `{"v":2}`) {
			t.Fatalf("expected last report to win, got %s", got.ReportData)
		}
		if got.ReportGeneratedAt == nil || !got.ReportGeneratedAt.Equal(at.Add(time.Minute)) {
			t.Fatalf("unexpected report time %v", got.ReportGeneratedAt)
		}
	})

	t.Run("concurrent reports", func(t *testing.T) {
		a := SampleAnalysis()
		if err := repo.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
		var wg sync.WaitGroup
		for _, body := range []string{`{"v":"a"}`, `{"v":"b"}`} {
			wg.Add(1)
			go func(body string) {
				defer wg.Done()
				if err := repo.SaveReport(ctx, a.ID, json.RawMessage(body), Base); err != nil {
					t.Errorf("save report: %v", err)
				}
			}(body)
		}
		wg.Wait()
		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !jsonEqual(got.ReportData, `{"v":"a"}`) && !jsonEqual(got.ReportData, `{"v":"b"}`) {
			t.Fatalf("report should be exactly one of the writes, got %s", got.ReportData)
		}
	})
}

// TokenRepository exercises an access.Repository implementation. analysisID
// must exist when the store enforces foreign keys.
func TokenRepository(t *testing.T, repo access.Repository, analysisID analysis.ID) {
	ctx := context.Background()
	tok, err := access.NewToken(nil, "founder@example.com", analysisID, Base, 7*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, tok); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, tok.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != tok.Email || got.AnalysisID != analysisID || !got.ExpiresAt.Equal(tok.ExpiresAt) {
		t.Fatalf("token changed: %+v", got)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func jsonEqual(raw json.RawMessage, want string) bool {
	var a, b any
	if json.Unmarshal(raw, &a) != nil || json.Unmarshal([]byte(want), &b) != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
