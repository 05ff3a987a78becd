package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/bryanwahyu/launchlab/internal/domain/idea"
)

func categories(mo, ca, f, rp, mt, s int) Categories {
	return Categories{
		MarketOpportunity:    Category{Score: float64(mo)},
		CompetitiveAdvantage: Category{Score: float64(ca)},
		Feasibility:          Category{Score: float64(f)},
		RevenuePotential:     Category{Score: float64(rp)},
		MarketTiming:         Category{Score: float64(mt)},
		Scalability:          Category{Score: float64(s)},
	}
}

func TestTotalScoreExample(t *testing.T) {
	c := categories(80, 70, 60, 50, 90, 40)
	if got := TotalScore(c); got != 68 {
		t.Fatalf("expected 68, got %d", got)
	}
	if got := StatusFor(68); got != StatusRefinement {
		t.Fatalf("expected %q, got %q", StatusRefinement, got)
	}
}

func TestTotalScoreMatchesRoundedWeightedMean(t *testing.T) {
	for _, sc := range [][6]int{
		{0, 0, 0, 0, 0, 0},
		{100, 100, 100, 100, 100, 100},
		{1, 0, 0, 0, 0, 1},
		{33, 67, 12, 99, 45, 71},
		{2, 0, 0, 0, 0, 0},
		{55, 55, 55, 55, 55, 54},
	} {
		c := categories(sc[0], sc[1], sc[2], sc[3], sc[4], sc[5])
		want := int(math.Floor(0.25*float64(sc[0]) + 0.20*float64(sc[1]) + 0.15*float64(sc[2]) +
			0.15*float64(sc[3]) + 0.15*float64(sc[4]) + 0.10*float64(sc[5]) + 0.5 + 1e-9))
		got := TotalScore(c)
		if got != want {
			t.Errorf("%v: expected %d, got %d", sc, want, got)
		}
		if got < 0 || got > 100 {
			t.Errorf("%v: total %d out of range", sc, got)
		}
	}
}

func TestTotalScoreFractionalScores(t *testing.T) {
	c := categories(80, 70, 60, 50, 90, 40)
	// 67.875
	c.MarketOpportunity.Score = 79.5
	if got := TotalScore(c); got != 68 {
		t.Fatalf("expected 68, got %d", got)
	}
	// 68.5 exactly rounds up
	c.MarketOpportunity.Score = 82
	if got := TotalScore(c); got != 69 {
		t.Fatalf("expected 69, got %d", got)
	}
	c.Scalability.Score = math.NaN()
	if got := TotalScore(c); got != 65 {
		t.Fatalf("expected NaN to count as zero, got %d", got)
	}
}

func TestTotalScoreClampsOutOfRangeScores(t *testing.T) {
	if got := TotalScore(categories(150, 150, 150, 150, 150, 150)); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := TotalScore(categories(-5, -5, -5, -5, -5, -5)); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestStatusPartition(t *testing.T) {
	for total := 0; total <= 100; total++ {
		got := StatusFor(total)
		var want Status
		switch {
		case total >= 70:
			want = StatusReady
		case total >= 50:
			want = StatusRefinement
		default:
			want = StatusConcerns
		}
		if got != want {
			t.Fatalf("total %d: expected %q, got %q", total, want, got)
		}
	}
}

func TestNewIgnoresModelTotal(t *testing.T) {
	r := Result{
		Categories:       categories(80, 70, 60, 50, 90, 40),
		TotalScore:       95.75,
		ValidationStatus: StatusReady,
	}
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	a := New("a1", idea.Idea{ProblemStatement: "  padded  "}, r, now)
	if a.TotalScore != 68 || a.ValidationStatus != StatusRefinement {
		t.Fatalf("expected recomputed 68/%s, got %d/%s", StatusRefinement, a.TotalScore, a.ValidationStatus)
	}
	if a.ProblemStatement != "padded" {
		t.Fatalf("idea not normalized: %q", a.ProblemStatement)
	}
	if a.CriticalIssues == nil || a.ReportGenerated {
		t.Fatal("new analysis should have empty issues and no report")
	}
}
