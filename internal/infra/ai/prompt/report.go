package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
)

const reportSystem = `You are LaunchLab's startup validator. The founder already has a scored analysis of their idea; your job is to turn it into a validation roadmap they can start on this week with real customers.

Cover these areas:
1. Validation strategy: a short summary, measurable key objectives and a realistic timeline.
2. Customer validation: target segments (who they are and where to find them), interview questions that get at the real problem, and success metrics.
3. Solution validation: the MVP features that test the riskiest assumptions, with a testing method and an expected outcome for each.
4. Market validation: research areas with sources and metrics, and direct or indirect competitors with their strengths and weaknesses.
5. Risks: likely showstoppers with their impact and a mitigation strategy. Flag critical issues that need attention now.
6. Next steps: concrete actions, each with details and a priority of HIGH, MEDIUM or LOW.

Stay practical. No business-plan theory, only steps that produce real evidence.`

// ReportSystemPrompt is the fixed persona for roadmap generation.
func ReportSystemPrompt() string { return reportSystem }

// ReportUserPrompt summarizes the stored analysis for the roadmap call.
func ReportUserPrompt(a *analysis.Analysis) string {
	var b strings.Builder
	b.WriteString("Generate a validation roadmap for this idea based on the previous analysis:\n\n")
	if a.Name != "" {
		fmt.Fprintf(&b, "Idea Name: %s\n", a.Name)
	}
	fmt.Fprintf(&b, "Problem Statement: %s\n", a.ProblemStatement)
	fmt.Fprintf(&b, "Target Audience: %s\n", a.TargetAudience)
	fmt.Fprintf(&b, "Unique Value Proposition: %s\n", a.UniqueValueProposition)
	fmt.Fprintf(&b, "Product Description: %s\n\n", a.ProductDescription)

	fmt.Fprintf(&b, "Previous Analysis (total %d/100, %s):\n", a.TotalScore, a.ValidationStatus)
	for _, w := range a.Weighted() {
		fmt.Fprintf(&b, "\n%s: %g/100\n", w.Label, w.Category.Score)
		for _, in := range w.Category.Insights {
			fmt.Fprintf(&b, "- %s: %s\n", in.Title, in.Description)
		}
	}
	if len(a.CriticalIssues) > 0 {
		b.WriteString("\nCritical Issues:\n")
		for _, ci := range a.CriticalIssues {
			fmt.Fprintf(&b, "- %s (recommendation: %s)\n", ci.Issue, ci.Recommendation)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
