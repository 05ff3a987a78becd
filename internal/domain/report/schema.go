package report

import (
	"github.com/bryanwahyu/launchlab/internal/domain/analysis"
	c "github.com/bryanwahyu/launchlab/internal/domain/contract"
)

// SchemaName is the function/schema name announced to the model.
const SchemaName = "validation_roadmap"

func objects(fields ...string) *c.Node {
	props := make([]c.Property, 0, len(fields))
	for _, f := range fields {
		props = append(props, c.Field(f, c.String()))
	}
	return c.Array(c.Object(props...))
}

// Schema is the contract for a validation roadmap.
func Schema() *c.Node {
	return c.Object(
		c.Field("validation_strategy", c.Object(
			c.Field("summary", c.String()),
			c.Field("key_objectives", c.Strings()),
			c.Field("timeline", c.String()),
		)),
		c.Field("customer_validation", c.Object(
			c.Field("target_segments", objects("segment", "characteristics", "finding_channels")),
			c.Field("interview_questions", c.Strings()),
			c.Field("success_metrics", c.Strings()),
		)),
		c.Field("solution_validation", c.Object(
			c.Field("mvp_features", objects("feature", "purpose", "testing_approach")),
			c.Field("testing_methods", objects("method", "description", "expected_outcome")),
		)),
		c.Field("market_validation", c.Object(
			c.Field("market_research", objects("area", "sources", "metrics")),
			c.Field("competitor_analysis", objects("competitor", "strengths", "weaknesses")),
		)),
		c.Field("risks", objects("risk", "impact", "mitigation_strategy")),
		c.Field("validation_status", c.Enum(analysis.Statuses()...)),
		c.Field("critical_issues", objects("issue", "impact", "recommendation")),
		c.Field("next_steps_report", c.Array(c.Object(
			c.Field("step", c.String()),
			c.Field("details", c.String()),
			c.Field("priority", c.Enum(string(PriorityHigh), string(PriorityMedium), string(PriorityLow))),
		))),
	)
}
