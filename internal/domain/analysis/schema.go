package analysis

import "github.com/bryanwahyu/launchlab/internal/domain/contract"

// SchemaName is the function/schema name announced to the model.
const SchemaName = "startup_analysis"

var statuses = []string{string(StatusReady), string(StatusRefinement), string(StatusConcerns)}

// Statuses lists every valid verdict.
func Statuses() []string { return append([]string(nil), statuses...) }

func categorySchema(desc string) *contract.Node {
	return contract.Object(
		contract.Field("score", contract.Number(0, 100).Describe("Score from 0 to 100")),
		contract.Field("insights", contract.Array(contract.Object(
			contract.Field("title", contract.String()),
			contract.Field("description", contract.String()),
			contract.OptionalField("action_steps", contract.Strings()),
		))),
		contract.Field("improvement_tips", contract.Strings().Len(3, 3).Describe("Exactly three concrete tips")),
	).Describe(desc)
}

// Schema is the contract for an analysis result.
func Schema() *contract.Node {
	return contract.Object(
		contract.Field("market_opportunity", categorySchema("Market size, growth and demand signals")),
		contract.Field("competitive_advantage", categorySchema("Differentiation and defensibility")),
		contract.Field("feasibility", categorySchema("Technical and operational difficulty")),
		contract.Field("revenue_potential", categorySchema("Business model and pricing power")),
		contract.Field("market_timing", categorySchema("Why now")),
		contract.Field("scalability", categorySchema("Ability to grow without linear cost")),
		contract.Field("total_score", contract.Number(0, 100)),
		contract.Field("validation_status", contract.Enum(statuses...)),
		contract.Field("critical_issues", contract.Array(contract.Object(
			contract.Field("issue", contract.String()),
			contract.Field("recommendation", contract.String()),
		))),
	)
}
