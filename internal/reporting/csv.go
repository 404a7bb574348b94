package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders regime rows as CSV string.
func RenderCSV(rows []RegimeRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,regime_name,mean_return,repeats,liquidations,")
	sb.WriteString("profit_probability,expected_value,value_at_risk,liquidation_rate,confidence\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%d,%d,%.6f,%.6f,%.6f,%.6f,%.2f\n",
			r.RunID,
			r.RegimeName,
			r.MeanReturn,
			r.Repeats,
			r.Liquidations,
			r.ProfitProbability,
			r.ExpectedValue,
			r.ValueAtRisk,
			r.LiquidationRate,
			r.Confidence,
		))
	}

	return sb.String()
}
