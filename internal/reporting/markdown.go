package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Lombard Credit Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Runs: %d | Regimes: %d\n\n", r.RunCount, len(r.RegimeRows)))

	// Regime statistics
	sb.WriteString("## Regime Statistics\n\n")
	if len(r.RegimeRows) == 0 {
		sb.WriteString("No results available.\n")
		return sb.String()
	}

	sb.WriteString("| Regime | Mean Return | Paths | Profit Prob. | Expected Value | VaR | Liquidation Rate |\n")
	sb.WriteString("|--------|-------------|-------|--------------|----------------|-----|------------------|\n")
	for _, row := range r.RegimeRows {
		sb.WriteString(fmt.Sprintf("| %s | %.2f%% | %d | %.2f%% | %.0f | %.0f | %.2f%% |\n",
			row.RegimeName,
			row.MeanReturn*100,
			row.Repeats,
			row.ProfitProbability*100,
			row.ExpectedValue,
			row.ValueAtRisk,
			row.LiquidationRate*100,
		))
	}
	sb.WriteString("\n")

	// Run references for traceability back to stored per-path outcomes
	sb.WriteString("## Run References\n\n")
	for _, row := range r.RegimeRows {
		sb.WriteString(fmt.Sprintf("- %s / %s (VaR confidence %.0f%%)\n",
			row.RunID, row.RegimeName, row.Confidence*100))
	}

	return sb.String()
}
