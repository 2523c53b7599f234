// Package report renders analysis output as markdown-flavored text for
// the terminal. JSON output is plain encoding/json of the result structs,
// so nothing here participates in the wire format.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/plantworks/oee-cli/internal/fleet"
	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/scrap"
	"github.com/plantworks/oee-cli/internal/sensitivity"
)

// printer groups thousands the English way; shared and safe for
// concurrent use.
var printer = message.NewPrinter(language.English)

// Format renders one analysis result.
func Format(result *model.EngineResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# OEE Analysis: %s\n\n", result.Machine.MachineID)
	fmt.Fprintf(&b, "Window: %s to %s (%s)\n",
		result.Window.Start.Format(time.RFC3339),
		result.Window.End.Format(time.RFC3339),
		result.Window.Duration())
	if line := contextLine(result.Machine); line != "" {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "OEE %s (confidence %s)\n", percent(result.Core.OEE.Value), result.Confidence())
	fmt.Fprintf(&b, "- Availability %s\n", percent(result.Core.Availability.Value))
	fmt.Fprintf(&b, "- Performance %s\n", percent(result.Core.Performance.Value))
	fmt.Fprintf(&b, "- Quality %s\n", percent(result.Core.Quality.Value))

	b.WriteString("\n## Metrics\n\n")
	for _, m := range extendedInOrder(result.Extended) {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", m.Key, metricValue(m), m.Confidence)
	}
	fmt.Fprintf(&b, "\nUnits: %s total / %s good / %s scrap / %s reworked\n",
		printer.Sprintf("%d", result.Totals.TotalUnits),
		printer.Sprintf("%d", result.Totals.GoodUnits),
		printer.Sprintf("%d", result.Totals.ScrapUnits),
		printer.Sprintf("%d", result.Totals.ReworkedUnits))

	b.WriteString("\n## Loss Tree\n\n")
	result.LossTree.Walk(func(node *model.LossTreeNode, depth int) {
		fmt.Fprintf(&b, "%s%-24s %12s %7s\n",
			strings.Repeat("  ", depth), node.Category, node.Duration, percent(node.PercentOfPlanned))
	})

	b.WriteString("\n## Assumptions\n\n")
	for _, a := range assumptionsByImpact(result.Ledger.Assumptions) {
		fmt.Fprintf(&b, "- [%s] %s = %s (%s)\n", a.Impact, a.Name, a.Value, a.Source)
	}
	stats := result.Ledger.SourceStats
	fmt.Fprintf(&b, "\nSources: %d explicit / %d inferred / %d default\n",
		stats.Explicit, stats.Inferred, stats.Default)

	if issues := result.Validation.Issues; len(issues) > 0 {
		b.WriteString("\n## Validation\n\n")
		for _, issue := range issues {
			b.WriteString(issueLine(issue) + "\n")
		}
	}

	if result.Economics != nil {
		e := result.Economics
		fmt.Fprintf(&b, "\n## Economics (%s)\n\n", e.Currency)
		fmt.Fprintf(&b, "- Downtime cost: %s\n", money(e.DowntimeCost))
		fmt.Fprintf(&b, "- Speed loss cost: %s\n", money(e.SpeedLossCost))
		fmt.Fprintf(&b, "- Scrap cost: %s\n", money(e.ScrapCost))
		fmt.Fprintf(&b, "- Rework cost: %s\n", money(e.ReworkCost))
		fmt.Fprintf(&b, "- Total loss cost: %s\n", money(e.TotalLossCost))
		fmt.Fprintf(&b, "- Lost revenue opportunity: %s\n", money(e.LostRevenueOpportunity))
	}

	return b.String()
}

// FormatSensitivity renders a perturbation report, parameters in
// canonical order.
func FormatSensitivity(rep *sensitivity.Report) string {
	var b strings.Builder

	b.WriteString("# Sensitivity Analysis\n\n")
	fmt.Fprintf(&b, "Baseline OEE %s, variation %s\n\n", percent(rep.BaselineOEE), percent(rep.Variation))
	for _, r := range rep.Results {
		fmt.Fprintf(&b, "- %-18s OEE %s -> %s (delta %+.4f, %s)\n",
			r.Parameter, percent(r.BaselineOEE), percent(r.VariedOEE), r.Delta, r.Impact)
	}
	fmt.Fprintf(&b, "\nMost sensitive: %s\nLeast sensitive: %s\n", rep.MostSensitive, rep.LeastSensitive)

	return b.String()
}

// FormatFleet renders a system-level aggregation report.
func FormatFleet(rep *fleet.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fleet Report (%s, %d machines)\n\n", rep.Strategy, rep.MachineCount)
	fmt.Fprintf(&b, "System OEE %s (confidence %s)\n", percent(rep.SystemOEE), rep.SystemConfidence)
	fmt.Fprintf(&b, "- Availability %s / Performance %s / Quality %s\n",
		percent(rep.SystemAvailability), percent(rep.SystemPerformance), percent(rep.SystemQuality))
	fmt.Fprintf(&b, "- Best %s / Worst %s\n", rep.BestMachine, rep.WorstMachine)
	if rep.CapacityUnitsPerHour > 0 {
		fmt.Fprintf(&b, "- Capacity %s units/hour\n", printer.Sprintf("%.0f", rep.CapacityUnitsPerHour))
	}

	b.WriteString("\n## Machines\n\n")
	for _, m := range rep.Machines {
		fmt.Fprintf(&b, "- %-12s OEE %s  A %s  P %s  Q %s  (%s)\n",
			m.MachineID, percent(m.OEE), percent(m.Availability), percent(m.Performance), percent(m.Quality), m.Confidence)
	}

	if len(rep.Bottlenecks) > 0 {
		b.WriteString("\n## Bottlenecks\n\n")
		for _, bn := range rep.Bottlenecks {
			fmt.Fprintf(&b, "- %s OEE %s, weakest %s -> %s (impact %s units/hour)\n",
				bn.MachineID, percent(bn.OEE), bn.WeakestFactor, bn.RecommendedAction,
				printer.Sprintf("%.1f", bn.ThroughputImpact))
		}
	}

	return b.String()
}

// FormatScrap renders a temporal scrap analysis.
func FormatScrap(a *scrap.Analysis) string {
	var b strings.Builder

	b.WriteString("# Temporal Scrap Analysis\n\n")
	fmt.Fprintf(&b, "Events analyzed: %d\n", a.EventsAnalyzed)
	fmt.Fprintf(&b, "Boundary: %s (strategy %s)\n\n", a.Boundary.Format(time.RFC3339), a.BoundaryStrategy)
	fmt.Fprintf(&b, "- Startup: %s units (%s), time equivalent %s\n",
		printer.Sprintf("%d", a.StartupUnits), percent(a.StartupPercent), a.StartupTimeEquivalent)
	fmt.Fprintf(&b, "- Steady-state: %s units (%s), time equivalent %s\n",
		printer.Sprintf("%d", a.SteadyUnits), percent(a.SteadyPercent), a.SteadyTimeEquivalent)

	return b.String()
}

// FormatValidation renders the full issue list for the validate command.
func FormatValidation(result model.ValidationResult) string {
	var b strings.Builder

	b.WriteString("# Validation Report\n\n")
	if len(result.Issues) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}
	for _, issue := range result.Issues {
		b.WriteString(issueLine(issue) + "\n")
	}
	fmt.Fprintf(&b, "\n%d issue(s): %d fatal, %d warning(s)\n",
		len(result.Issues), len(result.Fatal()), len(result.Warnings()))

	return b.String()
}

func contextLine(m model.MachineContext) string {
	var parts []string
	if m.Line != "" {
		parts = append(parts, "Line: "+m.Line)
	}
	if m.Product != "" {
		parts = append(parts, "Product: "+m.Product)
	}
	if m.Shift != "" {
		parts = append(parts, "Shift: "+m.Shift)
	}
	return strings.Join(parts, " | ")
}

// extendedInOrder flattens the extended metrics in their fixed display
// order, skipping the ones undefined for this input.
func extendedInOrder(ext model.ExtendedMetrics) []model.MetricValue {
	out := []model.MetricValue{ext.Utilization}
	for _, opt := range []*model.MetricValue{ext.TEEP, ext.MTBF, ext.MTTR} {
		if opt != nil {
			out = append(out, *opt)
		}
	}
	return append(out, ext.ScrapRate, ext.ReworkRate)
}

func metricValue(m model.MetricValue) string {
	if m.Unit == model.UnitHours {
		return fmt.Sprintf("%.2f %s", m.Value, m.Unit)
	}
	return fmt.Sprintf("%.4f", m.Value)
}

// issueLine renders one validation issue with its params in key order.
func issueLine(issue model.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] %s", issue.Severity, issue.Code)
	if issue.Field != "" {
		fmt.Fprintf(&b, " (%s)", issue.Field)
	}
	fmt.Fprintf(&b, ": %s", issue.MessageKey)

	keys := make([]string, 0, len(issue.Params))
	for k := range issue.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, issue.Params[k])
	}
	return b.String()
}

// assumptionsByImpact orders critical first, then high, medium, low,
// keeping ledger order inside each band.
func assumptionsByImpact(assumptions []model.TrackedAssumption) []model.TrackedAssumption {
	rank := map[model.ImpactLevel]int{
		model.ImpactCritical: 0,
		model.ImpactHigh:     1,
		model.ImpactMedium:   2,
		model.ImpactLow:      3,
	}
	out := make([]model.TrackedAssumption, len(assumptions))
	copy(out, assumptions)
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Impact] < rank[out[j].Impact]
	})
	return out
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func money(v float64) string {
	return printer.Sprintf("%.2f", v)
}
