package engine

import (
	"time"

	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/scrap"
)

// buildLossTree decomposes planned time into the canonical loss families.
// Productive time is excluded by construction; the families are clamped
// in availability, performance, quality order so their cumulative
// duration never exceeds planned time even for inconsistent inputs that
// only drew warnings.
func buildLossTree(in *model.AnalysisInput, thresholds model.ThresholdConfiguration, totals model.Totals, scrapSplit *scrap.Analysis) model.LossTreeNode {
	micro := thresholds.MicroStoppageThreshold.Get()
	small := thresholds.SmallStopThreshold.Get()

	var breakdowns, microStops, smallStops, otherStops time.Duration
	for _, r := range in.Downtime {
		switch {
		case r.IsFailure:
			breakdowns += r.Duration
		case r.Duration < micro:
			// Too short to be a real availability event; the Six Big
			// Losses taxonomy books these against performance.
			microStops += r.Duration
		case r.Duration < small:
			smallStops += r.Duration
		default:
			otherStops += r.Duration
		}
	}
	setup := in.Time.StateTime(model.StateSetup)

	var speed time.Duration
	if s := totals.RunningSeconds - float64(totals.TotalUnits)*totals.IdealCycleSeconds; s > 0 {
		speed = time.Duration(s * float64(time.Second))
	}

	ideal := in.Cycle.IdealCycleTime.Get()
	startupUnits := int64(0)
	if scrapSplit != nil {
		startupUnits = scrapSplit.StartupUnits
		if startupUnits < 0 {
			startupUnits = 0
		}
		if startupUnits > totals.ScrapUnits {
			startupUnits = totals.ScrapUnits
		}
	}
	startupRejects := time.Duration(startupUnits) * ideal
	productionRejects := time.Duration(totals.ScrapUnits-startupUnits) * ideal

	availability := newFamily(model.LossAvailabilityFamily,
		lossLeaf{model.LossBreakdowns, breakdowns, model.ValueMeasured},
		lossLeaf{model.LossSetupChangeover, setup, model.ValueMeasured},
		lossLeaf{model.LossSmallStops, smallStops, model.ValueMeasured},
		lossLeaf{model.LossOtherStops, otherStops, model.ValueMeasured},
	)
	performance := newFamily(model.LossPerformanceFamily,
		lossLeaf{model.LossMicroStoppages, microStops, model.ValueMeasured},
		lossLeaf{model.LossSpeedLosses, speed, model.ValueDerived},
	)
	quality := newFamily(model.LossQualityFamily,
		lossLeaf{model.LossStartupRejects, startupRejects, model.ValueDerived},
		lossLeaf{model.LossProductionRejects, productionRejects, model.ValueDerived},
	)

	planned := in.Time.PlannedProductionTime.Get()
	root := model.LossTreeNode{
		Category:    model.LossRoot,
		Duration:    planned,
		ValueSource: model.ValueMeasured,
	}
	budget := planned
	for _, fam := range []*model.LossTreeNode{&availability, &performance, &quality} {
		clampFamily(fam, budget)
		budget -= fam.Duration
		root.Children = append(root.Children, *fam)
	}

	applyPercentages(&root, planned)
	return root
}

type lossLeaf struct {
	category string
	duration time.Duration
	source   model.ValueSource
}

// newFamily builds a family node from its non-zero leaves. The family
// duration is always the exact sum of its children.
func newFamily(category string, leaves ...lossLeaf) model.LossTreeNode {
	fam := model.LossTreeNode{Category: category, ValueSource: model.ValueDerived}
	for _, l := range leaves {
		if l.duration <= 0 {
			continue
		}
		fam.Children = append(fam.Children, model.LossTreeNode{
			Category:    l.category,
			Duration:    l.duration,
			ValueSource: l.source,
		})
		fam.Duration += l.duration
	}
	return fam
}

// clampFamily shrinks a family to the remaining budget, scaling children
// proportionally. Truncation rounds each child down, so the rescaled sum
// never exceeds the budget.
func clampFamily(fam *model.LossTreeNode, budget time.Duration) {
	if fam.Duration <= budget {
		return
	}
	if budget < 0 {
		budget = 0
	}
	ratio := 0.0
	if fam.Duration > 0 {
		ratio = float64(budget) / float64(fam.Duration)
	}
	var sum time.Duration
	for i := range fam.Children {
		fam.Children[i].Duration = scaleDuration(fam.Children[i].Duration, ratio)
		sum += fam.Children[i].Duration
	}
	fam.Duration = sum
}

// applyPercentages fills percent-of-planned on every node and
// percent-of-parent on every non-root node.
func applyPercentages(root *model.LossTreeNode, planned time.Duration) {
	if planned > 0 {
		root.PercentOfPlanned = 1.0
	}
	for i := range root.Children {
		fam := &root.Children[i]
		fam.PercentOfPlanned = fraction(fam.Duration, planned)
		fam.PercentOfParent = ptr(fraction(fam.Duration, planned))
		for j := range fam.Children {
			child := &fam.Children[j]
			child.PercentOfPlanned = fraction(child.Duration, planned)
			child.PercentOfParent = ptr(fraction(child.Duration, fam.Duration))
		}
	}
}

func fraction(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func ptr(f float64) *float64 {
	return &f
}
