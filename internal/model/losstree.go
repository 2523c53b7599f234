package model

import "time"

// Loss-tree node categories.
const (
	LossRoot               = "planned_time"
	LossAvailabilityFamily = "availability_losses"
	LossPerformanceFamily  = "performance_losses"
	LossQualityFamily      = "quality_losses"
	LossBreakdowns         = "breakdowns"
	LossSetupChangeover    = "setup_changeover"
	LossSmallStops         = "small_stops"
	LossOtherStops         = "other_stops"
	LossMicroStoppages     = "micro_stoppages"
	LossSpeedLosses        = "speed_losses"
	LossStartupRejects     = "startup_rejects"
	LossProductionRejects  = "production_rejects"
)

// ValueSource tells whether a loss-tree duration was measured from records
// or derived arithmetically.
type ValueSource string

const (
	ValueMeasured ValueSource = "measured"
	ValueDerived  ValueSource = "derived"
)

// LossTreeNode is one node of the loss decomposition. PercentOfParent is
// nil at the root, where the notion has no referent.
type LossTreeNode struct {
	Category         string         `json:"category"`
	Duration         time.Duration  `json:"duration_ns"`
	PercentOfPlanned float64        `json:"percent_of_planned"`
	PercentOfParent  *float64       `json:"percent_of_parent,omitempty"`
	ValueSource      ValueSource    `json:"value_source"`
	Children         []LossTreeNode `json:"children,omitempty"`
}

// Child returns the direct child with the given category, or nil.
func (n *LossTreeNode) Child(category string) *LossTreeNode {
	for i := range n.Children {
		if n.Children[i].Category == category {
			return &n.Children[i]
		}
	}
	return nil
}

// ChildDuration sums the durations of the direct children.
func (n *LossTreeNode) ChildDuration() time.Duration {
	var total time.Duration
	for _, c := range n.Children {
		total += c.Duration
	}
	return total
}

// Walk visits the node and its descendants depth-first in child order.
func (n *LossTreeNode) Walk(visit func(node *LossTreeNode, depth int)) {
	n.walk(visit, 0)
}

func (n *LossTreeNode) walk(visit func(node *LossTreeNode, depth int), depth int) {
	visit(n, depth)
	for i := range n.Children {
		n.Children[i].walk(visit, depth+1)
	}
}
