package model

// Canonical metric keys.
const (
	MetricAvailability = "availability"
	MetricPerformance  = "performance"
	MetricQuality      = "quality"
	MetricOEE          = "oee"
	MetricUtilization  = "utilization"
	MetricTEEP         = "teep"
	MetricMTBF         = "mtbf"
	MetricMTTR         = "mttr"
	MetricScrapRate    = "scrap_rate"
	MetricReworkRate   = "rework_rate"
)

// Metric units.
const (
	UnitRatio = "ratio"
	UnitHours = "hours"
)

// MetricValue is one computed metric with the formula text and the named
// intermediate quantities that produced it, making every number auditable
// without re-deriving it.
type MetricValue struct {
	Key           string             `json:"key"`
	Value         float64            `json:"value"`
	Unit          string             `json:"unit"`
	Formula       string             `json:"formula"`
	Confidence    Confidence         `json:"confidence"`
	FormulaParams map[string]float64 `json:"formula_params,omitempty"`
}

// CoreMetrics holds the three OEE factors and their product.
type CoreMetrics struct {
	Availability MetricValue `json:"availability"`
	Performance  MetricValue `json:"performance"`
	Quality      MetricValue `json:"quality"`
	OEE          MetricValue `json:"oee"`
}

// ExtendedMetrics holds the secondary effectiveness measures. Pointer
// fields are nil when the metric is undefined for the input, which the
// wire form renders as absent rather than zero.
type ExtendedMetrics struct {
	Utilization MetricValue  `json:"utilization"`
	TEEP        *MetricValue `json:"teep,omitempty"`
	MTBF        *MetricValue `json:"mtbf,omitempty"`
	MTTR        *MetricValue `json:"mttr,omitempty"`
	ScrapRate   MetricValue  `json:"scrap_rate"`
	ReworkRate  MetricValue  `json:"rework_rate"`
}
