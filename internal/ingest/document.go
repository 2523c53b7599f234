// Package ingest turns observation documents (YAML, JSON, XLSX) into the
// engine's structured input. Only document shape is checked here; physical
// consistency stays with the validation pipeline.
package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/plantworks/oee-cli/internal/model"
)

// observationDocument is the wire shape shared by the YAML and JSON
// loaders. The XLSX loader assembles the same struct from sheet cells.
type observationDocument struct {
	Machine     machineSection     `yaml:"machine" json:"machine"`
	Window      windowSection      `yaml:"window" json:"window"`
	Time        timeSection        `yaml:"time" json:"time"`
	Production  productionSection  `yaml:"production" json:"production"`
	Cycle       cycleSection       `yaml:"cycle" json:"cycle"`
	Downtime    []downtimeRow      `yaml:"downtime" json:"downtime"`
	ScrapEvents []scrapEventRow    `yaml:"scrap_events" json:"scrap_events"`
	Thresholds  *thresholdsSection `yaml:"thresholds" json:"thresholds"`
}

type machineSection struct {
	MachineID string `yaml:"machine_id" json:"machine_id"`
	Line      string `yaml:"line" json:"line"`
	Product   string `yaml:"product" json:"product"`
	Shift     string `yaml:"shift" json:"shift"`
}

type windowSection struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

type timeSection struct {
	PlannedProductionTime flexDuration    `yaml:"planned_production_time" json:"planned_production_time"`
	AllTime               *flexDuration   `yaml:"all_time" json:"all_time"`
	Allocations           []allocationRow `yaml:"allocations" json:"allocations"`
}

type allocationRow struct {
	State    string       `yaml:"state" json:"state"`
	Duration flexDuration `yaml:"duration" json:"duration"`
}

type productionSection struct {
	TotalUnits    *flexCount `yaml:"total_units" json:"total_units"`
	GoodUnits     *flexCount `yaml:"good_units" json:"good_units"`
	ScrapUnits    *flexCount `yaml:"scrap_units" json:"scrap_units"`
	ReworkedUnits *flexCount `yaml:"reworked_units" json:"reworked_units"`
}

type cycleSection struct {
	IdealCycleTime   *flexDuration `yaml:"ideal_cycle_time" json:"ideal_cycle_time"`
	AverageCycleTime *flexDuration `yaml:"average_cycle_time" json:"average_cycle_time"`
}

type downtimeRow struct {
	Duration  string   `yaml:"duration" json:"duration"`
	IsFailure bool     `yaml:"is_failure" json:"is_failure"`
	Reason    []string `yaml:"reason" json:"reason"`
}

type scrapEventRow struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Units     int64     `yaml:"units" json:"units"`
	Reason    []string  `yaml:"reason" json:"reason"`
}

type thresholdsSection struct {
	MicroStoppageThreshold  *flexDuration `yaml:"micro_stoppage_threshold" json:"micro_stoppage_threshold"`
	SmallStopThreshold      *flexDuration `yaml:"small_stop_threshold" json:"small_stop_threshold"`
	SpeedLossThreshold      *flexRatio    `yaml:"speed_loss_threshold" json:"speed_loss_threshold"`
	HighScrapRateThreshold  *flexRatio    `yaml:"high_scrap_rate_threshold" json:"high_scrap_rate_threshold"`
	LowUtilizationThreshold *flexRatio    `yaml:"low_utilization_threshold" json:"low_utilization_threshold"`
}

// flexDuration accepts either a bare Go duration string or an envelope
// {value, source}. The bare form reads as explicitly supplied.
type flexDuration struct {
	value  time.Duration
	source model.Source
	set    bool
}

type durationEnvelope struct {
	Value  string `yaml:"value" json:"value"`
	Source string `yaml:"source" json:"source"`
}

func (f *flexDuration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var env durationEnvelope
		if err := node.Decode(&env); err != nil {
			return eris.Wrap(err, "ingest: decode duration envelope")
		}
		return f.fill(env.Value, env.Source)
	}
	var raw string
	if err := node.Decode(&raw); err != nil {
		return eris.Wrap(err, "ingest: decode duration")
	}
	return f.fill(raw, "")
}

func (f *flexDuration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var env durationEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return eris.Wrap(err, "ingest: decode duration envelope")
		}
		return f.fill(env.Value, env.Source)
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "ingest: decode duration")
	}
	return f.fill(raw, "")
}

func (f *flexDuration) fill(raw, source string) error {
	d, err := parseDuration(raw)
	if err != nil {
		return err
	}
	src, err := parseSource(source)
	if err != nil {
		return err
	}
	f.value, f.source, f.set = d, src, true
	return nil
}

func (f *flexDuration) provenance() model.Value[time.Duration] {
	if f == nil || !f.set {
		return model.Default(time.Duration(0))
	}
	return model.Tagged(f.value, f.source)
}

// flexCount accepts either a bare non-negative integer or an envelope
// {value, source}.
type flexCount struct {
	value  int64
	source model.Source
}

type countEnvelope struct {
	Value  int64  `yaml:"value" json:"value"`
	Source string `yaml:"source" json:"source"`
}

func (f *flexCount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var env countEnvelope
		if err := node.Decode(&env); err != nil {
			return eris.Wrap(err, "ingest: decode count envelope")
		}
		return f.fill(env.Value, env.Source)
	}
	var raw int64
	if err := node.Decode(&raw); err != nil {
		return eris.Wrap(err, "ingest: decode count")
	}
	return f.fill(raw, "")
}

func (f *flexCount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var env countEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return eris.Wrap(err, "ingest: decode count envelope")
		}
		return f.fill(env.Value, env.Source)
	}
	var raw int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "ingest: decode count")
	}
	return f.fill(raw, "")
}

func (f *flexCount) fill(v int64, source string) error {
	if v < 0 {
		return eris.Errorf("ingest: count %d must not be negative", v)
	}
	src, err := parseSource(source)
	if err != nil {
		return err
	}
	f.value, f.source = v, src
	return nil
}

func (f *flexCount) provenance() model.Value[int64] {
	if f == nil {
		return model.Default[int64](0)
	}
	return model.Tagged(f.value, f.source)
}

// flexRatio accepts either a bare non-negative number or an envelope
// {value, source}.
type flexRatio struct {
	value  float64
	source model.Source
}

type ratioEnvelope struct {
	Value  float64 `yaml:"value" json:"value"`
	Source string  `yaml:"source" json:"source"`
}

func (f *flexRatio) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var env ratioEnvelope
		if err := node.Decode(&env); err != nil {
			return eris.Wrap(err, "ingest: decode ratio envelope")
		}
		return f.fill(env.Value, env.Source)
	}
	var raw float64
	if err := node.Decode(&raw); err != nil {
		return eris.Wrap(err, "ingest: decode ratio")
	}
	return f.fill(raw, "")
}

func (f *flexRatio) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var env ratioEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return eris.Wrap(err, "ingest: decode ratio envelope")
		}
		return f.fill(env.Value, env.Source)
	}
	var raw float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "ingest: decode ratio")
	}
	return f.fill(raw, "")
}

func (f *flexRatio) fill(v float64, source string) error {
	if v < 0 {
		return eris.Errorf("ingest: ratio %g must not be negative", v)
	}
	src, err := parseSource(source)
	if err != nil {
		return err
	}
	f.value, f.source = v, src
	return nil
}

func (f *flexRatio) provenance() model.Value[float64] {
	if f == nil {
		return model.Default(0.0)
	}
	return model.Tagged(f.value, f.source)
}

func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: parse duration %q", raw)
	}
	if d < 0 {
		return 0, eris.Errorf("ingest: duration %q must not be negative", raw)
	}
	return d, nil
}

// parseSource maps a provenance label onto a source tag. The empty label
// is the bare form and reads as explicit.
func parseSource(raw string) (model.Source, error) {
	switch src := model.Source(strings.ToLower(strings.TrimSpace(raw))); src {
	case "":
		return model.SourceExplicit, nil
	case model.SourceExplicit, model.SourceInferred, model.SourceDefault:
		return src, nil
	default:
		return "", eris.Errorf("ingest: unknown provenance source %q", raw)
	}
}

// toInput converts the decoded document into the engine input. Machine
// identity and the observation window are the only hard requirements;
// everything else defaults and lets the validation pipeline judge it.
func (d *observationDocument) toInput() (*model.AnalysisInput, error) {
	if strings.TrimSpace(d.Machine.MachineID) == "" {
		return nil, eris.New("ingest: machine.machine_id is required")
	}
	if d.Window.Start.IsZero() || d.Window.End.IsZero() {
		return nil, eris.New("ingest: window.start and window.end are required")
	}

	in := &model.AnalysisInput{
		Window: model.AnalysisWindow{Start: d.Window.Start.UTC(), End: d.Window.End.UTC()},
		Machine: model.MachineContext{
			MachineID: strings.TrimSpace(d.Machine.MachineID),
			Line:      strings.TrimSpace(d.Machine.Line),
			Product:   strings.TrimSpace(d.Machine.Product),
			Shift:     strings.TrimSpace(d.Machine.Shift),
		},
	}

	in.Time.PlannedProductionTime = d.Time.PlannedProductionTime.provenance()
	if d.Time.AllTime != nil {
		all := d.Time.AllTime.provenance()
		in.Time.AllTime = &all
	}
	for i, row := range d.Time.Allocations {
		if !row.Duration.set {
			return nil, eris.Errorf("ingest: allocation %d has no duration", i)
		}
		in.Time.Allocations = append(in.Time.Allocations, model.TimeAllocation{
			State:    model.ParseMachineState(strings.ToLower(strings.TrimSpace(row.State))),
			Duration: row.Duration.provenance(),
		})
	}

	in.Production.TotalUnits = d.Production.TotalUnits.provenance()
	in.Production.GoodUnits = d.Production.GoodUnits.provenance()
	in.Production.ScrapUnits = d.Production.ScrapUnits.provenance()
	in.Production.ReworkedUnits = d.Production.ReworkedUnits.provenance()

	in.Cycle.IdealCycleTime = d.Cycle.IdealCycleTime.provenance()
	if d.Cycle.AverageCycleTime != nil {
		avg := d.Cycle.AverageCycleTime.provenance()
		in.Cycle.AverageCycleTime = &avg
	}

	for i, row := range d.Downtime {
		dur, err := parseDuration(row.Duration)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: downtime record %d", i)
		}
		in.Downtime = append(in.Downtime, model.DowntimeRecord{
			Duration:  dur,
			IsFailure: row.IsFailure,
			Reason:    reasonCode(row.Reason),
		})
	}

	for i, row := range d.ScrapEvents {
		if row.Timestamp.IsZero() {
			return nil, eris.Errorf("ingest: scrap event %d has no timestamp", i)
		}
		if row.Units < 0 {
			return nil, eris.Errorf("ingest: scrap event %d has negative units", i)
		}
		in.ScrapEvents = append(in.ScrapEvents, model.ScrapEvent{
			Timestamp: row.Timestamp.UTC(),
			Units:     row.Units,
			Reason:    reasonCode(row.Reason),
		})
	}

	if d.Thresholds != nil {
		t := d.Thresholds.toConfig()
		in.Thresholds = &t
	}
	return in, nil
}

// toConfig overlays the provided fields on the built-in defaults.
func (t *thresholdsSection) toConfig() model.ThresholdConfiguration {
	cfg := model.DefaultThresholds()
	if t.MicroStoppageThreshold != nil {
		cfg.MicroStoppageThreshold = t.MicroStoppageThreshold.provenance()
	}
	if t.SmallStopThreshold != nil {
		cfg.SmallStopThreshold = t.SmallStopThreshold.provenance()
	}
	if t.SpeedLossThreshold != nil {
		cfg.SpeedLossThreshold = t.SpeedLossThreshold.provenance()
	}
	if t.HighScrapRateThreshold != nil {
		cfg.HighScrapRateThreshold = t.HighScrapRateThreshold.provenance()
	}
	if t.LowUtilizationThreshold != nil {
		cfg.LowUtilizationThreshold = t.LowUtilizationThreshold.provenance()
	}
	return cfg
}

func reasonCode(parts []string) model.ReasonCode {
	out := make(model.ReasonCode, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
