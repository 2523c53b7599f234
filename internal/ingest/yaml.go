package ingest

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/plantworks/oee-cli/internal/model"
)

// ParseYAML decodes one observation document. Unknown keys are rejected.
func ParseYAML(data []byte) (*model.AnalysisInput, error) {
	var doc observationDocument
	if err := decodeStrictYAML(data, &doc); err != nil {
		return nil, eris.Wrap(err, "ingest: decode yaml document")
	}
	return doc.toInput()
}

// LoadYAML reads and parses an observation document from disk.
func LoadYAML(path string) (*model.AnalysisInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return ParseYAML(data)
}

// LoadThresholds reads a standalone threshold overlay. Absent fields keep
// their built-in defaults.
func LoadThresholds(path string) (*model.ThresholdConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	var sec thresholdsSection
	if err := decodeStrictYAML(data, &sec); err != nil {
		return nil, eris.Wrap(err, "ingest: decode thresholds")
	}
	cfg := sec.toConfig()
	return &cfg, nil
}

type economicsDocument struct {
	DowntimeCostPerHour float64 `yaml:"downtime_cost_per_hour"`
	RevenuePerUnit      float64 `yaml:"revenue_per_unit"`
	ScrapCostPerUnit    float64 `yaml:"scrap_cost_per_unit"`
	ReworkCostPerUnit   float64 `yaml:"rework_cost_per_unit"`
	Currency            string  `yaml:"currency"`
}

// LoadEconomics reads the cost and revenue rates used by the economics
// layer.
func LoadEconomics(path string) (*model.EconomicParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	var doc economicsDocument
	if err := decodeStrictYAML(data, &doc); err != nil {
		return nil, eris.Wrap(err, "ingest: decode economics")
	}
	rates := []struct {
		name string
		rate float64
	}{
		{name: "downtime_cost_per_hour", rate: doc.DowntimeCostPerHour},
		{name: "revenue_per_unit", rate: doc.RevenuePerUnit},
		{name: "scrap_cost_per_unit", rate: doc.ScrapCostPerUnit},
		{name: "rework_cost_per_unit", rate: doc.ReworkCostPerUnit},
	}
	for _, r := range rates {
		if r.rate < 0 {
			return nil, eris.Errorf("ingest: %s must not be negative", r.name)
		}
	}
	return &model.EconomicParams{
		DowntimeCostPerHour: doc.DowntimeCostPerHour,
		RevenuePerUnit:      doc.RevenuePerUnit,
		ScrapCostPerUnit:    doc.ScrapCostPerUnit,
		ReworkCostPerUnit:   doc.ReworkCostPerUnit,
		Currency:            doc.Currency,
	}, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
