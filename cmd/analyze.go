package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plantworks/oee-cli/internal/engine"
	"github.com/plantworks/oee-cli/internal/ingest"
	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/report"
	"github.com/plantworks/oee-cli/internal/scrap"
	"github.com/plantworks/oee-cli/internal/store"
)

var (
	analyzeInput      string
	analyzeFormat     string
	analyzeEconomics  string
	analyzeThresholds string
	analyzeSave       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one machine observation window",
	Long:  "Validates the observation file, computes OEE with loss tree and assumption ledger, and optionally prices the losses and saves the run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := loadInput(analyzeInput)
		if err != nil {
			return eris.Wrap(err, "load input")
		}
		if err := applyThresholds(in, analyzeThresholds); err != nil {
			return eris.Wrap(err, "load thresholds")
		}

		var opts []engine.Option
		if len(in.ScrapEvents) > 0 {
			analyzer := scrap.NewAnalyzer(scrapConfigFromSettings(cfg.Scrap))
			analysis := analyzer.Analyze(in.Window, in.ScrapEvents, in.Cycle.IdealCycleTime.Get())
			opts = append(opts, engine.WithScrapAnalysis(analysis))
		}

		result, err := runEngine(in, opts)
		if err != nil {
			if verr, ok := engine.AsValidationError(err); ok {
				fmt.Fprintln(os.Stderr, report.FormatValidation(verr.Result))
			}
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis complete",
			zap.String("machine_id", result.Machine.MachineID),
			zap.Float64("oee", result.Core.OEE.Value),
			zap.String("confidence", string(result.Confidence())))

		if analyzeSave {
			st, err := initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "init store")
			}
			defer st.Close() //nolint:errcheck

			id, err := st.SaveAnalysis(ctx, store.NewRecord(result))
			if err != nil {
				return eris.Wrap(err, "save analysis")
			}
			zap.L().Info("analysis saved", zap.String("id", id))
		}

		if analyzeFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		fmt.Println(report.Format(result))
		return nil
	},
}

// runEngine dispatches to the economics-aware entry point when pricing
// parameters were supplied.
func runEngine(in *model.AnalysisInput, opts []engine.Option) (*model.EngineResult, error) {
	if analyzeEconomics == "" {
		return engine.Calculate(in, opts...)
	}
	params, err := ingest.LoadEconomics(analyzeEconomics)
	if err != nil {
		return nil, eris.Wrap(err, "load economics")
	}
	return engine.CalculateWithEconomics(in, *params, opts...)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "observation file (.yaml, .json, or .xlsx; required)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format (text, json)")
	analyzeCmd.Flags().StringVar(&analyzeEconomics, "economics", "", "economic parameters file for priced losses")
	analyzeCmd.Flags().StringVar(&analyzeThresholds, "thresholds", "", "threshold overrides file")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the result to the run-history store")
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}
