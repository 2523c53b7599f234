package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plantworks/oee-cli/internal/report"
	"github.com/plantworks/oee-cli/internal/scrap"
)

var (
	scrapInput  string
	scrapFormat string
)

var scrapCmd = &cobra.Command{
	Use:   "scrap",
	Short: "Split scrap into startup and steady-state phases",
	Long:  "Categorizes timestamped scrap events against the detected startup window and reports both phases with production-time equivalents.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInput(scrapInput)
		if err != nil {
			return eris.Wrap(err, "load input")
		}

		analyzer := scrap.NewAnalyzer(scrapConfigFromSettings(cfg.Scrap))
		analysis := analyzer.Analyze(in.Window, in.ScrapEvents, in.Cycle.IdealCycleTime.Get())

		zap.L().Info("scrap analysis complete",
			zap.String("machine_id", in.Machine.MachineID),
			zap.Int("events", analysis.EventsAnalyzed),
			zap.String("boundary_strategy", analysis.BoundaryStrategy))

		if scrapFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		}
		fmt.Println(report.FormatScrap(analysis))
		return nil
	},
}

func init() {
	scrapCmd.Flags().StringVar(&scrapInput, "input", "", "observation file with scrap events (required)")
	scrapCmd.Flags().StringVar(&scrapFormat, "format", "text", "output format (text, json)")
	_ = scrapCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scrapCmd)
}
