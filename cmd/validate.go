package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/plantworks/oee-cli/internal/engine"
	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/report"
)

var (
	validateInput      string
	validateFormat     string
	validateThresholds string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an observation file without computing metrics",
	Long:  "Runs the validation pipeline only. Exits non-zero when a fatal issue is found, so files can be gated before analysis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInput(validateInput)
		if err != nil {
			return eris.Wrap(err, "load input")
		}
		if err := applyThresholds(in, validateThresholds); err != nil {
			return eris.Wrap(err, "load thresholds")
		}

		thresholds := model.DefaultThresholds()
		if in.Thresholds != nil {
			thresholds = *in.Thresholds
		}
		result := engine.Validate(in, thresholds)

		if validateFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			fmt.Println(report.FormatValidation(result))
		}

		if result.HasFatal() {
			return eris.Errorf("validation failed: %d fatal issue(s)", len(result.Fatal()))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "", "observation file (required)")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "output format (text, json)")
	validateCmd.Flags().StringVar(&validateThresholds, "thresholds", "", "threshold overrides file")
	_ = validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}
