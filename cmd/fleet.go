package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plantworks/oee-cli/internal/fleet"
	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/report"
	"github.com/plantworks/oee-cli/internal/store"
)

var (
	fleetDir      string
	fleetStrategy string
	fleetFormat   string
	fleetSave     bool
)

var fleetCmd = &cobra.Command{
	Use:   "fleet [files...]",
	Short: "Aggregate several machines into a system-level report",
	Long:  "Analyzes each observation file, aggregates the results under the chosen strategy, and reports system OEE, capacity, and bottlenecks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		paths, err := collectInputPaths(args, fleetDir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return eris.New("no observation files given (pass files or --dir)")
		}

		inputs := make([]*model.AnalysisInput, 0, len(paths))
		for _, path := range paths {
			in, err := loadInput(path)
			if err != nil {
				return eris.Wrapf(err, "load %s", path)
			}
			if err := applyThresholds(in, ""); err != nil {
				return err
			}
			inputs = append(inputs, in)
		}

		strategy := fleetStrategy
		if strategy == "" {
			strategy = cfg.Fleet.Strategy
		}
		agg, err := fleet.NewAggregator(fleet.Strategy(strategy))
		if err != nil {
			return err
		}

		machines, err := fleet.ComputeAll(ctx, inputs, cfg.Fleet.MaxConcurrent)
		if err != nil {
			return eris.Wrap(err, "fleet compute")
		}
		rep, err := agg.Aggregate(machines)
		if err != nil {
			return eris.Wrap(err, "fleet aggregate")
		}

		zap.L().Info("fleet aggregated",
			zap.Int("machines", rep.MachineCount),
			zap.String("strategy", string(rep.Strategy)),
			zap.Float64("system_oee", rep.SystemOEE))

		if fleetSave {
			if err := saveFleet(ctx, machines); err != nil {
				return err
			}
		}

		if fleetFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		fmt.Println(report.FormatFleet(rep))
		return nil
	},
}

// collectInputPaths merges positional files with a directory scan. The
// directory listing is already sorted, so repeated runs see the machines
// in the same order.
func collectInputPaths(args []string, dir string) ([]string, error) {
	paths := append([]string(nil), args...)
	if dir == "" {
		return paths, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read dir %s", dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json", ".xlsx":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}

// saveFleet persists every machine result as one batch.
func saveFleet(ctx context.Context, machines []fleet.MachineResult) error {
	st, err := initStore(ctx)
	if err != nil {
		return eris.Wrap(err, "init store")
	}
	defer st.Close() //nolint:errcheck

	recs := make([]*store.AnalysisRecord, len(machines))
	for i, m := range machines {
		recs[i] = store.NewRecord(m.Result)
	}
	n, err := st.SaveBatch(ctx, recs)
	if err != nil {
		return eris.Wrap(err, "save fleet batch")
	}
	zap.L().Info("fleet saved", zap.Int64("records", n))
	return nil
}

func init() {
	fleetCmd.Flags().StringVar(&fleetDir, "dir", "", "directory of observation files to include")
	fleetCmd.Flags().StringVar(&fleetStrategy, "strategy", "", "aggregation strategy (simple_average, time_weighted, production_weighted, minimum, multiplicative; default from config)")
	fleetCmd.Flags().StringVar(&fleetFormat, "format", "text", "output format (text, json)")
	fleetCmd.Flags().BoolVar(&fleetSave, "save", false, "persist every machine result to the run-history store")
	rootCmd.AddCommand(fleetCmd)
}
