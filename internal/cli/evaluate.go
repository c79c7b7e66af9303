package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/droplet-freeze/internal/archive"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <root>",
	Short: "Re-evaluate the record files of a folder",
	Long: `Read every droplets_<experiment>.csv in root and write the evaluation of
each experiment plus the pooled overall evaluation, without touching the
images. Use it after editing record files or to try another volume policy.

Examples:
  droplet-freeze evaluate ./assay
  droplet-freeze evaluate ./assay --policy individually`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	addAggregationFlags(evaluateCmd.Flags())
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	root := args[0]
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyAggregationFlags(cmd.Flags(), &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ev := &evaluator{dir: root, opts: cfg.Aggregation, plot: cfg.Plot, log: logger}
	if cfg.Archive != "" {
		arch, err := archive.Open(ctx, cfg.Archive)
		if err != nil {
			return err
		}
		defer arch.Close()
		ev.archive = arch
		if ev.runID, err = arch.StartRun(ctx, root); err != nil {
			return err
		}
	}

	table, err := ev.folder(ctx, true)
	status := "done"
	if err != nil {
		status = "failed"
	}
	if ev.archive != nil {
		if ferr := ev.archive.FinishRun(ctx, ev.runID, status); ferr != nil {
			logger.WithError(ferr).Error("failed to finish archived run")
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d droplets frozen over %d steps\n", table.Total(), len(table.Rows))
	return nil
}
