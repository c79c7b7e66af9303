package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/droplet-freeze/internal/archive"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs",
	Long: `List the runs stored in a results archive, newest first.

Examples:
  droplet-freeze runs --archive file:assay.db`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

var runsArchive string

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsArchive, "archive", "", "libsql DSN of the archive (default from config)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dsn := runsArchive
	if dsn == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dsn = cfg.Archive
	}
	if dsn == "" {
		return errors.New("no archive given: use --archive or set archive in the config")
	}

	arch, err := archive.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer arch.Close()

	runs, err := arch.Runs(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tROOT")
	fmt.Fprintln(w, "--\t-------\t------\t----")
	for _, r := range runs {
		status := r.Status
		if status == "" {
			status = "running"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), status, r.Root)
	}
	w.Flush()

	fmt.Fprintf(out, "\nShowing %d run(s)\n", len(runs))
	return nil
}
