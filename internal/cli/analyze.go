package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/droplet-freeze/internal/archive"
	"github.com/ironsheep/droplet-freeze/internal/detection"
	"github.com/ironsheep/droplet-freeze/internal/freeze"
	"github.com/ironsheep/droplet-freeze/internal/ocr"
	"github.com/ironsheep/droplet-freeze/internal/sequence"
	"github.com/ironsheep/droplet-freeze/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <root>",
	Short: "Analyze every experiment folder under root",
	Long: `Detect droplets in every experiment folder under root, follow them through
the frame sequence and record the droplets that froze at each step.

Records are written to droplets_<experiment>.csv in root as they are found,
and the droplets found on the reference frame are drawn into
detected_<experiment>.png.
Each finished experiment is evaluated into evaluation_<experiment>.csv and
Nm_<experiment>.png, and once all experiments are done the pooled records
are evaluated into overall_evaluation_<root>.csv and Nm_<root>.png.

When more droplets freeze in one step than the anomaly limit allows, the
run stops for review: "go on" accepts the step, "retry" restarts the
experiment and "exit" ends the whole run.

Examples:
  droplet-freeze analyze ./assay
  droplet-freeze analyze ./assay --param2 30 --min-radius 8 --max-radius 45
  droplet-freeze analyze ./assay --review go-on --archive file:assay.db`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeReview string
	analyzeOCR    bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addDetectionFlags(analyzeCmd.Flags())
	addAggregationFlags(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVar(&analyzeReview, "review", "ask", "Anomaly review: ask, go-on, exit")
	analyzeCmd.Flags().BoolVar(&analyzeOCR, "ocr", false, "Read the temperature from the frame label when the file name has none")
}

// newReviewer maps the --review flag to a reviewer. "ask" prompts on
// out and reads answers from in.
func newReviewer(mode string, in io.Reader, out io.Writer) (sequence.Reviewer, error) {
	switch mode {
	case "ask":
		return sequence.NewConsoleReviewer(in, out), nil
	case "go-on":
		return sequence.NewStaticReviewer(sequence.Continue)
	case "exit":
		return sequence.NewStaticReviewer(sequence.Exit)
	}
	return nil, fmt.Errorf("unknown review mode %q (use ask, go-on or exit)", mode)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDetectionFlags(cmd.Flags(), &cfg)
	if err := applyAggregationFlags(cmd.Flags(), &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	reviewer, err := newReviewer(analyzeReview, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if c, ok := reviewer.(io.Closer); ok {
		defer c.Close()
	}

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector, err := detection.NewDetector(cfg.Detection, logger)
	if err != nil {
		return err
	}

	ev := &evaluator{dir: root, opts: cfg.Aggregation, plot: cfg.Plot, log: logger}
	sinks := sequence.MultiSink{store.NewRecordSink(root)}

	var arch *archive.Archive
	if cfg.Archive != "" {
		arch, err = archive.Open(ctx, cfg.Archive)
		if err != nil {
			return err
		}
		defer arch.Close()

		ev.archive = arch
		ev.runID, err = arch.StartRun(ctx, root)
		if err != nil {
			return err
		}
		sinks = append(sinks, arch.Sink(ctx, ev.runID))
		logger.WithField("run_id", ev.runID).Info("archiving run")
	}
	sinks = append(sinks, &evaluationSink{ctx: ctx, ev: ev})

	driver := sequence.NewDriver(
		sequence.FolderSource{Root: root},
		detector,
		freeze.NewClassifier(cfg.Freeze, logger),
		reviewer,
		sinks,
		cfg.Sequence,
	).WithLogger(logger.WithField("run_id", ev.runID)).
		WithPreview(&previewWriter{dir: root, opts: cfg.Overlay, log: logger})
	if analyzeOCR {
		driver = driver.WithLabelReader(ocr.NewReader(cfg.OCR))
	}

	results, runErr := driver.RunAll(ctx)
	printResults(cmd.OutOrStdout(), results)

	status := "done"
	if runErr == nil && len(results) > 0 {
		if _, err := ev.folder(ctx, false); err != nil {
			runErr = fmt.Errorf("overall evaluation: %w", err)
		}
	}
	switch {
	case errors.Is(runErr, sequence.ErrAborted):
		status = "aborted"
	case runErr != nil:
		status = "failed"
	}

	if arch != nil {
		if err := arch.FinishRun(context.Background(), ev.runID, status); err != nil {
			logger.WithError(err).Error("failed to finish archived run")
		}
	}
	return runErr
}

// printResults writes one line per experiment.
func printResults(out io.Writer, results []*sequence.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No experiments found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXPERIMENT\tSTATE\tDROPLETS\tFROZEN\tIGNORED\tSTEPS\tRESTARTS\tEND")
	fmt.Fprintln(w, "----------\t-----\t--------\t------\t-------\t-----\t--------\t---")
	for _, r := range results {
		if r == nil {
			continue
		}
		end := r.EndReason
		if r.Err != nil {
			end = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Experiment.Name, r.State, r.Droplets, r.Frozen, r.Ignored, r.Steps, r.Restarts, end)
	}
	w.Flush()
}
