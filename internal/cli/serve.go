package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/droplet-freeze/internal/detection"
	"github.com/ironsheep/droplet-freeze/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Serve the analysis tools over the Model Context Protocol (JSON-RPC 2.0,
one message per line on stdin and stdout). Logs go to stderr.

Examples:
  droplet-freeze serve
  droplet-freeze serve --config assay.yaml --debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addDetectionFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDetectionFlags(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	detector, err := detection.NewDetector(cfg.Detection, logger)
	if err != nil {
		return err
	}

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("version", build.Version).Debug("MCP server starting")
	srv := server.New(server.Options{
		Detector:    detector,
		Freeze:      cfg.Freeze,
		Aggregation: cfg.Aggregation,
		Version:     build.Version,
		Log:         logger,
	})
	return srv.Run(ctx)
}
