package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/droplet-freeze/internal/config"
)

// BuildInfo is set by ldflags in main.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

var build = BuildInfo{Version: "dev", BuildTime: "unknown", GitCommit: "unknown"}

// Global flags
var (
	configPath string
	debugMode  bool
)

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "droplet-freeze",
	Short: "Droplet freezing assay analysis",
	Long: `droplet-freeze evaluates droplet freezing assays recorded as image sequences.

Droplets are detected on a reference frame of every experiment folder, each
later frame is compared with the one before to find the droplets that froze,
and the records are turned into frozen fraction and ice nucleation site
density (Nm) per temperature step.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = initLogger(debugMode)
	},
}

// Execute runs the root command.
func Execute(info BuildInfo) {
	build = info
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// initLogger initializes the logger with appropriate level. Logs go to
// stderr: stdout carries results and the MCP protocol.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	logger.WithField("config", configPath).Debug("configuration loaded")
	return cfg, nil
}
