package cli

import (
	"github.com/spf13/pflag"

	"github.com/ironsheep/droplet-freeze/internal/config"
	"github.com/ironsheep/droplet-freeze/internal/nm"
)

// Detection overrides shared by analyze, detect and serve. Radii are in
// micrometres.
var (
	flagParam1    float64
	flagParam2    float64
	flagMinRadius float64
	flagMaxRadius float64
	flagPolicy    string
	flagArchive   string
)

func addDetectionFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&flagParam1, "param1", 0, "Hough edge threshold (default from config)")
	fs.Float64Var(&flagParam2, "param2", 0, "Hough accumulator threshold (default from config)")
	fs.Float64Var(&flagMinRadius, "min-radius", 0, "Smallest droplet radius in µm (default from config)")
	fs.Float64Var(&flagMaxRadius, "max-radius", 0, "Largest droplet radius in µm (default from config)")
}

func addAggregationFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagPolicy, "policy", "", "Droplet volume policy: mean, individually (default from config)")
	fs.StringVar(&flagArchive, "archive", "", "libsql DSN to archive results to, e.g. file:assay.db")
}

// applyDetectionFlags copies the flags the user set onto cfg.
func applyDetectionFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("param1") {
		cfg.Detection.Param1 = flagParam1
	}
	if fs.Changed("param2") {
		cfg.Detection.Param2 = flagParam2
	}
	if fs.Changed("min-radius") || fs.Changed("max-radius") {
		mpp := cfg.Aggregation.Calibration.MicronsPerPixel
		minUm := float64(cfg.Detection.MinRadius) * mpp
		maxUm := float64(cfg.Detection.MaxRadius) * mpp
		if fs.Changed("min-radius") {
			minUm = flagMinRadius
		}
		if fs.Changed("max-radius") {
			maxUm = flagMaxRadius
		}
		cfg.Detection = cfg.Detection.WithMicronRadii(minUm, maxUm, mpp)
	}
}

// applyAggregationFlags copies --policy and --archive onto cfg.
func applyAggregationFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("policy") {
		p, err := nm.ParseVolumePolicy(flagPolicy)
		if err != nil {
			return err
		}
		cfg.Aggregation.Policy = p
	}
	if fs.Changed("archive") {
		cfg.Archive = flagArchive
	}
	return nil
}
