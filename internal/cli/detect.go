package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ironsheep/droplet-freeze/internal/detection"
	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/imaging"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect droplets on a single frame",
	Long: `Run droplet detection on one frame and print the circles as JSON. With
--preview, the frame is also written with a ring around every droplet, which
is the quickest way to tune the Hough parameters.

Examples:
  droplet-freeze detect frame_0002.jpg --preview detected.png
  droplet-freeze detect frame_0002.jpg --param2 28 --min-radius 10`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

var detectPreview string

func init() {
	rootCmd.AddCommand(detectCmd)
	addDetectionFlags(detectCmd.Flags())
	detectCmd.Flags().StringVarP(&detectPreview, "preview", "p", "", "Write an annotated PNG to this path")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDetectionFlags(cmd.Flags(), &cfg)
	if err := cfg.Detection.Validate(); err != nil {
		return err
	}

	img, err := imaging.NewFrameWindow(1).Load(args[0])
	if err != nil {
		return err
	}

	detector, err := detection.NewDetector(cfg.Detection, logger)
	if err != nil {
		return err
	}
	circles, err := detector.Detect(img)
	if err != nil {
		return err
	}

	droplets := droplet.NewSet(circles).All()
	if detectPreview != "" {
		annotated := imaging.Annotate(img, droplets, cfg.Overlay)
		if err := imaging.SavePNG(detectPreview, annotated); err != nil {
			return err
		}
		logger.WithField("path", detectPreview).Info("preview written")
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(droplets)
}
