package freeze

import (
	"fmt"
	"image"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
)

// Params holds the classification thresholds.
type Params struct {
	// Threshold is the ratio above which a droplet counts as frozen.
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// MinRadius is the smallest radius, in pixels, treated as a droplet.
	MinRadius int `yaml:"min_radius" json:"min_radius"`

	// AnomalyCount is the largest number of droplets that may freeze in one
	// step without triggering a review.
	AnomalyCount int `yaml:"anomaly_count" json:"anomaly_count"`

	// LabelCorner is the top-left corner of the label zone, which extends
	// to the bottom-right corner of the frame.
	LabelCorner image.Point `yaml:"-" json:"label_corner"`
}

// DefaultParams returns the thresholds the assay was calibrated with.
func DefaultParams() Params {
	return Params{
		Threshold:    50,
		MinRadius:    48,
		AnomalyCount: 6,
		LabelCorner:  droplet.DefaultLabelCorner,
	}
}

// Froze reports whether a ratio indicates freezing. The comparison is strict.
func (p Params) Froze(ratio float64) bool {
	return ratio > p.Threshold
}

// Anomalous reports whether n droplets freezing in one step needs review.
func (p Params) Anomalous(n int) bool {
	return n > p.AnomalyCount
}

// Validate checks the parameters for values that cannot classify anything.
func (p Params) Validate() error {
	if p.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %v", p.Threshold)
	}
	if p.MinRadius < 1 {
		return fmt.Errorf("min_radius must be >= 1, got %d", p.MinRadius)
	}
	if p.AnomalyCount < 0 {
		return fmt.Errorf("anomaly_count must be >= 0, got %d", p.AnomalyCount)
	}
	return nil
}
