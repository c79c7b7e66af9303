package freeze

import (
	"errors"
	"image"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
	"github.com/ironsheep/droplet-freeze/internal/imaging"
)

// Ratio is the freezing signal of one droplet in one step.
type Ratio struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}

// CropFailure records a droplet that could not be compared in a step.
type CropFailure struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// StepResult is the outcome of classifying one frame pair.
type StepResult struct {
	Temperature float64 `json:"temperature"`

	// Frozen lists the IDs of droplets that froze in this step.
	Frozen []int `json:"frozen"`

	// Radii holds the pixel radius of each droplet in Frozen, same order.
	Radii []int `json:"radii"`

	// Ratios has one entry per droplet that was compared.
	Ratios []Ratio `json:"ratios"`

	// Ignored lists droplets moved to droplet.Ignored in this step.
	Ignored []int `json:"ignored,omitempty"`

	Failures []CropFailure `json:"failures,omitempty"`

	// Anomalous is set when more droplets froze than Params.AnomalyCount.
	Anomalous bool `json:"anomalous"`
}

// Count returns the number of droplets that froze in this step.
func (r *StepResult) Count() int {
	return len(r.Frozen)
}

// Classifier compares consecutive frames and freezes droplets in a set.
type Classifier struct {
	params Params
	log    logrus.FieldLogger
}

// NewClassifier creates a classifier. A nil logger discards output.
func NewClassifier(params Params, log logrus.FieldLogger) *Classifier {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Classifier{params: params, log: log}
}

// Params returns the thresholds the classifier was created with.
func (c *Classifier) Params() Params {
	return c.params
}

// Classify compares prev and curr for every active droplet in set and
// freezes those whose ratio exceeds the threshold. The set is updated in
// place.
//
// Per-droplet crop problems never fail the step: the droplet is skipped
// for this step and the problem is listed in StepResult.Failures.
func (c *Classifier) Classify(prev, curr image.Image, set *droplet.Set, temperature float64) (*StepResult, error) {
	if prev == nil || curr == nil {
		return nil, errors.New("classify needs two frames")
	}
	if set == nil {
		return nil, errors.New("classify needs a droplet set")
	}

	bounds := curr.Bounds()
	result := &StepResult{Temperature: temperature}

	for _, d := range set.Active() {
		log := c.log.WithFields(logrus.Fields{"droplet": d.ID, "temperature": temperature})

		if d.Circle.Radius < c.params.MinRadius || droplet.InLabelZone(d.Circle, bounds, c.params.LabelCorner) {
			if err := set.Ignore(d.ID); err != nil {
				return nil, err
			}
			result.Ignored = append(result.Ignored, d.ID)
			log.Debug("droplet ignored as detector artifact")
			continue
		}

		ratio, err := c.ratio(prev, curr, d.Circle)
		if err != nil {
			result.Failures = append(result.Failures, CropFailure{ID: d.ID, Reason: err.Error()})
			log.WithError(err).Warn("droplet skipped for this step")
			continue
		}
		result.Ratios = append(result.Ratios, Ratio{ID: d.ID, Value: ratio})

		if c.params.Froze(ratio) {
			if err := set.Freeze(d.ID); err != nil {
				return nil, err
			}
			result.Frozen = append(result.Frozen, d.ID)
			result.Radii = append(result.Radii, d.Circle.Radius)
			log.WithField("ratio", ratio).Debug("droplet froze")
		}
	}

	result.Anomalous = c.params.Anomalous(result.Count())
	return result, nil
}

func (c *Classifier) ratio(prev, curr image.Image, circle droplet.Circle) (float64, error) {
	region, err := imaging.DropletRegion(curr.Bounds(), circle)
	if err != nil {
		return 0, err
	}
	sum, err := imaging.RegionDiff(prev, curr, region)
	if err != nil {
		return 0, err
	}
	return NormalizedRatio(sum, circle.Radius), nil
}

// NormalizedRatio normalizes a difference sum by the droplet's cross-section.
func NormalizedRatio(diffSum uint64, radius int) float64 {
	r := float64(radius)
	return float64(diffSum) * math.Pi / (r * r)
}
