package nm

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Constants are the experiment factors of the Nm formula.
type Constants struct {
	D float64 `yaml:"d" json:"d"`
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
}

// Options configures Aggregate.
type Options struct {
	Policy      VolumePolicy `yaml:"volume_policy" json:"volume_policy"`
	Constants   Constants    `yaml:"constants" json:"constants"`
	Calibration Calibration  `yaml:"calibration" json:"calibration"`

	// SigFigs is the number of significant figures kept in frozen fraction
	// and Nm.
	SigFigs int `yaml:"sig_figs" json:"sig_figs"`
}

// DefaultOptions returns mean volume, unit constants, the default
// calibration and 4 significant figures.
func DefaultOptions() Options {
	return Options{
		Policy:      PolicyMean,
		Constants:   Constants{D: 1, A: 1, B: 1},
		Calibration: DefaultCalibration(),
		SigFigs:     4,
	}
}

// Validate reports options Aggregate cannot work with.
func (o Options) Validate() error {
	if _, err := ParseVolumePolicy(string(o.Policy)); err != nil {
		return err
	}
	if o.Constants.B == 0 {
		return errors.New("constant b must not be 0")
	}
	if o.Calibration.MicronsPerPixel <= 0 {
		return fmt.Errorf("microns_per_pixel must be > 0, got %v", o.Calibration.MicronsPerPixel)
	}
	if o.SigFigs < 1 {
		return fmt.Errorf("sig_figs must be >= 1, got %d", o.SigFigs)
	}
	return nil
}

// Aggregate builds the table for records. Rows are ordered by the
// magnitude of their temperature; records with equal magnitude keep their
// input order. records is not modified.
//
// An empty input yields an empty table.
func Aggregate(records []FrameStepRecord, opts Options) (*ExperimentTable, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aggregation options: %w", err)
	}
	for i, r := range records {
		if r.Frozen < 0 {
			return nil, fmt.Errorf("record %d: negative frozen count %d", i, r.Frozen)
		}
	}

	table := &ExperimentTable{Rows: make([]Row, len(records))}
	if len(records) == 0 {
		return table, nil
	}

	sorted := make([]FrameStepRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Temperature) < math.Abs(sorted[j].Temperature)
	})

	counts := make([]float64, len(sorted))
	for i, r := range sorted {
		counts[i] = float64(r.Frozen)
	}
	cumulative := floats.CumSum(make([]float64, len(counts)), counts)
	total := cumulative[len(cumulative)-1]

	pooled := opts.pooledVolume(sorted)
	factor := opts.Constants.D * opts.Constants.A / opts.Constants.B

	for i, r := range sorted {
		row := Row{FrameStepRecord: r, Cumulative: int(cumulative[i])}
		if total > 0 {
			row.FrozenFraction = RoundSig(cumulative[i]/total, opts.SigFigs)
		}

		if row.FrozenFraction != 1 {
			v := pooled
			if opts.Policy == PolicyIndividual {
				v = opts.rowVolume(r)
			}
			if v > 0 {
				row.Nm = RoundSig(-math.Log(1-row.FrozenFraction)*factor/v, opts.SigFigs)
			} else {
				table.Warnings = append(table.Warnings,
					fmt.Sprintf("temperature %v: no usable droplet volume, Nm set to 0", r.Temperature))
			}
		}
		table.Rows[i] = row
	}

	return table, nil
}

// pooledVolume returns the volume for the mean of every radius in records,
// or 0 when there are none.
func (o Options) pooledVolume(records []FrameStepRecord) float64 {
	var all []float64
	for _, r := range records {
		for _, px := range r.Radii {
			all = append(all, float64(px))
		}
	}
	return o.meanVolume(all)
}

func (o Options) rowVolume(r FrameStepRecord) float64 {
	radii := make([]float64, len(r.Radii))
	for i, px := range r.Radii {
		radii[i] = float64(px)
	}
	return o.meanVolume(radii)
}

func (o Options) meanVolume(radii []float64) float64 {
	if len(radii) == 0 {
		return 0
	}
	return o.Calibration.Volume(stat.Mean(radii, nil))
}
