package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
)

// Params holds every constant of the detection pipeline. The zero value is
// not usable; start from DefaultParams.
type Params struct {
	// BoxRadius is the radius of the initial box blur.
	BoxRadius float64 `yaml:"box_radius" json:"box_radius"`

	// Contrast is the factor applied to each pixel's distance from the mean
	// luminance; 1 leaves the image unchanged.
	Contrast float64 `yaml:"contrast" json:"contrast"`

	// GaussianKernels are applied in order. Each must be odd and positive.
	GaussianKernels []int `yaml:"gaussian_kernels" json:"gaussian_kernels"`

	BilateralDiameter   int     `yaml:"bilateral_diameter" json:"bilateral_diameter"`
	BilateralSigmaColor float64 `yaml:"bilateral_sigma_color" json:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `yaml:"bilateral_sigma_space" json:"bilateral_sigma_space"`

	ThresholdBlockSize int     `yaml:"threshold_block_size" json:"threshold_block_size"`
	ThresholdC         float64 `yaml:"threshold_c" json:"threshold_c"`

	MedianKernel int `yaml:"median_kernel" json:"median_kernel"`

	HoughDP      float64 `yaml:"hough_dp" json:"hough_dp"`
	HoughMinDist float64 `yaml:"hough_min_dist" json:"hough_min_dist"`

	// Param1 is the upper Canny threshold used by the Hough gradient method.
	Param1 float64 `yaml:"param1" json:"param1"`

	// Param2 is the accumulator threshold for circle centers.
	Param2 float64 `yaml:"param2" json:"param2"`

	// MinRadius and MaxRadius bound the search in pixels.
	MinRadius int `yaml:"min_radius" json:"min_radius"`
	MaxRadius int `yaml:"max_radius" json:"max_radius"`

	// LabelCorner is the top-left corner of the instrument label overlay.
	// Config files set it once at the top level.
	LabelCorner image.Point `yaml:"-" json:"label_corner"`
}

// DefaultParams returns the parameters tuned for the assay's microscope.
func DefaultParams() Params {
	return Params{
		BoxRadius:           2,
		Contrast:            2,
		GaussianKernels:     []int{21, 31},
		BilateralDiameter:   15,
		BilateralSigmaColor: 150,
		BilateralSigmaSpace: 150,
		ThresholdBlockSize:  101,
		ThresholdC:          2,
		MedianKernel:        9,
		HoughDP:             1,
		HoughMinDist:        110,
		Param1:              12,
		Param2:              25,
		MinRadius:           49,
		MaxRadius:           140,
		LabelCorner:         droplet.DefaultLabelCorner,
	}
}

// WithMicronRadii returns a copy of p with the radius bounds converted from
// micrometres using the given scale. Fractions of a pixel are dropped.
func (p Params) WithMicronRadii(minUm, maxUm, micronsPerPixel float64) Params {
	if micronsPerPixel <= 0 {
		return p
	}
	p.MinRadius = micronsToPixels(minUm, micronsPerPixel)
	p.MaxRadius = micronsToPixels(maxUm, micronsPerPixel)
	return p
}

func micronsToPixels(um, micronsPerPixel float64) int {
	// 1e-9 absorbs representation error, e.g. 15µm at 15/49 µm/px.
	return int(um/micronsPerPixel + 1e-9)
}

// Validate rejects parameters OpenCV would refuse or that cannot match any
// circle.
func (p Params) Validate() error {
	if p.BoxRadius < 0 {
		return fmt.Errorf("box_radius must be >= 0, got %v", p.BoxRadius)
	}
	if p.Contrast < 0 {
		return fmt.Errorf("contrast must be >= 0, got %v", p.Contrast)
	}
	for _, k := range p.GaussianKernels {
		if err := oddKernel("gaussian kernel", k); err != nil {
			return err
		}
	}
	if p.BilateralDiameter <= 0 {
		return fmt.Errorf("bilateral_diameter must be > 0, got %d", p.BilateralDiameter)
	}
	if err := oddKernel("threshold_block_size", p.ThresholdBlockSize); err != nil {
		return err
	}
	if p.ThresholdBlockSize < 3 {
		return fmt.Errorf("threshold_block_size must be >= 3, got %d", p.ThresholdBlockSize)
	}
	if err := oddKernel("median_kernel", p.MedianKernel); err != nil {
		return err
	}
	if p.HoughDP <= 0 {
		return fmt.Errorf("hough_dp must be > 0, got %v", p.HoughDP)
	}
	if p.HoughMinDist <= 0 {
		return fmt.Errorf("hough_min_dist must be > 0, got %v", p.HoughMinDist)
	}
	if p.Param1 <= 0 || p.Param2 <= 0 {
		return fmt.Errorf("param1 and param2 must be > 0, got %v and %v", p.Param1, p.Param2)
	}
	if p.MinRadius < 0 || p.MaxRadius < 0 {
		return fmt.Errorf("radius bounds must be >= 0, got %d..%d", p.MinRadius, p.MaxRadius)
	}
	if p.MinRadius > p.MaxRadius {
		return fmt.Errorf("min_radius %d exceeds max_radius %d", p.MinRadius, p.MaxRadius)
	}
	return nil
}

func oddKernel(name string, k int) error {
	if k <= 0 || k%2 == 0 {
		return fmt.Errorf("%s must be odd and positive, got %d", name, k)
	}
	return nil
}
