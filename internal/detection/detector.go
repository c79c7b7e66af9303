package detection

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
)

// Detector locates droplets in a reference frame.
type Detector struct {
	params Params
	log    logrus.FieldLogger
}

// NewDetector validates params and returns a detector. A nil logger
// discards output.
func NewDetector(params Params, log logrus.FieldLogger) (*Detector, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection parameters: %w", err)
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Detector{params: params, log: log}, nil
}

// Params returns the parameters the detector was created with.
func (d *Detector) Params() Params {
	return d.params
}

// Detect finds droplets in img and returns their circles, in the order the
// Hough search reported them, minus those inside the label zone.
//
// An image without droplets yields an empty slice and no error.
//
// # Pipeline
//
//  1. Box blur and contrast boost (Enhance)
//  2. Grayscale conversion
//  3. Gaussian blurs with each of Params.GaussianKernels
//  4. Bilateral filter
//  5. Adaptive Gaussian threshold to a binary image
//  6. Median blur
//  7. Hough gradient circle search
func (d *Detector) Detect(img image.Image) ([]droplet.Circle, error) {
	if img == nil {
		return nil, errors.New("detect needs an image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("empty image bounds %v", bounds)
	}

	enhanced := Enhance(img, d.params)

	src, err := nrgbaToMat(enhanced)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	binary, err := d.binarize(src)
	if err != nil {
		return nil, err
	}
	defer binary.Close()

	found, err := d.houghCircles(binary)
	if err != nil {
		return nil, err
	}

	// Hough coordinates are relative to the Mat; move them into img's space.
	for i := range found {
		found[i].Center.X += bounds.Min.X
		found[i].Center.Y += bounds.Min.Y
	}

	kept := FilterLabelZone(found, bounds, d.params.LabelCorner)
	d.log.WithFields(logrus.Fields{
		"found":      len(found),
		"label_zone": len(found) - len(kept),
	}).Debug("droplet detection finished")

	return kept, nil
}

// binarize runs the OpenCV filter chain on a BGR Mat and returns the
// binary image the circle search works on. The caller closes the result.
func (d *Detector) binarize(src gocv.Mat) (gocv.Mat, error) {
	p := d.params

	gray := gocv.NewMat()
	if err := gocv.CvtColor(src, &gray, gocv.ColorBGRToGray); err != nil {
		gray.Close()
		return gocv.Mat{}, fmt.Errorf("failed to convert to grayscale: %w", err)
	}

	for _, k := range p.GaussianKernels {
		blurred := gocv.NewMat()
		err := gocv.GaussianBlur(gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)
		gray.Close()
		if err != nil {
			blurred.Close()
			return gocv.Mat{}, fmt.Errorf("gaussian blur %d failed: %w", k, err)
		}
		gray = blurred
	}

	smooth := gocv.NewMat()
	err := gocv.BilateralFilter(gray, &smooth, p.BilateralDiameter, p.BilateralSigmaColor, p.BilateralSigmaSpace)
	gray.Close()
	defer smooth.Close()
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("bilateral filter failed: %w", err)
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	if err := gocv.AdaptiveThreshold(smooth, &thresh, 255, gocv.AdaptiveThresholdGaussian,
		gocv.ThresholdBinary, p.ThresholdBlockSize, float32(p.ThresholdC)); err != nil {
		return gocv.Mat{}, fmt.Errorf("adaptive threshold failed: %w", err)
	}

	out := gocv.NewMat()
	if err := gocv.MedianBlur(thresh, &out, p.MedianKernel); err != nil {
		out.Close()
		return gocv.Mat{}, fmt.Errorf("median blur failed: %w", err)
	}
	return out, nil
}

func (d *Detector) houghCircles(binary gocv.Mat) ([]droplet.Circle, error) {
	p := d.params

	circles := gocv.NewMat()
	defer circles.Close()

	if err := gocv.HoughCirclesWithParams(binary, &circles, gocv.HoughGradient,
		p.HoughDP, p.HoughMinDist, p.Param1, p.Param2, p.MinRadius, p.MaxRadius); err != nil {
		return nil, fmt.Errorf("circle search failed: %w", err)
	}

	if circles.Empty() || circles.Cols() == 0 {
		return nil, nil
	}

	found := make([]droplet.Circle, circles.Cols())
	for i := range found {
		// Truncate to whole pixels.
		found[i] = droplet.Circle{
			Center: droplet.Point{
				X: int(circles.GetFloatAt(0, i*3)),
				Y: int(circles.GetFloatAt(0, i*3+1)),
			},
			Radius: int(circles.GetFloatAt(0, i*3+2)),
		}
	}
	return found, nil
}

// nrgbaToMat copies img into a new 8-bit BGR Mat.
func nrgbaToMat(img *image.NRGBA) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+3]
			data = append(data, px[2], px[1], px[0])
		}
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
}
