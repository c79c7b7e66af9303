package detection

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Enhance applies the box blur and contrast boost that precede the OpenCV
// stages of the pipeline.
func Enhance(img image.Image, p Params) *image.NRGBA {
	var src image.Image = img
	if p.BoxRadius > 0 {
		src = blur.Box(img, p.BoxRadius)
	}
	return Contrast(src, p.Contrast)
}

// Contrast moves every channel away from the image's mean luminance by
// factor. A factor of 1 leaves the image unchanged, 0 turns it flat gray and
// 2 doubles each pixel's distance from the mean. Alpha is kept.
func Contrast(img image.Image, factor float64) *image.NRGBA {
	mean := meanLuminance(img)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: stretch(c.R, mean, factor),
			G: stretch(c.G, mean, factor),
			B: stretch(c.B, mean, factor),
			A: c.A,
		}
	})
}

// meanLuminance returns the rounded mean of the image's gray levels.
func meanLuminance(img image.Image) float64 {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(row[x])
		}
	}
	return math.Floor(float64(sum)/float64(n) + 0.5)
}

func stretch(v uint8, mean, factor float64) uint8 {
	out := mean + factor*(float64(v)-mean)
	switch {
	case out <= 0:
		return 0
	case out >= 255:
		return 255
	}
	return uint8(out + 0.5)
}
