package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
)

// OverlayOptions controls how detected droplets are drawn on the preview.
type OverlayOptions struct {
	// RingColor is a "#RRGGBB" color. Invalid values fall back to black.
	RingColor string `yaml:"ring_color" json:"ring_color"`

	// RingOffset is added to the droplet radius so the ring does not hide
	// the droplet edge.
	RingOffset int `yaml:"ring_offset" json:"ring_offset"`

	// RingWidth is the ring thickness in pixels.
	RingWidth int `yaml:"ring_width" json:"ring_width"`

	// Labels draws each droplet's ID next to its center.
	Labels bool `yaml:"labels" json:"labels"`
}

// DefaultOverlayOptions matches the rings of the manual tuning preview.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		RingColor:  "#000000",
		RingOffset: 30,
		RingWidth:  13,
		Labels:     true,
	}
}

// Annotate returns a copy of img with one ring per droplet.
func Annotate(img image.Image, droplets []droplet.Droplet, opts OverlayOptions) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	ring := ringColor(opts.RingColor)
	width := opts.RingWidth
	if width < 1 {
		width = 1
	}

	for _, d := range droplets {
		drawRing(out, d.Circle.Center, d.Circle.Radius+opts.RingOffset, width, ring)
		if opts.Labels {
			drawID(out, d.Circle.Center, strconv.Itoa(d.ID), ring)
		}
	}
	return out
}

// WritePNG encodes img as PNG to w.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

// SavePNG writes img as a PNG file at path.
func SavePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write preview %s: %w", path, err)
	}
	return nil
}

func ringColor(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{0, 0, 0, 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

// drawRing paints every pixel whose distance to center is within width/2 of
// radius.
func drawRing(img *image.RGBA, center droplet.Point, radius, width int, c color.RGBA) {
	half := float64(width) / 2
	inner := math.Max(float64(radius)-half, 0)
	outer := float64(radius) + half
	reach := int(math.Ceil(outer))

	area := image.Rect(center.X-reach, center.Y-reach, center.X+reach+1, center.Y+reach+1).Intersect(img.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := float64(x - center.X)
			dy := float64(y - center.Y)
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist >= inner && dist <= outer {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func drawID(img *image.RGBA, center droplet.Point, label string, c color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(center.X-width/2, center.Y+face.Ascent/2),
	}
	d.DrawString(label)
}
