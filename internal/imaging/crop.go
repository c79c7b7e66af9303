package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
)

// DropletRegion returns the square bounding box of c clamped to bounds.
//
// An error is returned when nothing of the box is left after clamping,
// e.g. for a circle whose center lies outside the frame.
func DropletRegion(bounds image.Rectangle, c droplet.Circle) (image.Rectangle, error) {
	if c.Radius <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid droplet radius %d", c.Radius)
	}
	region := c.Box().Intersect(bounds)
	if region.Empty() {
		return image.Rectangle{}, fmt.Errorf("droplet box %v outside image bounds %v", c.Box(), bounds)
	}
	return region, nil
}

// CropRegion extracts region from img. The result has its origin at (0,0).
func CropRegion(img image.Image, region image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region %v", region)
	}
	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}
	return imaging.Crop(img, region), nil
}
