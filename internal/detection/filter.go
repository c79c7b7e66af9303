package detection

import (
	"image"

	"github.com/ironsheep/droplet-freeze/internal/droplet"
)

// FilterLabelZone drops circles whose bounding box lies fully inside the
// label zone. Order is preserved.
func FilterLabelZone(circles []droplet.Circle, bounds image.Rectangle, corner image.Point) []droplet.Circle {
	kept := make([]droplet.Circle, 0, len(circles))
	for _, c := range circles {
		if droplet.InLabelZone(c, bounds, corner) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
