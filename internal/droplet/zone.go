package droplet

import "image"

// DefaultLabelCorner is where the microscope software starts its
// temperature label.
var DefaultLabelCorner = image.Point{X: 1648, Y: 1445}

// LabelZone returns the rectangle reserved for the instrument's text overlay:
// from corner to the bottom-right corner of bounds. The result is empty when
// corner lies outside bounds.
func LabelZone(bounds image.Rectangle, corner image.Point) image.Rectangle {
	return image.Rectangle{Min: corner, Max: bounds.Max}.Intersect(bounds)
}

// InLabelZone reports whether the circle's bounding box, clamped to bounds,
// lies fully inside the label zone.
func InLabelZone(c Circle, bounds image.Rectangle, corner image.Point) bool {
	zone := LabelZone(bounds, corner)
	if zone.Empty() {
		return false
	}
	box := c.Box().Intersect(bounds)
	if box.Empty() {
		return false
	}
	return box.In(zone)
}
