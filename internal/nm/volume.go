package nm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// VolumePolicy selects how droplet volume enters Nm.
type VolumePolicy string

const (
	// PolicyMean uses one volume from the mean of all radii in the table.
	PolicyMean VolumePolicy = "mean"

	// PolicyIndividual uses, per row, the volume from that row's mean
	// radius.
	PolicyIndividual VolumePolicy = "individually"
)

// ParseVolumePolicy accepts "mean" and "individually", case-insensitive.
func ParseVolumePolicy(s string) (VolumePolicy, error) {
	switch VolumePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyMean:
		return PolicyMean, nil
	case PolicyIndividual:
		return PolicyIndividual, nil
	}
	return "", fmt.Errorf("unknown volume policy %q (want %q or %q)", s, PolicyMean, PolicyIndividual)
}

// Calibration converts image pixels to physical length.
type Calibration struct {
	MicronsPerPixel float64 `yaml:"microns_per_pixel" json:"microns_per_pixel"`
}

// DefaultCalibration is the microscope scale: 15 µm per 49 px.
func DefaultCalibration() Calibration {
	return Calibration{MicronsPerPixel: 15.0 / 49.0}
}

// Micrometres converts a pixel length.
func (c Calibration) Micrometres(px float64) float64 {
	return px * c.MicronsPerPixel
}

// Volume returns the volume in m³ of a sphere with the given pixel radius.
func (c Calibration) Volume(radiusPx float64) float64 {
	return SphereVolume(c.Micrometres(radiusPx) / 1e6)
}

// SphereVolume returns 4/3·π·r³ for r in metres.
func SphereVolume(r float64) float64 {
	return r * r * r * 4 * math.Pi / 3
}

// ParseRadiusList reads a radius list as written by FormatRadiusList, e.g.
// "[40 42]" or "[40, 42]". Entries that are not numbers are returned as 0
// and counted in bad.
func ParseRadiusList(s string) (radii []int, bad int) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	radii = make([]int, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			radii = append(radii, n)
			continue
		}
		if v, err := strconv.ParseFloat(f, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			radii = append(radii, int(v))
			continue
		}
		radii = append(radii, 0)
		bad++
	}
	return radii, bad
}

// FormatRadiusList writes radii as "[r1 r2 ...]".
func FormatRadiusList(radii []int) string {
	parts := make([]string, len(radii))
	for i, r := range radii {
		parts[i] = strconv.Itoa(r)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
