// Package temperature extracts the stage temperature embedded in frame
// identifiers such as "IMG_0042_-12,35°C.jpg".
//
// Temperatures are returned as positive magnitudes of undercooling: the
// instrument writes the value without a reliable sign, and the sequence
// logic only compares magnitudes.
package temperature

import (
	"regexp"
	"strconv"
	"strings"
)

// pattern matches a decimal number using either '.' or ',' as separator.
var pattern = regexp.MustCompile(`\d+[.,]\d+`)

// Parse returns the first decimal number found anywhere in s.
// The boolean is false when s carries no decimal number.
func Parse(s string) (float64, bool) {
	match := pattern.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
