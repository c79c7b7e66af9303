// Package ocr reads the stage temperature printed in the label zone of a
// frame.
//
// The freezing stage burns its current temperature into the bottom-right
// corner of every frame. When a frame's file name carries no temperature,
// the sequence driver can fall back to reading that label. Recognition runs
// through the Tesseract engine (via gosseract/v2), restricted to digits,
// decimal separators and the minus sign.
//
// # Prerequisites
//
// Tesseract and its English language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A non-standard data location can be given with Options.TessdataPrefix.
//
// # Usage
//
//	r := ocr.NewReader(ocr.DefaultOptions())
//	t, err := r.ReadTemperature(img)
//	if errors.Is(err, ocr.ErrNoTemperature) {
//	    // label unreadable
//	}
package ocr
