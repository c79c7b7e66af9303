// Package imaging provides the image plumbing of the freeze analysis:
// decoding frames, cropping droplet regions, differencing them and drawing
// the detection preview.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions are half-open:
// Min is inclusive, Max is exclusive.
//
// # Memory
//
// A freeze run only ever compares two consecutive frames. FrameWindow keeps
// at most that many decoded frames and evicts the oldest one when a new
// frame is loaded, so memory stays bounded regardless of sequence length.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O or decoding failures
//   - Regions that are empty after clamping to the image bounds
//   - Crops of mismatched size passed to AbsDiffSum
package imaging
