// Package sequence walks the frames of an experiment and drives the freeze
// classifier across them.
//
// An experiment is one folder of frames ordered by name, each frame carrying
// its stage temperature in the file name. The Driver detects droplets on a
// reference frame, then classifies every consecutive frame pair:
//
//	Processing ──anomaly──▶ AnomalyReview ──go on──▶ Processing
//	                                      ──retry──▶ Restart ──▶ Processing
//	                                      ──exit───▶ Abort
//	Processing ──frames exhausted or temperature out of order──▶ Done
//
// A step in which too many droplets freeze at once usually means the focus
// or illumination changed, so a Reviewer decides whether to keep it, start
// the experiment over, or stop the whole run.
package sequence
