// Package freeze decides which still-liquid droplets froze between two
// consecutive frames.
//
// # Freezing Signal
//
// A phase change alters the optical appearance of a droplet. For every
// liquid droplet the classifier crops its square bounding box from the
// previous and the current frame, sums the absolute per-channel difference
// and normalizes by the droplet's cross-section:
//
//	ratio = diff_sum · π / r²
//
// A droplet whose ratio is strictly greater than Params.Threshold freezes.
//
// # Artifacts
//
// Circles smaller than Params.MinRadius, or lying entirely in the label
// zone in the bottom-right corner, are detector artifacts. They are moved
// to droplet.Ignored the first time they are seen and never counted.
//
// # Anomalies
//
// More than Params.AnomalyCount droplets freezing in a single step usually
// means the lighting changed or the sample moved. The step result is
// flagged as anomalous so the caller can ask for a human decision.
package freeze
