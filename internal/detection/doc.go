// Package detection locates droplets in the reference frame of an
// experiment.
//
// Droplets are found with a circular Hough search on a heavily smoothed,
// adaptively thresholded copy of the frame. The smoothing removes the
// texture inside the droplets so that only their rims survive the
// threshold.
//
// # Pipeline
//
// Enhancement runs in pure Go (bild box blur, imaging contrast). The
// remaining stages run in OpenCV through gocv:
//
//  1. Grayscale conversion
//  2. Gaussian blurs, 21x21 then 31x31 by default
//  3. Bilateral filter (d=15, sigma 150/150)
//  4. Adaptive Gaussian threshold (block 101, C=2)
//  5. Median blur (kernel 9)
//  6. HoughCircles with the gradient method
//
// Every constant is a field of Params so the pipeline can be tuned from the
// configuration file instead of the interactive sliders of the lab tool.
//
// # Label Zone
//
// The microscope burns a text label into the bottom-right corner of every
// frame. Circles whose bounding box falls fully inside that zone are
// dropped; see droplet.InLabelZone.
//
// # Coordinate System
//
// Circle centers and radii are integer pixels in the coordinate space of the
// input image, origin at the top-left corner.
package detection
