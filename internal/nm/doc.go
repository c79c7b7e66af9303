// Package nm turns per-step freeze records into the cumulative
// frozen-fraction curve and the ice-nucleation active-site density Nm.
//
// For each temperature step, in order of increasing undercooling:
//
//	Already_frozen  = running sum of frozen droplets
//	frozen_fraction = Already_frozen / total frozen
//	Nm              = -ln(1 - frozen_fraction) * (d*a) / (V*b)
//
// V is the volume of a sphere with the mean droplet radius, either pooled
// over the whole experiment or per step (see VolumePolicy). Frozen fraction
// and Nm are rounded to a fixed number of significant figures with RoundSig.
//
// Everything here is a pure function of its inputs.
package nm
