package nm

import "math"

// maxPow10 is the largest power of ten a float64 holds.
const maxPow10 = 308

// RoundSig rounds v to sig significant decimal digits. Ties round to even.
//
// Zero, NaN and ±Inf are returned unchanged, as is v when sig < 1.
func RoundSig(v float64, sig int) float64 {
	if v == 0 || sig < 1 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	exp := sig - int(math.Floor(math.Log10(math.Abs(v)))) - 1
	if exp > maxPow10 {
		// 10^exp overflows for subnormal v; scale in two steps.
		rest := math.Pow(10, float64(exp-maxPow10))
		return math.RoundToEven(v*1e308*rest) / rest / 1e308
	}
	if exp >= 0 {
		factor := math.Pow(10, float64(exp))
		return math.RoundToEven(v*factor) / factor
	}
	factor := math.Pow(10, float64(-exp))
	return math.RoundToEven(v/factor) * factor
}

// RoundSigAll returns a new slice with RoundSig applied to every value.
func RoundSigAll(values []float64, sig int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = RoundSig(v, sig)
	}
	return out
}
