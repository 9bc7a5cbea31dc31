// Package dbmath holds decibel and linear amplitude conversions used by the
// gain resolver and the export filter chain.
package dbmath

import "math"

// DBToLinear converts decibels to linear amplitude.
// 0 dB = 1.0, -6 dB ~ 0.5, +6 dB ~ 2.0.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to decibels. Non-positive amplitudes
// map to -Inf.
func LinearToDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(linear)
}

// GainForTarget returns the gain in dB needed to move currentLUFS to
// targetLUFS. Positive = boost, negative = cut.
func GainForTarget(currentLUFS, targetLUFS float64) float64 {
	return targetLUFS - currentLUFS
}

// Clamp bounds v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
