// Package mix provides crossfade curves used for section changes and region fades.
package mix

import (
	"math"
)

// EqualPower returns the (out, in) gains of an equal-power crossfade.
// position: 0.0 = fully out, 1.0 = fully in
func EqualPower(position float64) (out, in float64) {
	if position <= 0 || math.IsNaN(position) {
		return 1, 0
	}
	if position >= 1 {
		return 0, 1
	}
	angle := position * math.Pi / 2.0
	return math.Cos(angle), math.Sin(angle)
}

// CrossfadeCosine performs an equal-power cosine crossfade.
// position: 0.0 = 100% a, 1.0 = 100% b
func CrossfadeCosine(a, b, position float32) float32 {
	gainA, gainB := EqualPower(float64(position))
	return a*float32(gainA) + b*float32(gainB)
}

// CrossfadeLinear performs a linear crossfade.
// position: 0.0 = 100% a, 1.0 = 100% b
func CrossfadeLinear(a, b, position float32) float32 {
	return a*(1.0-position) + b*position
}

// CrossfadeBuffer performs an equal-power crossfade between two buffers
// while position moves linearly from start to end across the block.
func CrossfadeBuffer(a, b []float32, start, end float32, dst []float32) {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	if len(dst) < length {
		length = len(dst)
	}
	if length == 0 {
		return
	}

	step := (end - start) / float32(length)
	pos := start
	for i := 0; i < length; i++ {
		dst[i] = CrossfadeCosine(a[i], b[i], pos)
		pos += step
	}
}

// BoundaryWeight returns an equal-power fade-out weight for a value crossing
// a boundary: 1 below boundary-band, 0 above boundary+band, and a cosine
// curve in between. A non-positive band produces a hard step.
func BoundaryWeight(value, boundary, band float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	if band <= 0 {
		if value <= boundary {
			return 1
		}
		return 0
	}
	pos := (value - (boundary - band)) / (2 * band)
	out, _ := EqualPower(pos)
	return out
}
