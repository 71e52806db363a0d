// Package pan provides stereo panning operations.
package pan

import (
	"math"
)

// Law represents different panning laws
type Law int

const (
	// Linear uses linear panning (constant power not maintained)
	Linear Law = iota
	// ConstantPower uses sine/cosine panning (maintains constant power)
	ConstantPower
)

// MonoToStereo pans a mono signal to stereo.
// pan: -1.0 = hard left, 0.0 = center, 1.0 = hard right
// Returns left and right gains.
func MonoToStereo(pan float32, law Law) (left, right float32) {
	if pan != pan {
		pan = 0
	}
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	switch law {
	case Linear:
		return linearPan(pan)
	default:
		return constantPowerPan(pan)
	}
}

// FromPosition derives a pan value from the listener-relative horizontal
// offset dx and the distance to the source. Sources straight ahead or on top
// of the listener are centered.
func FromPosition(dx, distance float64) float32 {
	if distance <= 0 || math.IsNaN(distance) || math.IsNaN(dx) {
		return 0
	}
	p := dx / distance
	if p > 1 {
		p = 1
	} else if p < -1 {
		p = -1
	}
	return float32(p)
}

// Width adjusts the stereo width of a signal in place.
// width: 0.0 = mono, 1.0 = normal stereo
func Width(left, right []float32, width float32) {
	length := len(left)
	if len(right) < length {
		length = len(right)
	}

	for i := 0; i < length; i++ {
		mid := (left[i] + right[i]) * 0.5
		side := (left[i] - right[i]) * 0.5 * width
		left[i] = mid + side
		right[i] = mid - side
	}
}

// linearPan implements simple linear panning.
func linearPan(pan float32) (left, right float32) {
	left = (1.0 - pan) * 0.5
	right = (1.0 + pan) * 0.5
	return
}

// constantPowerPan implements equal power panning using sine/cosine.
func constantPowerPan(pan float32) (left, right float32) {
	angle := (pan + 1.0) * math.Pi / 4.0
	left = float32(math.Max(0, math.Cos(float64(angle))))
	right = float32(math.Max(0, math.Sin(float64(angle))))
	return
}
