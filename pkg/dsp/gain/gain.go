// Package gain provides amplitude and gain-related DSP operations.
package gain

import (
	"math"
)

// Constants for dB conversion
const (
	// MinDB is the minimum dB value (effectively -infinity)
	MinDB = -200.0

	// SilenceDB is the level below which a bus or voice is treated as silent.
	SilenceDB = -96.0
)

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 || math.IsNaN(linear) {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB || math.IsNaN(db) {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// Fade applies a linear fade between two gain values.
// The last sample receives endGain exactly.
func Fade(buffer []float32, startGain, endGain float32) {
	if len(buffer) == 0 {
		return
	}

	samples := float32(len(buffer) - 1)
	if samples <= 0 {
		buffer[0] *= endGain
		return
	}

	gainDelta := (endGain - startGain) / samples
	gain := startGain

	for i := range buffer {
		buffer[i] *= gain
		gain += gainDelta
	}
}

// SoftClip applies soft clipping to limit signal amplitude.
func SoftClip(input, threshold float32) float32 {
	absInput := input
	if absInput < 0 {
		absInput = -absInput
	}
	if absInput <= threshold {
		return input
	}
	return threshold * fastTanh32(input/threshold)
}

// SoftClipBuffer applies soft clipping to an entire buffer.
func SoftClipBuffer(buffer []float32, threshold float32) {
	for i := range buffer {
		buffer[i] = SoftClip(buffer[i], threshold)
	}
}

// fastTanh32 approximates tanh for soft clipping.
func fastTanh32(x float32) float32 {
	if x < -3 {
		return -1
	}
	if x > 3 {
		return 1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}
