// Package dsp provides buffer helpers and constants shared by the mixing code.
// Every function here is safe to call from the audio callback: no allocations.
package dsp

import "math"

// Clear zeroes a buffer.
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Add adds source to destination.
func Add(dst, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// AddRamped adds source to destination while the scale moves linearly from
// start to end across the block. Used wherever a gain changes between two
// buffers so that the step is not audible.
func AddRamped(dst, src []float32, start, end float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	if n == 0 {
		return
	}
	step := (end - start) / float32(n)
	g := start
	for i := 0; i < n; i++ {
		dst[i] += src[i] * g
		g += step
	}
}

// Peak finds the maximum absolute value in a buffer.
func Peak(buffer []float32) float32 {
	peak := float32(0)
	for _, sample := range buffer {
		abs := float32(math.Abs(float64(sample)))
		if abs > peak {
			peak = abs
		}
	}
	return peak
}

// SumSquares returns the sum of squared samples, for callers that
// accumulate RMS over several blocks.
func SumSquares(buffer []float32) float64 {
	sum := 0.0
	for _, sample := range buffer {
		sum += float64(sample) * float64(sample)
	}
	return sum
}

// RMS calculates the root mean square of a buffer.
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	return float32(math.Sqrt(SumSquares(buffer) / float64(len(buffer))))
}

// SoftClip applies soft saturation above threshold.
func SoftClip(buffer []float32, threshold float32) {
	for i := range buffer {
		sample := buffer[i]
		if sample > threshold {
			buffer[i] = threshold + (1.0-threshold)*float32(math.Tanh(float64(sample-threshold)))
		} else if sample < -threshold {
			buffer[i] = -threshold + (-1.0+threshold)*float32(math.Tanh(float64(sample+threshold)))
		}
	}
}

// Clamp01 clamps v to [0, 1] and maps NaN to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
