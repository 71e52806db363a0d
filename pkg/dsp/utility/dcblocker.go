package utility

import "math"

// DCBlocker removes DC offset from audio signals.
// Uses a high-pass filter with a very low cutoff frequency.
type DCBlocker struct {
	// State variables for each channel
	x1 []float32 // Previous input
	y1 []float32 // Previous output

	coefficient float32
}

// NewDCBlocker creates a new DC blocker for the specified number of channels.
// The cutoff frequency is typically around 5-20 Hz.
func NewDCBlocker(channels int, cutoffHz float32, sampleRate float64) *DCBlocker {
	dc := &DCBlocker{
		x1: make([]float32, channels),
		y1: make([]float32, channels),
	}
	dc.SetCutoff(cutoffHz, sampleRate)
	return dc
}

// Process removes DC offset from a single sample on a single channel.
func (dc *DCBlocker) Process(input float32, channel int) float32 {
	if channel >= len(dc.x1) {
		return input
	}

	// y[n] = x[n] - x[n-1] + R * y[n-1]
	output := input - dc.x1[channel] + dc.coefficient*dc.y1[channel]
	dc.x1[channel] = input
	dc.y1[channel] = output
	return output
}

// ProcessStereo processes stereo buffers in-place.
func (dc *DCBlocker) ProcessStereo(left, right []float32) {
	if len(dc.x1) < 2 {
		return
	}
	for i := range left {
		left[i] = dc.Process(left[i], 0)
	}
	for i := range right {
		right[i] = dc.Process(right[i], 1)
	}
}

// Reset clears the DC blocker state.
func (dc *DCBlocker) Reset() {
	for i := range dc.x1 {
		dc.x1[i] = 0
		dc.y1[i] = 0
	}
}

// SetCutoff updates the cutoff frequency.
func (dc *DCBlocker) SetCutoff(cutoffHz float32, sampleRate float64) {
	R := float32(1.0 - (2.0 * math.Pi * float64(cutoffHz) / sampleRate))

	// Clamp R to ensure stability
	if R < 0.9 {
		R = 0.9
	}
	if R > 0.9995 {
		R = 0.9995
	}
	dc.coefficient = R
}
