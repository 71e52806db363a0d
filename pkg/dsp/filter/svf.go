// Package filter provides digital signal processing filters
package filter

import "math"

// SVF implements a state variable filter
// Provides simultaneous lowpass, highpass, bandpass, and notch outputs
// Zero-delay feedback topology, stable under per-block cutoff modulation.
type SVF struct {
	sampleRate float64

	// Filter parameters
	g float32 // frequency coefficient
	k float32 // damping coefficient (1/Q)

	// State variables (per-channel)
	ic1eq []float32 // integrator 1 state
	ic2eq []float32 // integrator 2 state
}

// SVFOutputs holds all filter outputs
type SVFOutputs struct {
	Lowpass  float32
	Highpass float32
	Bandpass float32
	Notch    float32
}

// NewSVF creates a new state variable filter for the specified number of
// channels with a Butterworth Q and a cutoff of 1 kHz.
func NewSVF(channels int, sampleRate float64) *SVF {
	s := &SVF{
		sampleRate: sampleRate,
		ic1eq:      make([]float32, channels),
		ic2eq:      make([]float32, channels),
	}
	s.SetFrequencyAndQ(1000, 0.707)
	return s
}

// Reset clears the filter state
func (s *SVF) Reset() {
	for i := range s.ic1eq {
		s.ic1eq[i] = 0
		s.ic2eq[i] = 0
	}
}

// SetFrequency sets the filter frequency. The value is clamped to
// [10 Hz, 0.45 * sampleRate] so tan() never blows up near Nyquist.
func (s *SVF) SetFrequency(frequency float64) {
	if math.IsNaN(frequency) || frequency < 10 {
		frequency = 10
	}
	if max := 0.45 * s.sampleRate; frequency > max {
		frequency = max
	}
	// Pre-warp the frequency for the bilinear transform
	s.g = float32(math.Tan(math.Pi * frequency / s.sampleRate))
}

// SetQ sets the filter resonance (Q factor)
func (s *SVF) SetQ(q float64) {
	if q < 0.1 || math.IsNaN(q) {
		q = 0.1
	}
	s.k = float32(1.0 / q)
}

// SetFrequencyAndQ sets both frequency and Q in one call
func (s *SVF) SetFrequencyAndQ(frequency, q float64) {
	s.SetFrequency(frequency)
	s.SetQ(q)
}

// ProcessSample processes a single sample and returns all outputs
func (s *SVF) ProcessSample(input float32, channel int) SVFOutputs {
	ic1eq := s.ic1eq[channel]
	ic2eq := s.ic2eq[channel]

	g := s.g
	k := s.k
	a1 := 1.0 / (1.0 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := input - ic2eq
	v1 := a1*ic1eq + a2*v3
	v2 := ic2eq + a2*ic1eq + a3*v3

	s.ic1eq[channel] = 2.0*v1 - ic1eq
	s.ic2eq[channel] = 2.0*v2 - ic2eq

	return SVFOutputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: input - k*v1 - v2,
		Notch:    input - k*v1,
	}
}

// Lowpass filters one sample.
func (s *SVF) Lowpass(input float32, channel int) float32 {
	return s.ProcessSample(input, channel).Lowpass
}

// Highpass filters one sample.
func (s *SVF) Highpass(input float32, channel int) float32 {
	return s.ProcessSample(input, channel).Highpass
}

// Bandpass filters one sample.
func (s *SVF) Bandpass(input float32, channel int) float32 {
	return s.ProcessSample(input, channel).Bandpass
}

// ProcessLowpass processes buffer as lowpass filter - no allocations
func (s *SVF) ProcessLowpass(buffer []float32, channel int) {
	for i := range buffer {
		buffer[i] = s.ProcessSample(buffer[i], channel).Lowpass
	}
}

// ProcessHighpass processes buffer as highpass filter - no allocations
func (s *SVF) ProcessHighpass(buffer []float32, channel int) {
	for i := range buffer {
		buffer[i] = s.ProcessSample(buffer[i], channel).Highpass
	}
}
