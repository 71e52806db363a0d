package param

import (
	"math"
)

// Approach moves current toward target by the exponential step for an
// interval dt with time constant tau. The result does not depend on how dt
// is subdivided: two steps of dt/2 land where one step of dt does.
func Approach(current, target, dt, tau float64) float64 {
	if dt <= 0 || math.IsNaN(dt) {
		return current
	}
	if tau <= 0 {
		return target
	}
	return current + (target-current)*(1-math.Exp(-dt/tau))
}

// SettleTime returns how long Approach needs to cover all but fraction of
// a step, e.g. SettleTime(tau, 0.01) is the 99 % time.
func SettleTime(tau, fraction float64) float64 {
	if fraction <= 0 || fraction >= 1 {
		return 0
	}
	return -tau * math.Log(fraction)
}

// SmoothingType defines different parameter smoothing algorithms.
type SmoothingType int

const (
	// LinearSmoothing ramps to the target over a fixed number of samples
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing uses a one-pole filter with a time constant
	ExponentialSmoothing
)

// Smoother provides per-sample parameter smoothing to prevent zipper noise.
// It is owned by the audio callback; targets come from Atomic parameters
// read once per buffer.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	threshold     float64
	isSmoothing   bool

	coef    float64 // exponential coefficient per sample
	samples float64 // linear ramp length
	step    float64
}

// NewSmoother creates a smoother. For ExponentialSmoothing seconds is the
// time constant; for LinearSmoothing it is the ramp duration.
func NewSmoother(smoothingType SmoothingType, seconds, sampleRate float64) *Smoother {
	s := &Smoother{
		smoothingType: smoothingType,
		threshold:     1e-5,
	}
	n := seconds * sampleRate
	if n < 1 {
		n = 1
	}
	s.samples = n
	s.coef = 1 - math.Exp(-1/n)
	return s
}

// SetTarget sets the target value for smoothing.
func (s *Smoother) SetTarget(target float64) {
	if math.IsNaN(target) || math.Abs(target-s.target) < s.threshold {
		return
	}

	s.target = target
	s.isSmoothing = true
	if s.smoothingType == LinearSmoothing {
		s.step = (target - s.current) / s.samples
	}
}

// Next returns the next smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		s.current += (s.target - s.current) * s.coef
		if math.Abs(s.current-s.target) < s.threshold {
			s.current = s.target
			s.isSmoothing = false
		}

	case LinearSmoothing:
		s.current += s.step
		if (s.step > 0 && s.current >= s.target) || (s.step < 0 && s.current <= s.target) || s.step == 0 {
			s.current = s.target
			s.isSmoothing = false
		}
	}

	return s.current
}

// Current returns the current value without advancing.
func (s *Smoother) Current() float64 {
	return s.current
}

// IsSmoothing returns true if the smoother is currently smoothing.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// Reset resets the smoother to a specific value.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
}
