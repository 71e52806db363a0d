// Package envelope provides envelope detectors for bus dynamics.
package envelope

import (
	"math"
)

// DetectorMode defines the envelope detection mode
type DetectorMode int

const (
	// ModePeak detects the peak level
	ModePeak DetectorMode = iota
	// ModeRMS detects the RMS (Root Mean Square) level
	ModeRMS
)

// DetectorType defines the envelope detector response type
type DetectorType int

const (
	// TypeLinear uses linear envelope detection
	TypeLinear DetectorType = iota
	// TypeLogarithmic uses logarithmic envelope detection (better for audio perception)
	TypeLogarithmic
)

// maxRMSWindow bounds the RMS window so it can be allocated up front.
const maxRMSWindow = 0.050

// Detector implements an envelope detector for dynamics processing.
// All storage is allocated by NewDetector; Detect never allocates.
type Detector struct {
	sampleRate float64
	mode       DetectorMode
	detType    DetectorType

	// Time constants
	attack  float64 // Attack time in seconds
	release float64 // Release time in seconds

	// Coefficients (pre-calculated)
	attackCoef  float64
	releaseCoef float64

	envelope float64

	// RMS window
	rmsWindow    []float64
	rmsIndex     int
	rmsSum       float64
	rmsWindowLen int
}

// NewDetector creates a new envelope detector
func NewDetector(sampleRate float64, mode DetectorMode) *Detector {
	d := &Detector{
		sampleRate: sampleRate,
		mode:       mode,
		detType:    TypeLinear,
		attack:     0.001,
		release:    0.100,
		rmsWindow:  make([]float64, int(sampleRate*maxRMSWindow)+1),
	}
	d.SetRMSWindow(3)
	d.updateCoefficients()
	return d
}

// SetType sets the detector response type
func (d *Detector) SetType(detType DetectorType) {
	d.detType = detType
	d.updateCoefficients()
}

// minAttack allows attacks short enough to snap to single-sample peaks.
const minAttack = 1e-6

// SetAttack sets the attack time in seconds
func (d *Detector) SetAttack(seconds float64) {
	d.attack = math.Max(minAttack, seconds)
	d.updateCoefficients()
}

// SetRelease sets the release time in seconds
func (d *Detector) SetRelease(seconds float64) {
	d.release = math.Max(0.0001, seconds)
	d.updateCoefficients()
}

// SetTimeConstants sets attack and release times together
func (d *Detector) SetTimeConstants(attack, release float64) {
	d.attack = math.Max(minAttack, attack)
	d.release = math.Max(0.0001, release)
	d.updateCoefficients()
}

// SetRMSWindow sets the RMS window length in milliseconds, up to 50 ms.
func (d *Detector) SetRMSWindow(ms float64) {
	n := int(d.sampleRate * ms / 1000.0)
	if n < 1 {
		n = 1
	}
	if n > len(d.rmsWindow) {
		n = len(d.rmsWindow)
	}
	d.rmsWindowLen = n
	d.Reset()
}

func (d *Detector) updateCoefficients() {
	scale := 1.0
	if d.detType == TypeLogarithmic {
		scale = 2.2
	}
	d.attackCoef = 1.0 - math.Exp(-scale/(d.attack*d.sampleRate))
	d.releaseCoef = 1.0 - math.Exp(-scale/(d.release*d.sampleRate))
}

// Detect processes a single sample and returns the envelope value
func (d *Detector) Detect(input float32) float32 {
	var inputLevel float64

	switch d.mode {
	case ModeRMS:
		squared := float64(input) * float64(input)
		oldValue := d.rmsWindow[d.rmsIndex]
		d.rmsWindow[d.rmsIndex] = squared
		d.rmsSum += squared - oldValue
		d.rmsIndex = (d.rmsIndex + 1) % d.rmsWindowLen
		if d.rmsSum < 0 {
			d.rmsSum = 0
		}
		inputLevel = math.Sqrt(d.rmsSum / float64(d.rmsWindowLen))
	default:
		inputLevel = math.Abs(float64(input))
	}

	if inputLevel > d.envelope {
		d.envelope += (inputLevel - d.envelope) * d.attackCoef
		// Very short attacks capture instantaneous peaks
		if d.mode == ModePeak && d.attackCoef > 0.5 {
			d.envelope = inputLevel
		}
	} else {
		d.envelope += (inputLevel - d.envelope) * d.releaseCoef
	}

	return float32(d.envelope)
}

// Process processes a buffer of samples and fills output with envelope values
func (d *Detector) Process(input, output []float32) {
	for i := range input {
		output[i] = d.Detect(input[i])
	}
}

// Envelope returns the current envelope value
func (d *Detector) Envelope() float32 {
	return float32(d.envelope)
}

// EnvelopeDB returns the current envelope value in decibels
func (d *Detector) EnvelopeDB() float64 {
	if d.envelope <= 0 {
		return -96.0
	}
	return 20.0 * math.Log10(d.envelope)
}

// Reset resets the detector state
func (d *Detector) Reset() {
	d.envelope = 0
	for i := range d.rmsWindow {
		d.rmsWindow[i] = 0
	}
	d.rmsSum = 0
	d.rmsIndex = 0
}
