// Package dynamics provides the feed-forward compressor used on mix buses.
package dynamics

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/cityaudio/pkg/dsp/envelope"
)

// KneeType defines the compressor knee characteristic
type KneeType int

const (
	// KneeHard provides hard knee compression
	KneeHard KneeType = iota
	// KneeSoft provides soft knee compression
	KneeSoft
)

// Settings groups the bus dynamics parameters.
type Settings struct {
	ThresholdDB float64 `json:"threshold_db"`
	Ratio       float64 `json:"ratio"`
	Attack      float64 `json:"attack"`
	Release     float64 `json:"release"`
	KneeDB      float64 `json:"knee_db"`
	MakeupDB    float64 `json:"makeup_db"`
}

// Compressor implements a feed-forward compressor with linked stereo detection.
// Parameters are set from the control context before the compressor is
// installed in a chain; Process* runs in the audio context only.
type Compressor struct {
	sampleRate float64

	threshold  float64  // Threshold in dB
	ratio      float64  // Compression ratio (e.g., 4.0 for 4:1)
	attack     float64  // Attack time in seconds
	release    float64  // Release time in seconds
	kneeWidth  float64  // Knee width in dB (0 for hard knee)
	makeupGain float64  // Makeup gain in dB
	kneeType   KneeType // Knee type

	detector *envelope.Detector

	// gain reduction in dB as float64 bits, readable from any goroutine
	gainReduction atomic.Uint64
}

// NewCompressor creates a new compressor
func NewCompressor(sampleRate float64) *Compressor {
	c := &Compressor{
		sampleRate: sampleRate,
		threshold:  -20.0,
		ratio:      4.0,
		attack:     0.005,
		release:    0.050,
		kneeWidth:  2.0,
		kneeType:   KneeSoft,
		detector:   envelope.NewDetector(sampleRate, envelope.ModePeak),
	}

	c.detector.SetType(envelope.TypeLogarithmic)
	c.detector.SetTimeConstants(c.attack, c.release)
	return c
}

// NewCompressorWithSettings creates a compressor configured from s.
func NewCompressorWithSettings(sampleRate float64, s Settings) *Compressor {
	c := NewCompressor(sampleRate)
	c.SetThreshold(s.ThresholdDB)
	c.SetRatio(s.Ratio)
	c.SetAttack(s.Attack)
	c.SetRelease(s.Release)
	if s.KneeDB > 0 {
		c.SetKnee(KneeSoft, s.KneeDB)
	} else {
		c.SetKnee(KneeHard, 0)
	}
	c.makeupGain = s.MakeupDB
	return c
}

// SetThreshold sets the compression threshold in dB
func (c *Compressor) SetThreshold(dB float64) {
	c.threshold = math.Max(-60, math.Min(0, dB))
}

// SetRatio sets the compression ratio (1.0 = no compression)
func (c *Compressor) SetRatio(ratio float64) {
	c.ratio = math.Max(1.0, math.Min(20.0, ratio))
}

// SetAttack sets the attack time in seconds
func (c *Compressor) SetAttack(seconds float64) {
	c.attack = math.Max(0.0001, seconds)
	c.detector.SetAttack(c.attack)
}

// SetRelease sets the release time in seconds
func (c *Compressor) SetRelease(seconds float64) {
	c.release = math.Max(0.001, seconds)
	c.detector.SetRelease(c.release)
}

// SetKnee sets the knee type and width
func (c *Compressor) SetKnee(kneeType KneeType, widthDB float64) {
	c.kneeType = kneeType
	c.kneeWidth = math.Max(0.0, widthDB)
}

// GainReduction returns the most recent gain reduction in dB (for metering).
func (c *Compressor) GainReduction() float64 {
	return math.Float64frombits(c.gainReduction.Load())
}

// computeGain calculates the gain reduction for a given input level
func (c *Compressor) computeGain(inputDB float64) float64 {
	if inputDB < c.threshold-c.kneeWidth/2 {
		return 0.0
	}

	if inputDB > c.threshold+c.kneeWidth/2 || c.kneeType == KneeHard || c.kneeWidth == 0 {
		if inputDB <= c.threshold {
			return 0.0
		}
		return (inputDB - c.threshold) * (1.0 - 1.0/c.ratio)
	}

	// Quadratic soft knee
	over := inputDB - c.threshold + c.kneeWidth/2
	return (1.0 - 1.0/c.ratio) * over * over / (2 * c.kneeWidth)
}

// gainFor runs the detector on a level sample and returns the linear gain.
func (c *Compressor) gainFor(level float32) (float32, float64) {
	env := c.detector.Detect(level)

	inputDB := -96.0
	if env > 0 {
		inputDB = 20.0 * math.Log10(float64(env))
	}

	gr := c.computeGain(inputDB)
	return float32(math.Pow(10.0, (-gr+c.makeupGain)/20.0)), gr
}

// Process processes a single sample
func (c *Compressor) Process(input float32) float32 {
	g, gr := c.gainFor(input)
	c.gainReduction.Store(math.Float64bits(gr))
	return input * g
}

// ProcessStereo compresses stereo buffers in place with linked detection.
func (c *Compressor) ProcessStereo(left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	var gr float64
	for i := 0; i < n; i++ {
		l, r := left[i], right[i]
		if l < 0 {
			l = -l
		}
		if r < 0 {
			r = -r
		}
		level := l
		if r > level {
			level = r
		}
		var g float32
		g, gr = c.gainFor(level)
		left[i] *= g
		right[i] *= g
	}
	c.gainReduction.Store(math.Float64bits(gr))
}

// Reset resets the compressor state
func (c *Compressor) Reset() {
	c.detector.Reset()
	c.gainReduction.Store(0)
}
