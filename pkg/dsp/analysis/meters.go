package analysis

import (
	"math"
	"sync/atomic"
)

// atomicFloat stores a float64 as bits.
type atomicFloat struct{ bits atomic.Uint64 }

func (a *atomicFloat) load() float64   { return math.Float64frombits(a.bits.Load()) }
func (a *atomicFloat) store(v float64) { a.bits.Store(math.Float64bits(v)) }

// PeakMeter measures peak signal levels with hold and decay.
// Process must be called from a single goroutine.
type PeakMeter struct {
	sampleRate float64
	holdTime   float64
	decayRate  float64 // dB per second

	peak      float64
	hold      float64
	holdCount int

	pubPeak atomicFloat
	pubHold atomicFloat
}

// NewPeakMeter creates a new peak meter
func NewPeakMeter(sampleRate float64) *PeakMeter {
	return &PeakMeter{
		sampleRate: sampleRate,
		holdTime:   3.0,
		decayRate:  20.0,
	}
}

// SetDecayRate sets the peak decay rate in dB/second
func (pm *PeakMeter) SetDecayRate(dbPerSecond float64) {
	pm.decayRate = dbPerSecond
}

// Process updates the peak meter with new samples
func (pm *PeakMeter) Process(samples []float32) {
	blockPeak := 0.0
	for _, sample := range samples {
		abs := math.Abs(float64(sample))
		if abs > blockPeak {
			blockPeak = abs
		}
	}

	decayPerSample := pm.decayRate / pm.sampleRate / 20.0 * math.Ln10
	pm.peak *= math.Exp(-decayPerSample * float64(len(samples)))
	if blockPeak > pm.peak {
		pm.peak = blockPeak
	}

	if blockPeak > pm.hold {
		pm.hold = blockPeak
		pm.holdCount = int(pm.holdTime * pm.sampleRate)
	} else {
		pm.holdCount -= len(samples)
		if pm.holdCount <= 0 {
			pm.hold = pm.peak
			pm.holdCount = 0
		}
	}

	pm.pubPeak.store(pm.peak)
	pm.pubHold.store(pm.hold)
}

// Peak returns the current peak level (linear)
func (pm *PeakMeter) Peak() float64 {
	return pm.pubPeak.load()
}

// PeakDB returns the current peak level in decibels
func (pm *PeakMeter) PeakDB() float64 {
	return toDB(pm.Peak())
}

// Hold returns the held peak level (linear)
func (pm *PeakMeter) Hold() float64 {
	return pm.pubHold.load()
}

// Reset clears the peak and hold values. Call only while Process is idle.
func (pm *PeakMeter) Reset() {
	pm.peak = 0
	pm.hold = 0
	pm.holdCount = 0
	pm.pubPeak.store(0)
	pm.pubHold.store(0)
}

// RMSMeter measures RMS level over an exponentially weighted window.
type RMSMeter struct {
	coef       float64
	meanSquare float64
	pub        atomicFloat
}

// NewRMSMeter creates an RMS meter whose averaging time constant is window seconds.
func NewRMSMeter(sampleRate, window float64) *RMSMeter {
	if window <= 0 {
		window = 0.3
	}
	return &RMSMeter{coef: 1 - math.Exp(-1/(window*sampleRate))}
}

// Process updates the RMS meter with new samples
func (rm *RMSMeter) Process(samples []float32) {
	ms := rm.meanSquare
	for _, s := range samples {
		ms += (float64(s)*float64(s) - ms) * rm.coef
	}
	rm.meanSquare = ms
	rm.pub.store(math.Sqrt(ms))
}

// RMS returns the current RMS level (linear)
func (rm *RMSMeter) RMS() float64 {
	return rm.pub.load()
}

// RMSDB returns the current RMS level in decibels
func (rm *RMSMeter) RMSDB() float64 {
	return toDB(rm.RMS())
}

// Reset clears the accumulated level.
func (rm *RMSMeter) Reset() {
	rm.meanSquare = 0
	rm.pub.store(0)
}

// MasterMeter meters a stereo pair, reporting the louder channel.
type MasterMeter struct {
	peakL, peakR *PeakMeter
	rmsL, rmsR   *RMSMeter
}

// NewMasterMeter creates a stereo meter.
func NewMasterMeter(sampleRate float64) *MasterMeter {
	return &MasterMeter{
		peakL: NewPeakMeter(sampleRate),
		peakR: NewPeakMeter(sampleRate),
		rmsL:  NewRMSMeter(sampleRate, 0.3),
		rmsR:  NewRMSMeter(sampleRate, 0.3),
	}
}

// Process meters one block of stereo output.
func (m *MasterMeter) Process(left, right []float32) {
	m.peakL.Process(left)
	m.peakR.Process(right)
	m.rmsL.Process(left)
	m.rmsR.Process(right)
}

// PeakDB returns the louder channel's peak in dB.
func (m *MasterMeter) PeakDB() float64 {
	return toDB(math.Max(m.peakL.Peak(), m.peakR.Peak()))
}

// RMSDB returns the louder channel's RMS in dB.
func (m *MasterMeter) RMSDB() float64 {
	return toDB(math.Max(m.rmsL.RMS(), m.rmsR.RMS()))
}

// Reset clears all channels.
func (m *MasterMeter) Reset() {
	m.peakL.Reset()
	m.peakR.Reset()
	m.rmsL.Reset()
	m.rmsR.Reset()
}

// toDB converts to decibels with a -120 dB floor so the value stays JSON-safe.
func toDB(v float64) float64 {
	if v <= 1e-6 {
		return -120
	}
	return 20.0 * math.Log10(v)
}
