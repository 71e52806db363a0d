package procedural

import (
	"github.com/justyntemme/cityaudio/pkg/dsp/filter"
	"github.com/justyntemme/cityaudio/pkg/dsp/utility"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// TrafficHum is brown noise through a DC blocker and a low-pass. Speed opens the filter and
// quickens the swell of passing traffic; density sets the swell depth.
type TrafficHum struct {
	layer
	density param.Atomic
	speed   param.Atomic

	noiseL, noiseR *utility.NoiseGenerator
	dc             *utility.DCBlocker
	low            *filter.SVF
	swell          lfo
	swellMod       float32
}

// Brown noise wanders far from zero; strip that drift below the hum band.
const trafficDCCutoff = 12

// NewTrafficHum creates a traffic hum generator.
func NewTrafficHum(sampleRate float64, seed int64) *TrafficHum {
	t := &TrafficHum{}
	t.init("traffic", sampleRate)
	t.density.Init("traffic.density", 0, 1, 0.5)
	t.speed.Init("traffic.speed", 0, 1, 0.5)
	t.noiseL = utility.NewNoiseGenerator(utility.BrownNoise, seed)
	t.noiseR = utility.NewNoiseGenerator(utility.BrownNoise, seed+1)
	t.dc = utility.NewDCBlocker(2, trafficDCCutoff, t.sampleRate)
	t.low = filter.NewSVF(2, t.sampleRate)
	t.low.SetQ(0.6)
	return t
}

// SetDensity sets traffic density in [0, 1].
func (t *TrafficHum) SetDensity(v float64) { t.density.Set(v) }

// SetSpeed sets average traffic speed in [0, 1].
func (t *TrafficHum) SetSpeed(v float64) { t.speed.Set(v) }

// Density returns traffic density.
func (t *TrafficHum) Density() float64 { return t.density.Value() }

// Render adds one block of traffic hum.
func (t *TrafficHum) Render(left, right []float32) {
	n := blockLen(left, right)
	target, ramp, run := t.begin(n)
	if !run {
		return
	}
	speed := t.speed.Value()
	density := t.density.Value()
	t.swell.setRate(0.05+0.25*speed, t.sampleRate)
	// Sparse traffic swells more; a dense jam is a steady drone.
	depth := 0.6 - 0.45*density

	for i := 0; i < n; i++ {
		if i%controlRate == 0 {
			s := t.swell.advance(controlRate)
			t.low.SetFrequency(90 + 420*speed + 60*s)
			t.swellMod = float32(1 - depth*(0.5-0.5*s))
		}
		gain := t.step(target, ramp) * t.swellMod
		l := t.dc.Process(t.noiseL.Next(), 0)
		r := t.dc.Process(t.noiseR.Next(), 1)
		left[i] += t.low.Lowpass(l, 0) * gain
		right[i] += t.low.Lowpass(r, 1) * gain
	}
}

// Reset clears filter and noise state.
func (t *TrafficHum) Reset() {
	t.noiseL.Reset()
	t.noiseR.Reset()
	t.dc.Reset()
	t.low.Reset()
	t.swell = lfo{}
	t.gain = 0
}
