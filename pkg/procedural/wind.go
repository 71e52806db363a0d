package procedural

import (
	"github.com/justyntemme/cityaudio/pkg/dsp/filter"
	"github.com/justyntemme/cityaudio/pkg/dsp/utility"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// Wind is pink noise through a band-pass whose centre and level follow a
// slow gust oscillator. Speed raises the centre frequency and gust depth.
type Wind struct {
	layer
	speed param.Atomic

	noiseL, noiseR *utility.NoiseGenerator
	band           *filter.SVF
	gust           lfo
	gustMod        float32
}

// NewWind creates a wind generator.
func NewWind(sampleRate float64, seed int64) *Wind {
	w := &Wind{}
	w.init("wind", sampleRate)
	w.speed.Init("wind.speed", 0, 1, 0.3)
	w.noiseL = utility.NewNoiseGenerator(utility.PinkNoise, seed)
	w.noiseR = utility.NewNoiseGenerator(utility.PinkNoise, seed+1)
	w.band = filter.NewSVF(2, w.sampleRate)
	w.band.SetQ(1.2)
	return w
}

// SetSpeed sets wind speed in [0, 1].
func (w *Wind) SetSpeed(v float64) { w.speed.Set(v) }

// Speed returns wind speed.
func (w *Wind) Speed() float64 { return w.speed.Value() }

// Render adds one block of wind.
func (w *Wind) Render(left, right []float32) {
	n := blockLen(left, right)
	target, ramp, run := w.begin(n)
	if !run {
		return
	}
	speed := w.speed.Value()
	w.gust.setRate(0.08+0.3*speed, w.sampleRate)
	depth := 0.3 + 0.5*speed

	for i := 0; i < n; i++ {
		if i%controlRate == 0 {
			g := w.gust.advance(controlRate)
			w.band.SetFrequency(250 + 900*speed + 300*speed*g)
			w.gustMod = float32(1 - depth*(0.5-0.5*g))
		}
		gain := w.step(target, ramp) * w.gustMod
		left[i] += w.band.Bandpass(w.noiseL.Next(), 0) * gain
		right[i] += w.band.Bandpass(w.noiseR.Next(), 1) * gain
	}
}

// Reset clears filter and noise state.
func (w *Wind) Reset() {
	w.noiseL.Reset()
	w.noiseR.Reset()
	w.band.Reset()
	w.gust = lfo{}
	w.gain = 0
}
