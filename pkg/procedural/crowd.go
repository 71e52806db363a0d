package procedural

import (
	"github.com/justyntemme/cityaudio/pkg/dsp/filter"
	"github.com/justyntemme/cityaudio/pkg/dsp/utility"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// Crowd is pink noise shaped by two vowel-like formant band-passes with a
// wandering murmur envelope. Activity widens the murmur and raises the
// upper formant.
type Crowd struct {
	layer
	activity param.Atomic

	noiseL, noiseR *utility.NoiseGenerator
	murmurSrc      *utility.NoiseGenerator
	low, high      *filter.SVF
	wobble         lfo

	murmur float32
	mod    float32
	hiMix  float32
}

// NewCrowd creates a crowd generator.
func NewCrowd(sampleRate float64, seed int64) *Crowd {
	c := &Crowd{}
	c.init("crowd", sampleRate)
	c.activity.Init("crowd.activity", 0, 1, 0.5)
	c.noiseL = utility.NewNoiseGenerator(utility.PinkNoise, seed)
	c.noiseR = utility.NewNoiseGenerator(utility.PinkNoise, seed+1)
	c.murmurSrc = utility.NewNoiseGenerator(utility.WhiteNoise, seed+2)
	c.low = filter.NewSVF(2, c.sampleRate)
	c.high = filter.NewSVF(2, c.sampleRate)
	c.low.SetFrequencyAndQ(500, 3)
	c.high.SetFrequencyAndQ(1500, 4)
	c.murmur = 0.5
	c.wobble.setRate(0.7, c.sampleRate)
	return c
}

// SetActivity sets how busy the crowd is in [0, 1].
func (c *Crowd) SetActivity(v float64) { c.activity.Set(v) }

// Activity returns crowd activity.
func (c *Crowd) Activity() float64 { return c.activity.Value() }

// Render adds one block of crowd murmur.
func (c *Crowd) Render(left, right []float32) {
	n := blockLen(left, right)
	target, ramp, run := c.begin(n)
	if !run {
		return
	}
	activity := c.activity.Value()
	c.hiMix = float32(0.3 + 0.5*activity)
	spread := float32(0.2 + 0.6*activity)

	for i := 0; i < n; i++ {
		if i%controlRate == 0 {
			w := c.wobble.advance(controlRate)
			c.high.SetFrequency(1300 + 500*activity + 120*w)
			// Random walk toward a new murmur level.
			c.murmur += (c.murmurSrc.Uniform() - c.murmur) * 0.05
			c.mod = 1 - spread + spread*c.murmur
		}
		gain := c.step(target, ramp) * c.mod
		nl, nr := c.noiseL.Next(), c.noiseR.Next()
		l := c.low.Bandpass(nl, 0) + c.high.Bandpass(nl, 0)*c.hiMix
		r := c.low.Bandpass(nr, 1) + c.high.Bandpass(nr, 1)*c.hiMix
		left[i] += l * gain
		right[i] += r * gain
	}
}

// Reset clears filter, murmur and noise state.
func (c *Crowd) Reset() {
	c.noiseL.Reset()
	c.noiseR.Reset()
	c.murmurSrc.Reset()
	c.low.Reset()
	c.high.Reset()
	c.wobble.phase = 0
	c.murmur = 0.5
	c.gain = 0
}
