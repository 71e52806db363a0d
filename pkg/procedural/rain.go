package procedural

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/dsp/filter"
	"github.com/justyntemme/cityaudio/pkg/dsp/utility"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// maxDropRate is the droplet rate per second at full intensity.
const maxDropRate = 60.0

// Rain is high-passed white noise for the wash plus sparse decaying
// droplets at random stereo positions.
type Rain struct {
	layer
	intensity param.Atomic

	noiseL, noiseR *utility.NoiseGenerator
	drops          *utility.NoiseGenerator
	high           *filter.SVF

	dropEnv   float32
	dropDecay float32
	dropPanL  float32
	dropPanR  float32
}

// NewRain creates a rain generator.
func NewRain(sampleRate float64, seed int64) *Rain {
	r := &Rain{}
	r.init("rain", sampleRate)
	r.intensity.Init("rain.intensity", 0, 1, 0.5)
	r.noiseL = utility.NewNoiseGenerator(utility.WhiteNoise, seed)
	r.noiseR = utility.NewNoiseGenerator(utility.WhiteNoise, seed+1)
	r.drops = utility.NewNoiseGenerator(utility.WhiteNoise, seed+2)
	r.high = filter.NewSVF(2, r.sampleRate)
	r.high.SetQ(0.707)
	r.dropDecay = float32(math.Exp(-1 / (0.004 * r.sampleRate)))
	return r
}

// SetIntensity sets rain intensity in [0, 1].
func (r *Rain) SetIntensity(v float64) { r.intensity.Set(v) }

// Intensity returns rain intensity.
func (r *Rain) Intensity() float64 { return r.intensity.Value() }

// Render adds one block of rain.
func (r *Rain) Render(left, right []float32) {
	n := blockLen(left, right)
	target, ramp, run := r.begin(n)
	if !run {
		return
	}
	intensity := r.intensity.Value()
	// Heavier rain sounds denser and lower.
	r.high.SetFrequency(4000 - 2200*intensity)
	wash := float32(0.35 + 0.4*intensity)
	dropChance := float32(maxDropRate * intensity / r.sampleRate)

	for i := 0; i < n; i++ {
		gain := r.step(target, ramp)
		l := r.high.Highpass(r.noiseL.Next(), 0) * wash
		rr := r.high.Highpass(r.noiseR.Next(), 1) * wash

		if r.drops.Uniform() < dropChance {
			r.dropEnv = 0.5 + 0.5*r.drops.Uniform()
			p := r.drops.Uniform()
			r.dropPanL = float32(math.Cos(float64(p) * math.Pi / 2))
			r.dropPanR = float32(math.Sin(float64(p) * math.Pi / 2))
		}
		if r.dropEnv > 1e-4 {
			d := r.dropEnv * r.drops.Next()
			l += d * r.dropPanL
			rr += d * r.dropPanR
			r.dropEnv *= r.dropDecay
		}

		left[i] += l * gain
		right[i] += rr * gain
	}
}

// Reset clears filter, droplet and noise state.
func (r *Rain) Reset() {
	r.noiseL.Reset()
	r.noiseR.Reset()
	r.drops.Reset()
	r.high.Reset()
	r.dropEnv = 0
	r.gain = 0
}
