// Package procedural synthesises ambience layers from filtered noise: wind,
// rain, traffic hum and crowd murmur. Parameters are atomics written by the
// control context; Render runs in the audio callback, adds into the
// destination buffers and never allocates.
package procedural

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/dsp"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// Generator is a procedural layer.
type Generator interface {
	Name() string
	// Render adds one block to left and right.
	Render(left, right []float32)
	SetEnabled(on bool)
	Enabled() bool
	SetLevel(v float64)
	Reset()
}

// controlRate is how many samples share one set of filter coefficients.
const controlRate = 32

// levelTime is the smoothing time of the output level in seconds.
const levelTime = 0.05

// layer holds the state every generator shares: output level, the enable
// flag latched per buffer, and the per-sample level smoother.
type layer struct {
	name       string
	sampleRate float64

	enabled param.Flag
	level   param.Atomic

	gain     float32
	smooth   float32
	fadeLeft int
}

func (v *layer) init(name string, sampleRate float64) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		sampleRate = dsp.SampleRate48k
	}
	v.name = name
	v.sampleRate = sampleRate
	v.level.Init(name+".level", 0, 1, 0)
	v.enabled.Set(true)
	v.smooth = float32(1 - math.Exp(-1/(levelTime*sampleRate)))
}

// Name returns the generator name.
func (v *layer) Name() string { return v.name }

// SetEnabled switches the generator. The change is picked up at the start of
// the next buffer, which fades out when disabling.
func (v *layer) SetEnabled(on bool) { v.enabled.Set(on) }

// Enabled reports the enable flag.
func (v *layer) Enabled() bool { return v.enabled.On() }

// SetLevel sets the output level in [0, 1].
func (v *layer) SetLevel(x float64) { v.level.Set(x) }

// Level returns the output level.
func (v *layer) Level() float64 { return v.level.Value() }

// begin latches the buffer's parameters. It returns the level target, the
// per-sample ramp used when the generator was just disabled, and whether
// anything needs rendering.
func (v *layer) begin(n int) (target, ramp float32, run bool) {
	if n == 0 {
		return 0, 0, false
	}
	if !v.enabled.On() {
		if v.gain == 0 {
			return 0, 0, false
		}
		v.fadeLeft = n
		return 0, v.gain / float32(n), true
	}
	target = v.level.Value32()
	return target, 0, target > 0 || v.gain > 0
}

// step advances the level smoother by one sample.
func (v *layer) step(target, ramp float32) float32 {
	if ramp > 0 {
		v.fadeLeft--
		if v.gain -= ramp; v.fadeLeft <= 0 || v.gain < 0 {
			v.gain = 0
		}
		return v.gain
	}
	v.gain += (target - v.gain) * v.smooth
	if v.gain < 1e-6 && target == 0 {
		v.gain = 0
	}
	return v.gain
}

// lfo is a sine oscillator used for slow modulation.
type lfo struct {
	phase float64
	inc   float64
}

func (o *lfo) setRate(hz, sampleRate float64) {
	o.inc = 2 * math.Pi * hz / sampleRate
}

// advance moves the oscillator n samples and returns its value in [-1, 1].
func (o *lfo) advance(n int) float64 {
	o.phase += o.inc * float64(n)
	if o.phase > 2*math.Pi {
		o.phase = math.Mod(o.phase, 2*math.Pi)
	}
	return math.Sin(o.phase)
}

func blockLen(left, right []float32) int {
	return min(len(left), len(right))
}
