// Package param provides lock-free parameters shared between the control
// context and the audio callback, plus smoothing and tween helpers.
package param

import (
	"math"
	"sync/atomic"
)

// Atomic is a float parameter written by the control context and read by the
// audio callback. Writes are clamped to [Min, Max]; NaN is replaced by Min.
type Atomic struct {
	Name string
	Min  float64
	Max  float64

	// Atomic value for lock-free access in audio thread
	value atomic.Uint64
}

// NewAtomic creates a parameter with range [min, max] and initial value def.
func NewAtomic(name string, min, max, def float64) *Atomic {
	p := &Atomic{Name: name, Min: min, Max: max}
	p.Set(def)
	return p
}

// Init configures a zero-value Atomic in place.
func (p *Atomic) Init(name string, min, max, def float64) {
	p.Name, p.Min, p.Max = name, min, max
	p.Set(def)
}

// Value returns the current value.
func (p *Atomic) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// Value32 returns the current value as float32 for sample code.
func (p *Atomic) Value32() float32 {
	return float32(p.Value())
}

// Set stores a clamped value.
func (p *Atomic) Set(v float64) {
	if math.IsNaN(v) {
		v = p.Min
	}
	if p.Max > p.Min {
		if v < p.Min {
			v = p.Min
		} else if v > p.Max {
			v = p.Max
		}
	}
	p.value.Store(math.Float64bits(v))
}

// Normalized returns the value mapped to 0-1 across the range.
func (p *Atomic) Normalized() float64 {
	if p.Max <= p.Min {
		return 0
	}
	return (p.Value() - p.Min) / (p.Max - p.Min)
}

// Flag is an atomic boolean parameter.
type Flag struct {
	v atomic.Bool
}

// Set stores the flag.
func (f *Flag) Set(on bool) { f.v.Store(on) }

// On reports the flag.
func (f *Flag) On() bool { return f.v.Load() }
