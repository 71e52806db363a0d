// Package spatial turns geometry into gain. It holds the distance and
// occlusion model, the listener and emitter registry, level-of-detail
// classification and the region aggregator that replaces distant
// per-entity sounds with per-region ambience.
package spatial

import "math"

// Category selects a rolloff curve.
type Category int

const (
	CategoryPoint Category = iota
	CategoryArea
	CategoryDisaster
	CategoryWeather

	// CategoryCount is the number of rolloff categories.
	CategoryCount
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPoint:
		return "point"
	case CategoryArea:
		return "area"
	case CategoryDisaster:
		return "disaster"
	case CategoryWeather:
		return "weather"
	}
	return "unknown"
}

// Rolloff describes a distance attenuation curve.
type Rolloff struct {
	Reference float64 `json:"reference"` // full gain up to here
	Max       float64 `json:"max"`       // silent from here on
	Exponent  float64 `json:"exponent"`
}

// fadeStart is the fraction of Max where the tail fade begins.
const fadeStart = 0.8

// Attenuate returns the gain in [0, 1] for a source at distance d.
// Up to Reference the gain is 1 and from Max on it is 0. In between it
// follows (Reference/d)^Exponent, multiplied by a linear fade to zero from
// max(0.8*Max, Reference) to Max so the curve reaches 0 without a step.
// NaN and negative distances are treated as 0.
func Attenuate(d float64, r Rolloff) float64 {
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	ref := r.Reference
	if math.IsNaN(ref) || ref < 0 {
		ref = 0
	}
	if d <= ref {
		return 1
	}
	if math.IsNaN(r.Max) || d >= r.Max {
		return 0
	}

	k := r.Exponent
	if math.IsNaN(k) || k <= 0 {
		k = 1
	}
	g := math.Pow(ref/d, k)
	if g > 1 {
		g = 1
	}

	start := math.Max(fadeStart*r.Max, ref)
	if d > start {
		g *= (r.Max - d) / (r.Max - start)
	}
	if g < 0 {
		return 0
	}
	return g
}

// RolloffTable holds one curve per category.
type RolloffTable [CategoryCount]Rolloff

// For returns the curve for c, falling back to the point curve.
func (t *RolloffTable) For(c Category) Rolloff {
	if c < 0 || c >= CategoryCount {
		return t[CategoryPoint]
	}
	return t[c]
}

// DefaultRolloffs returns the production curves in world units.
func DefaultRolloffs() RolloffTable {
	return RolloffTable{
		CategoryPoint:    {Reference: 32, Max: 400, Exponent: 0.8},
		CategoryArea:     {Reference: 96, Max: 1400, Exponent: 0.6},
		CategoryDisaster: {Reference: 160, Max: 3000, Exponent: 0.5},
		CategoryWeather:  {Reference: 512, Max: 8000, Exponent: 0.3},
	}
}
