// Package ambience derives the city-wide background layers (hum, traffic,
// nature, weather and night) from the simulation snapshot.
package ambience

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/framework/param"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// Layer is one background layer.
type Layer int

const (
	CityHum Layer = iota
	Traffic
	Nature
	Weather
	Night

	// LayerCount is the number of layers.
	LayerCount
)

var layerNames = [LayerCount]string{"city-hum", "traffic", "nature", "weather", "night"}

// String returns the layer name.
func (l Layer) String() string {
	if l < 0 || l >= LayerCount {
		return "unknown"
	}
	return layerNames[l]
}

// Levels holds an intensity in [0, 1] per layer.
type Levels [LayerCount]float64

const (
	humMinPopulation = 100.0
	humMaxPopulation = 50000.0

	nightStart = 22.0
	nightEnd   = 5.0
)

// CityHumIntensity scales logarithmically from 100 to 50 000 inhabitants.
func CityHumIntensity(population int) float64 {
	pop := float64(population)
	if pop <= humMinPopulation {
		return 0
	}
	v := math.Log(pop/humMinPopulation) / math.Log(humMaxPopulation/humMinPopulation)
	return clamp(v, 0, 1)
}

// NatureIntensity rises with tree cover and parks and falls with density.
func NatureIntensity(treeFraction float64, parks, population int) float64 {
	parkBonus := math.Min(float64(parks)*0.02, 0.3)
	density := clamp(float64(population)/humMaxPopulation, 0, 0.8)
	return clamp(treeFraction*3+parkBonus-density, 0, 1)
}

// WeatherIntensity is the larger of the condition's base level and half the
// precipitation rate in inches per hour.
func WeatherIntensity(w sim.Weather, precipitation float64) float64 {
	var base float64
	switch w {
	case sim.Storm:
		base = 1
	case sim.HeavyRain:
		base = 0.8
	case sim.Rain:
		base = 0.5
	case sim.Snow:
		base = 0.4
	case sim.Overcast:
		base = 0.1
	}
	return math.Max(base, clamp(precipitation/2, 0, 1))
}

// NightIntensity is full between 23:00 and 04:00 and fades linearly over
// the hour on either side.
func NightIntensity(hour float64) float64 {
	switch {
	case hour >= nightStart+1 || hour < nightEnd-1:
		return 1
	case hour >= nightStart:
		return hour - nightStart
	case hour < nightEnd:
		return nightEnd - hour
	}
	return 0
}

// Compute derives every layer from s.
func Compute(s *sim.Snapshot) Levels {
	var l Levels
	l[CityHum] = CityHumIntensity(s.Population)
	l[Traffic] = clamp(s.CommutingFraction, 0, 1)
	l[Nature] = NatureIntensity(s.TreeFraction, s.ParkCount, s.Population)
	l[Weather] = WeatherIntensity(s.Weather, s.Precipitation)
	l[Night] = NightIntensity(s.Hour)
	return l
}

// Config controls how often layers are recomputed and how fast the
// audible levels follow.
type Config struct {
	Interval float64 `json:"interval"` // seconds between recomputes
	Fade     float64 `json:"fade"`     // seconds for a level change to settle
}

// DefaultConfig returns production settings.
func DefaultConfig() Config {
	return Config{Interval: 2, Fade: 3}
}

// Soundscape recomputes layer targets on a slow timer and smooths the
// audible levels toward them every tick.
type Soundscape struct {
	cfg      Config
	since    float64
	computed bool
	target   Levels
	current  Levels
	updates  uint64
}

// New creates a silent soundscape.
func New(cfg Config) *Soundscape {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Fade < 0 {
		cfg.Fade = 0
	}
	return &Soundscape{cfg: cfg}
}

// Update advances by dt and recomputes targets when the interval elapses.
// The first call always recomputes. It reports whether targets changed.
func (s *Soundscape) Update(snap *sim.Snapshot, dt float64) bool {
	if dt > 0 && !math.IsNaN(dt) {
		s.since += dt
	}
	recomputed := false
	if !s.computed || s.since >= s.cfg.Interval {
		s.since = 0
		s.computed = true
		s.target = Compute(snap)
		s.updates++
		recomputed = true
	}
	if snap.App != sim.Playing {
		// Menus and pause keep only a faint bed.
		for i := range s.target {
			s.target[i] = math.Min(s.target[i], 0.2)
		}
	}
	tau := s.cfg.Fade / 3
	for i := range s.current {
		s.current[i] = param.Approach(s.current[i], s.target[i], dt, tau)
	}
	return recomputed
}

// Target returns the latest computed layer targets.
func (s *Soundscape) Target() Levels { return s.target }

// Levels returns the smoothed audible levels.
func (s *Soundscape) Levels() Levels { return s.current }

// Intensity returns the smoothed level of l.
func (s *Soundscape) Intensity(l Layer) float64 {
	if l < 0 || l >= LayerCount {
		return 0
	}
	return s.current[l]
}

// Updates returns how many times targets were recomputed.
func (s *Soundscape) Updates() uint64 { return s.updates }

// Reset silences every layer; the next Update recomputes.
func (s *Soundscape) Reset() {
	*s = Soundscape{cfg: s.cfg, updates: s.updates}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
