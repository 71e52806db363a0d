// Package sim defines the read-only snapshot the simulation hands to the
// audio engine once per control tick. The audio engine never writes to it
// and never holds entity ownership; entities are referenced weakly by ID.
package sim

import "math"

// Vec2 is a ground-plane position in world units.
type Vec2 struct {
	X, Y float64
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 {
	return v.Sub(o).Len()
}

// Finite reports whether both coordinates are finite numbers.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// EntityRef is a weak reference to a simulation entity. Zero means none.
type EntityRef uint64

// AppState is the top-level application state.
type AppState int

const (
	Playing AppState = iota
	MainMenu
	Paused
)

// Season of the simulated year.
type Season int

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

// Weather is the current weather condition.
type Weather int

const (
	Sunny Weather = iota
	PartlyCloudy
	Overcast
	Rain
	HeavyRain
	Snow
	Storm
)

// String returns the condition name.
func (w Weather) String() string {
	switch w {
	case Sunny:
		return "sunny"
	case PartlyCloudy:
		return "partly-cloudy"
	case Overcast:
		return "overcast"
	case Rain:
		return "rain"
	case HeavyRain:
		return "heavy-rain"
	case Snow:
		return "snow"
	case Storm:
		return "storm"
	}
	return "unknown"
}

// DisasterKind identifies an active disaster.
type DisasterKind int

const (
	NoDisaster DisasterKind = iota
	FireDisaster
	Flood
	Earthquake
	Tornado
)

// Disaster describes the current disaster state.
type Disaster struct {
	Kind      DisasterKind
	Intensity float64 // 0-1
	Active    bool
	Pos       Vec2
}

// EventKind is the kind of sound-capable entity or action.
type EventKind int

const (
	SirenEvent EventKind = iota
	ConstructionEvent
	IndustryEvent
	HornEvent
	FireEvent
	ExplosionEvent
	CheerEvent
	TrainEvent

	// EventKindCount is the number of event kinds.
	EventKindCount
)

var eventNames = [EventKindCount]string{
	SirenEvent:        "siren",
	ConstructionEvent: "construction",
	IndustryEvent:     "industry",
	HornEvent:         "horn",
	FireEvent:         "fire",
	ExplosionEvent:    "explosion",
	CheerEvent:        "cheer",
	TrainEvent:        "train",
}

// String returns the event name, which doubles as its sound bank name.
func (k EventKind) String() string {
	if k < 0 || k >= EventKindCount {
		return "unknown"
	}
	return eventNames[k]
}

// Event reports a sound-capable entity starting (Active) or ending.
type Event struct {
	Kind   EventKind
	Owner  EntityRef
	Pos    Vec2
	Active bool
}

// Snapshot is the simulation state consumed by one control tick.
type Snapshot struct {
	Tick       uint64
	App        AppState
	Population int
	Happiness  float64 // 0-100
	Treasury   float64
	Hour       float64 // 0-24
	Season     Season

	Weather       Weather
	Precipitation float64 // inches per hour
	WindSpeed     float64 // 0-1

	Disaster      Disaster
	Crisis        bool
	MilestoneTier int

	CommutingFraction float64
	TreeFraction      float64
	ParkCount         int

	Grid   *Grid
	Events []Event
}

// Sanitized returns a copy with non-finite and out-of-range scalars clamped
// to safe values.
func (s Snapshot) Sanitized() Snapshot {
	if s.Population < 0 {
		s.Population = 0
	}
	s.Happiness = clamp(s.Happiness, 0, 100, 50)
	if math.IsNaN(s.Treasury) || math.IsInf(s.Treasury, 0) {
		s.Treasury = 0
	}
	if math.IsNaN(s.Hour) || math.IsInf(s.Hour, 0) {
		s.Hour = 12
	}
	if s.Hour = math.Mod(s.Hour, 24); s.Hour < 0 {
		s.Hour += 24
	}
	s.Precipitation = clamp(s.Precipitation, 0, math.MaxFloat64, 0)
	s.WindSpeed = clamp(s.WindSpeed, 0, 1, 0)
	s.Disaster.Intensity = clamp(s.Disaster.Intensity, 0, 1, 0)
	s.CommutingFraction = clamp(s.CommutingFraction, 0, 1, 0)
	s.TreeFraction = clamp(s.TreeFraction, 0, 1, 0)
	if s.ParkCount < 0 {
		s.ParkCount = 0
	}
	return s
}

// InDisaster reports whether an active disaster or crisis is in progress.
func (s *Snapshot) InDisaster() bool {
	return s.Crisis || (s.Disaster.Active && s.Disaster.Kind != NoDisaster)
}

func clamp(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
