package ducking

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/dsp/gain"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
)

// Trigger is a category of material that ducks other buses.
type Trigger int

const (
	Stinger Trigger = iota
	Notification
	Disaster
	Crisis
	Siren

	// TriggerCount is the number of trigger categories.
	TriggerCount
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case Stinger:
		return "stinger"
	case Notification:
		return "notification"
	case Disaster:
		return "disaster"
	case Crisis:
		return "crisis"
	case Siren:
		return "siren"
	}
	return "unknown"
}

// Unit is the time unit of a rule's attack and release.
type Unit int

const (
	Seconds Unit = iota
	Bars
)

// Rule ducks Bus by TargetDB whenever Trigger fires.
type Rule struct {
	Trigger  Trigger `json:"trigger"`
	Bus      bus.ID  `json:"bus"`
	TargetDB float64 `json:"target_db"`
	Attack   float64 `json:"attack"`
	Release  float64 `json:"release"`
	Unit     Unit    `json:"unit"`
}

// DefaultRules returns the production rule table.
func DefaultRules() []Rule {
	return []Rule{
		{Trigger: Stinger, Bus: bus.Stems, TargetDB: -9, Attack: 0.05, Release: 0.6},
		{Trigger: Notification, Bus: bus.Music, TargetDB: -6, Attack: 0.05, Release: 0.4},
		{Trigger: Notification, Bus: bus.Ambience, TargetDB: -4, Attack: 0.05, Release: 0.4},
		{Trigger: Disaster, Bus: bus.Ambience, TargetDB: -8, Attack: 1, Release: 4, Unit: Bars},
		{Trigger: Disaster, Bus: bus.Zone, TargetDB: -6, Attack: 1, Release: 4, Unit: Bars},
		{Trigger: Crisis, Bus: bus.Ambience, TargetDB: -6, Attack: 1, Release: 6, Unit: Bars},
		{Trigger: Siren, Bus: bus.Music, TargetDB: -4, Attack: 0.2, Release: 1.5},
		{Trigger: Siren, Bus: bus.Zone, TargetDB: -3, Attack: 0.2, Release: 1.5},
	}
}

// Engine owns one envelope per rule.
type Engine struct {
	rules      []Rule
	envs       []Envelope
	barSeconds float64
}

// New creates an engine for rules. barSeconds converts bar-based rules.
func New(rules []Rule, barSeconds float64) *Engine {
	e := &Engine{
		rules: append([]Rule(nil), rules...),
		envs:  make([]Envelope, len(rules)),
	}
	e.SetBarDuration(barSeconds)
	return e
}

// SetBarDuration reconfigures bar-based rules for a new tempo.
func (e *Engine) SetBarDuration(seconds float64) {
	if seconds <= 0 || math.IsNaN(seconds) {
		seconds = 2
	}
	e.barSeconds = seconds
	for i, r := range e.rules {
		scale := 1.0
		if r.Unit == Bars {
			scale = seconds
		}
		e.envs[i].Configure(r.TargetDB, r.Attack*scale, r.Release*scale)
	}
}

// Trigger fires every rule for t with the given hold in seconds
// (HoldUntilReleased for open-ended ducks).
func (e *Engine) Trigger(t Trigger, hold float64) {
	for i := range e.rules {
		if e.rules[i].Trigger == t {
			e.envs[i].Trigger(hold)
		}
	}
}

// Release ends the hold of every envelope for t.
func (e *Engine) Release(t Trigger) {
	for i := range e.rules {
		if e.rules[i].Trigger == t {
			e.envs[i].Release()
		}
	}
}

// Advance moves every envelope forward by dt seconds.
func (e *Engine) Advance(dt float64) {
	for i := range e.envs {
		e.envs[i].Advance(dt)
	}
}

// Attenuation returns the deepest current attenuation on b in dB. Envelopes
// on one bus never add up.
func (e *Engine) Attenuation(b bus.ID) float64 {
	db := 0.0
	for i := range e.rules {
		if e.rules[i].Bus == b && e.envs[i].current < db {
			db = e.envs[i].current
		}
	}
	return db
}

// Apply writes each bus's duck gain into g.
func (e *Engine) Apply(g *bus.Graph) {
	for id := bus.Master; id < bus.Count; id++ {
		db := e.Attenuation(id)
		if db >= 0 {
			g.SetDuckGain(id, 1)
			continue
		}
		g.SetDuckGain(id, gain.DbToLinear(db))
	}
}

// Envelope returns the envelope for the rule t -> b, or nil.
func (e *Engine) Envelope(t Trigger, b bus.ID) *Envelope {
	for i := range e.rules {
		if e.rules[i].Trigger == t && e.rules[i].Bus == b {
			return &e.envs[i]
		}
	}
	return nil
}

// Active returns the number of envelopes not idle.
func (e *Engine) Active() int {
	n := 0
	for i := range e.envs {
		if e.envs[i].stage != Idle {
			n++
		}
	}
	return n
}

// Reset idles every envelope.
func (e *Engine) Reset() {
	for i := range e.envs {
		e.envs[i].Reset()
	}
}
