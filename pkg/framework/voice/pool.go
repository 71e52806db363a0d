// Package voice maps an unbounded stream of "wants to sound" requests onto a
// fixed set of voice slots, stealing by priority when the pool is full.
//
// The Pool is owned by the control context. The audio context only sees
// copies of the slot table published each tick.
package voice

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// Priority ranks a request. Higher values win arbitration.
type Priority int

const (
	PriorityAmbient Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	// PriorityCritical voices are never stolen.
	PriorityCritical
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityAmbient:
		return "ambient"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// Category labels what kind of material a voice carries.
type Category uint8

const (
	CategoryPoint Category = iota
	CategoryArea
	CategoryStinger
	CategoryUI
	CategoryAlert
)

// Outcome reports what Trigger did.
type Outcome int

const (
	Allocated Outcome = iota
	Stolen
	Rejected
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Allocated:
		return "allocated"
	case Stolen:
		return "stolen"
	}
	return "rejected"
}

// State is the lifecycle stage of a slot.
type State uint8

const (
	Free State = iota
	Playing
	Releasing
)

// Handle refers to one allocation of a slot. A handle goes stale when the
// slot is freed or stolen; operations on stale handles are no-ops.
type Handle struct {
	Index      int32
	Generation uint32
}

// Valid reports whether h was ever issued.
func (h Handle) Valid() bool {
	return h.Generation != 0
}

// Request describes a sound that wants a voice.
type Request struct {
	Source   int32 // sample source identifier resolved by the asset layer
	Variant  int32
	Duration float64 // seconds at pitch 1; ignored when Loop is set
	Loop     bool
	Priority Priority
	Category Category
	Bus      bus.ID
	Spatial  bool
	Gain     float64
	Pan      float64
	Pitch    float64
	Cutoff   float64 // low-pass cutoff in Hz, 0 = open
	Delay    float64 // seconds before playback starts
	// StartFrame is the absolute output frame at which the audio side starts
	// the sound; 0 starts on the next buffer.
	StartFrame int64
}

// Voice is one slot of the pool.
type Voice struct {
	Request
	Handle   Handle
	State    State
	Position float64 // seconds into the source
	fade     param.Tween
}

// Level returns the voice's current gain including any release fade.
func (v *Voice) Level() float64 {
	return v.Gain * v.fade.Value()
}

// FadeLevel returns the release fade multiplier in [0, 1].
func (v *Voice) FadeLevel() float64 {
	return v.fade.Value()
}

// Progress returns the completed fraction of a one-shot, or 0 for loops.
func (v *Voice) Progress() float64 {
	if v.Loop || v.Duration <= 0 {
		return 0
	}
	return v.Position / v.Duration
}

// Config bounds pool behaviour.
type Config struct {
	Voices        int     `json:"voices"`
	FadeOut       float64 `json:"fade_out"`     // default release fade in seconds
	MaxFadeOut    float64 `json:"max_fade_out"` // upper bound for any release
	MinFadeOut    float64 `json:"min_fade_out"` // lower bound so stops never click
	NearDoneAt    float64 `json:"near_done_at"` // one-shot progress counted as near completion
	NearDoneBonus float64 `json:"near_done_bonus"`
}

// DefaultConfig returns the production pool settings.
func DefaultConfig() Config {
	return Config{
		Voices:        48,
		FadeOut:       0.12,
		MaxFadeOut:    2.0,
		MinFadeOut:    0.005,
		NearDoneAt:    0.8,
		NearDoneBonus: 15,
	}
}

// Stats are cumulative pool counters.
type Stats struct {
	Active    int    `json:"active"`
	Releasing int    `json:"releasing"`
	Allocated uint64 `json:"allocated"`
	Stolen    uint64 `json:"stolen"`
	Rejected  uint64 `json:"rejected"`
	Completed uint64 `json:"completed"`
}

// Pool is a fixed set of voices.
type Pool struct {
	cfg    Config
	voices []Voice
	stats  Stats
}

// NewPool creates a pool. Slots are allocated once here.
func NewPool(cfg Config) *Pool {
	def := DefaultConfig()
	if cfg.Voices <= 0 {
		cfg.Voices = def.Voices
	}
	if cfg.MinFadeOut <= 0 {
		cfg.MinFadeOut = def.MinFadeOut
	}
	if cfg.MaxFadeOut < cfg.MinFadeOut {
		cfg.MaxFadeOut = math.Max(def.MaxFadeOut, cfg.MinFadeOut)
	}
	if cfg.FadeOut <= 0 {
		cfg.FadeOut = def.FadeOut
	}
	if cfg.NearDoneAt <= 0 || cfg.NearDoneAt > 1 {
		cfg.NearDoneAt = def.NearDoneAt
	}
	p := &Pool{cfg: cfg, voices: make([]Voice, cfg.Voices)}
	for i := range p.voices {
		p.voices[i].Handle.Index = int32(i)
	}
	return p
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return len(p.voices)
}

// StealScore is the cost of evicting v; the lowest score is stolen first.
func (p *Pool) StealScore(v *Voice) float64 {
	score := float64(v.Priority)*100 + v.Level()*50
	if !v.Loop && v.Progress() >= p.cfg.NearDoneAt {
		score -= p.cfg.NearDoneBonus
	}
	return score
}

func (p *Pool) eligible(v *Voice, req Priority) bool {
	return v.State == Playing && v.Priority != PriorityCritical && v.Priority <= req
}

// Trigger claims a voice for req. It takes a free slot when one exists,
// otherwise steals the eligible voice with the lowest StealScore, otherwise
// rejects. It never blocks.
func (p *Pool) Trigger(req Request) (Handle, Outcome) {
	if req.Pitch <= 0 || math.IsNaN(req.Pitch) {
		req.Pitch = 1
	}
	if math.IsNaN(req.Gain) || req.Gain < 0 {
		req.Gain = 0
	}

	slot := -1
	for i := range p.voices {
		if p.voices[i].State == Free {
			slot = i
			break
		}
	}
	outcome := Allocated

	if slot < 0 {
		best := math.Inf(1)
		for i := range p.voices {
			v := &p.voices[i]
			if !p.eligible(v, req.Priority) {
				continue
			}
			if s := p.StealScore(v); s < best {
				best = s
				slot = i
			}
		}
		if slot < 0 {
			p.stats.Rejected++
			return Handle{}, Rejected
		}
		outcome = Stolen
		p.stats.Stolen++
	} else {
		p.stats.Allocated++
	}

	v := &p.voices[slot]
	gen := v.Handle.Generation + 1
	if gen == 0 {
		gen = 1
	}
	*v = Voice{
		Request:  req,
		Handle:   Handle{Index: int32(slot), Generation: gen},
		State:    Playing,
		Position: 0,
	}
	v.fade.Set(1)
	return v.Handle, outcome
}

// lookup returns the live voice for h or nil when h is stale.
func (p *Pool) lookup(h Handle) *Voice {
	if !h.Valid() || h.Index < 0 || int(h.Index) >= len(p.voices) {
		return nil
	}
	v := &p.voices[h.Index]
	if v.Handle.Generation != h.Generation || v.State == Free {
		return nil
	}
	return v
}

// Get returns a copy of the voice for h.
func (p *Pool) Get(h Handle) (Voice, bool) {
	v := p.lookup(h)
	if v == nil {
		return Voice{}, false
	}
	return *v, true
}

// Alive reports whether h still refers to a sounding voice.
func (p *Pool) Alive(h Handle) bool {
	return p.lookup(h) != nil
}

// Release fades the voice out over the default fade time.
func (p *Pool) Release(h Handle) {
	p.ReleaseOver(h, p.cfg.FadeOut)
}

// ReleaseOver fades the voice out over seconds, clamped to the configured
// bounds. The slot is freed when the fade completes.
func (p *Pool) ReleaseOver(h Handle, seconds float64) {
	v := p.lookup(h)
	if v == nil || v.State != Playing {
		return
	}
	if math.IsNaN(seconds) || seconds < p.cfg.MinFadeOut {
		seconds = p.cfg.MinFadeOut
	}
	if seconds > p.cfg.MaxFadeOut {
		seconds = p.cfg.MaxFadeOut
	}
	v.State = Releasing
	v.fade.Start(0, seconds)
}

// ReleaseAll fades out every playing voice.
func (p *Pool) ReleaseAll(seconds float64) {
	for i := range p.voices {
		p.ReleaseOver(p.voices[i].Handle, seconds)
	}
}

// SetGain updates a live voice's gain.
func (p *Pool) SetGain(h Handle, gain float64) {
	if v := p.lookup(h); v != nil && !math.IsNaN(gain) {
		v.Gain = math.Max(0, gain)
	}
}

// SetPan updates a live voice's pan in [-1, 1].
func (p *Pool) SetPan(h Handle, pan float64) {
	if v := p.lookup(h); v != nil && !math.IsNaN(pan) {
		v.Pan = math.Max(-1, math.Min(1, pan))
	}
}

// SetPitch updates a live voice's playback rate.
func (p *Pool) SetPitch(h Handle, pitch float64) {
	if v := p.lookup(h); v != nil && pitch > 0 {
		v.Pitch = pitch
	}
}

// SetCutoff updates a live voice's low-pass cutoff (0 = open).
func (p *Pool) SetCutoff(h Handle, hz float64) {
	if v := p.lookup(h); v != nil && !math.IsNaN(hz) {
		v.Cutoff = math.Max(0, hz)
	}
}

// Advance moves every voice forward by dt seconds: estimates playback
// positions, completes finished one-shots and frees faded voices.
func (p *Pool) Advance(dt float64) {
	if dt <= 0 || math.IsNaN(dt) {
		return
	}
	for i := range p.voices {
		v := &p.voices[i]
		if v.State == Free {
			continue
		}

		step := dt
		if v.Delay > 0 {
			if v.Delay >= step {
				v.Delay -= step
				step = 0
			} else {
				step -= v.Delay
				v.Delay = 0
			}
		}
		v.Position += step * v.Pitch

		if v.State == Releasing {
			v.fade.Advance(dt)
			if v.fade.Done() {
				v.State = Free
				continue
			}
		}
		if !v.Loop && v.Position >= v.Duration {
			v.State = Free
			p.stats.Completed++
		}
	}
}

// Stats returns the counters with current occupancy.
func (p *Pool) Stats() Stats {
	s := p.stats
	for i := range p.voices {
		switch p.voices[i].State {
		case Playing:
			s.Active++
		case Releasing:
			s.Active++
			s.Releasing++
		}
	}
	return s
}

// CopyTo copies the slot table into dst and returns the count copied.
func (p *Pool) CopyTo(dst []Voice) int {
	return copy(dst, p.voices)
}

// Reset frees every slot immediately and keeps generations increasing so
// old handles stay stale. Used when runtime state is re-derived from a new
// snapshot; callers fade the output separately.
func (p *Pool) Reset() {
	for i := range p.voices {
		v := &p.voices[i]
		gen := v.Handle.Generation + 1
		if gen == 0 {
			gen = 1
		}
		*v = Voice{Handle: Handle{Index: int32(i), Generation: gen}}
	}
}
