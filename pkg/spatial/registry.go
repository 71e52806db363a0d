package spatial

import (
	"slices"

	"github.com/justyntemme/cityaudio/pkg/framework/voice"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// SourceSpec describes how one kind of simulation event sounds.
type SourceSpec struct {
	Bank     string         `json:"bank"`
	Category Category       `json:"category"`
	Weight   float64        `json:"weight"` // LOD category weight
	Volume   float64        `json:"volume"`
	Pitch    float64        `json:"pitch"`
	Loop     bool           `json:"loop"`
	Priority voice.Priority `json:"priority"`
	Cooldown float64        `json:"cooldown"` // seconds between one-shots from one owner
}

// SourceTable maps every event kind to its sound.
type SourceTable [sim.EventKindCount]SourceSpec

// DefaultSources returns the production source table.
func DefaultSources() SourceTable {
	return SourceTable{
		sim.SirenEvent:        {Bank: "siren", Category: CategoryPoint, Weight: 3, Volume: 0.9, Pitch: 1, Loop: true, Priority: voice.PriorityHigh},
		sim.ConstructionEvent: {Bank: "construction", Category: CategoryPoint, Weight: 1, Volume: 0.6, Pitch: 1, Loop: true, Priority: voice.PriorityLow},
		sim.IndustryEvent:     {Bank: "industry", Category: CategoryPoint, Weight: 0.8, Volume: 0.5, Pitch: 1, Loop: true, Priority: voice.PriorityLow},
		sim.HornEvent:         {Bank: "horn", Category: CategoryPoint, Weight: 1.2, Volume: 0.7, Pitch: 1, Priority: voice.PriorityNormal, Cooldown: 2},
		sim.FireEvent:         {Bank: "fire", Category: CategoryDisaster, Weight: 2.5, Volume: 0.8, Pitch: 1, Loop: true, Priority: voice.PriorityNormal},
		sim.ExplosionEvent:    {Bank: "explosion", Category: CategoryDisaster, Weight: 4, Volume: 1, Pitch: 1, Priority: voice.PriorityHigh, Cooldown: 1},
		sim.CheerEvent:        {Bank: "cheer", Category: CategoryPoint, Weight: 1.5, Volume: 0.7, Pitch: 1, Priority: voice.PriorityNormal, Cooldown: 5},
		sim.TrainEvent:        {Bank: "train", Category: CategoryPoint, Weight: 1.5, Volume: 0.8, Pitch: 1, Loop: true, Priority: voice.PriorityNormal},
	}
}

// CreateFraction is the share of Rolloff.Max inside which a source gains an
// emitter. Emitters are destroyed only at Max, so a source hovering at the
// edge of earshot does not restart its voice every tick.
const CreateFraction = 0.95

// OneShotWindow is how long a one-shot emitter waits for an active slot
// before it is dropped unheard.
const OneShotWindow = 1.0

// Voices is the part of the voice pool the registry needs.
type Voices interface {
	Alive(h voice.Handle) bool
	Release(h voice.Handle)
}

type sourceKey struct {
	owner sim.EntityRef
	kind  sim.EventKind
}

type source struct {
	pos   sim.Vec2
	fresh bool // one-shot not yet materialised
}

// Registry tracks every known sound-capable source and materialises point
// emitters for the ones within range of the listener.
type Registry struct {
	specs    SourceTable
	rolloffs RolloffTable

	sources   map[sourceKey]source
	emitters  map[sourceKey]*Emitter
	cooldowns map[sourceKey]float64
	order     []*Emitter
	dirty     bool
	nextID    uint64
	created   uint64
	destroyed uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(specs SourceTable, rolloffs RolloffTable) *Registry {
	return &Registry{
		specs:     specs,
		rolloffs:  rolloffs,
		sources:   make(map[sourceKey]source),
		emitters:  make(map[sourceKey]*Emitter),
		cooldowns: make(map[sourceKey]float64),
	}
}

// Apply folds a tick's events into the known source set. One-shot events
// arriving while their owner's cooldown runs are ignored.
func (r *Registry) Apply(events []sim.Event) {
	for _, ev := range events {
		if ev.Kind < 0 || ev.Kind >= sim.EventKindCount {
			continue
		}
		k := sourceKey{ev.Owner, ev.Kind}
		if !ev.Active {
			delete(r.sources, k)
			continue
		}
		if !ev.Pos.Finite() {
			ev.Pos = sim.Vec2{}
		}
		if r.specs[ev.Kind].Loop {
			r.sources[k] = source{pos: ev.Pos}
			continue
		}
		if r.cooldowns[k] > 0 {
			continue
		}
		if _, busy := r.emitters[k]; busy {
			continue
		}
		r.sources[k] = source{pos: ev.Pos, fresh: true}
		r.cooldowns[k] = r.specs[ev.Kind].Cooldown
	}
}

// Advance runs cooldown timers.
func (r *Registry) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	for k, c := range r.cooldowns {
		if c -= dt; c <= 0 {
			delete(r.cooldowns, k)
		} else {
			r.cooldowns[k] = c
		}
	}
	for _, e := range r.order {
		p := e.Point
		p.Age += dt
		if p.Cooldown > 0 {
			p.Cooldown = max(0, p.Cooldown-dt)
		}
	}
}

// Sync creates emitters for sources within range and destroys emitters
// whose source ended, left range, or whose one-shot has finished playing.
// Voices of destroyed emitters are released.
func (r *Registry) Sync(l *Listener, voices Voices) {
	for k, e := range r.emitters {
		p := e.Point
		src, ok := r.sources[k]
		if ok {
			p.Pos = src.pos
		}
		done := p.Played && !p.Spec.Loop && (p.Silent || !voices.Alive(p.Voice))
		if !p.Spec.Loop && !p.Played && p.Age > OneShotWindow {
			done = true
		}
		if !ok || done || l.Distance(p.Pos) >= p.Rolloff.Max {
			if voices.Alive(p.Voice) {
				voices.Release(p.Voice)
			}
			delete(r.emitters, k)
			if !p.Spec.Loop {
				delete(r.sources, k)
			}
			r.destroyed++
			r.dirty = true
		}
	}

	for k, src := range r.sources {
		if _, ok := r.emitters[k]; ok {
			continue
		}
		spec := r.specs[k.kind]
		roll := r.rolloffs.For(spec.Category)
		if l.Distance(src.pos) >= CreateFraction*roll.Max {
			if !spec.Loop {
				// A one-shot out of earshot is never heard.
				delete(r.sources, k)
			}
			continue
		}
		if !spec.Loop && !src.fresh {
			continue
		}
		r.nextID++
		e := NewPointEmitter(r.nextID, &PointData{
			Owner:    k.owner,
			Event:    k.kind,
			Pos:      src.pos,
			Spec:     spec,
			Rolloff:  roll,
			Cooldown: r.cooldowns[k],
		})
		r.emitters[k] = e
		src.fresh = false
		r.sources[k] = src
		r.created++
		r.dirty = true
	}

	if r.dirty {
		r.order = r.order[:0]
		for _, e := range r.emitters {
			r.order = append(r.order, e)
		}
		slices.SortFunc(r.order, func(a, b *Emitter) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		})
		r.dirty = false
	}
}

// Evaluate classifies every emitter against the listener, applies the tier
// caps and updates distance and gain. cands is scratch space and is
// returned for reuse.
func (r *Registry) Evaluate(l *Listener, lod *LODConfig, cands []Candidate) []Candidate {
	cands = cands[:0]
	for _, e := range r.order {
		p := e.Point
		p.Distance = l.Distance(p.Pos)
		if !p.classified {
			p.Tier = lod.Classify(FullDetail, p.Distance)
			p.classified = true
		} else {
			p.Tier = lod.Classify(p.Tier, p.Distance)
		}
		p.Gain = Attenuate(p.Distance, p.Rolloff) * OcclusionGain(p.OcclusionDB)
		cands = append(cands, Candidate{ID: e.ID, Tier: p.Tier, Distance: p.Distance, Weight: p.Spec.Weight})
	}
	lod.Limit(cands)
	for _, c := range cands {
		if e := r.byID(c.ID); e != nil {
			e.Point.Active = c.Active
		}
	}
	return cands
}

// UpdateOcclusion re-evaluates occlusion for the scheduler's share of
// emitters this tick.
func (r *Registry) UpdateOcclusion(g *sim.Grid, l *Listener, t *OcclusionTable, s *OcclusionScheduler) int {
	return s.Visit(len(r.order), func(i int) {
		p := r.order[i].Point
		p.OcclusionDB = OcclusionDB(g, l.Pos, p.Pos, t)
	})
}

func (r *Registry) byID(id uint64) *Emitter {
	i, ok := slices.BinarySearchFunc(r.order, id, func(e *Emitter, id uint64) int {
		switch {
		case e.ID < id:
			return -1
		case e.ID > id:
			return 1
		}
		return 0
	})
	if !ok {
		return nil
	}
	return r.order[i]
}

// Points returns the live point emitters ordered by ID.
func (r *Registry) Points() []*Emitter {
	return r.order
}

// Len returns the number of live emitters.
func (r *Registry) Len() int {
	return len(r.emitters)
}

// Sources returns the number of known sources, in range or not.
func (r *Registry) Sources() int {
	return len(r.sources)
}

// Counts returns how many emitters were created and destroyed so far.
func (r *Registry) Counts() (created, destroyed uint64) {
	return r.created, r.destroyed
}

// CountActive returns the number of active emitters per tier.
func (r *Registry) CountActive() [TierCount]int {
	var n [TierCount]int
	for _, e := range r.order {
		if p := e.Point; p.Active && p.Tier >= FullDetail && p.Tier < TierCount {
			n[p.Tier]++
		}
	}
	return n
}

// Reset drops every source and emitter, releasing their voices.
func (r *Registry) Reset(voices Voices) {
	for _, e := range r.emitters {
		if voices != nil && voices.Alive(e.Point.Voice) {
			voices.Release(e.Point.Voice)
		}
	}
	clear(r.sources)
	clear(r.emitters)
	clear(r.cooldowns)
	r.order = r.order[:0]
}
