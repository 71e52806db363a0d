// Package bus implements the fixed mixing hierarchy every voice is routed
// through. Topology is static; volumes are atomics so the control context
// can write them while the audio callback reads.
package bus

import (
	"math"
	"strings"
	"sync/atomic"
)

// ID identifies a bus. Every parent has a lower ID than its children, so
// iterating IDs downwards visits children before parents.
type ID int

const (
	Master ID = iota
	Music
	Stems
	Stingers
	Ambience
	Zone
	Weather
	Traffic
	Environmental
	SFX
	UI

	// Count is the number of buses.
	Count
)

var names = [Count]string{
	Master:        "master",
	Music:         "music",
	Stems:         "stems",
	Stingers:      "stingers",
	Ambience:      "ambience",
	Zone:          "zone",
	Weather:       "weather",
	Traffic:       "traffic",
	Environmental: "environmental",
	SFX:           "sfx",
	UI:            "ui",
}

// parents is the immutable topology. Master's entry is unused.
var parents = [Count]ID{
	Master:        Master,
	Music:         Master,
	Stems:         Music,
	Stingers:      Music,
	Ambience:      Master,
	Zone:          Ambience,
	Weather:       Ambience,
	Traffic:       Ambience,
	Environmental: Ambience,
	SFX:           Master,
	UI:            Master,
}

// String returns the bus name.
func (id ID) String() string {
	if id < 0 || id >= Count {
		return "unknown"
	}
	return names[id]
}

// Valid reports whether id names a bus.
func (id ID) Valid() bool {
	return id >= 0 && id < Count
}

// Parent returns the parent bus; ok is false for Master.
func (id ID) Parent() (parent ID, ok bool) {
	if id <= Master || id >= Count {
		return Master, false
	}
	return parents[id], true
}

// Path returns id and its ancestors up to Master.
func (id ID) Path() []ID {
	path := []ID{id}
	for p, ok := id.Parent(); ok; p, ok = p.Parent() {
		path = append(path, p)
	}
	return path
}

// Children returns the direct children of id.
func (id ID) Children() []ID {
	var out []ID
	for c := id + 1; c < Count; c++ {
		if parents[c] == id {
			out = append(out, c)
		}
	}
	return out
}

// IsLeaf reports whether no bus has id as parent.
func (id ID) IsLeaf() bool {
	for c := id + 1; c < Count; c++ {
		if parents[c] == id {
			return false
		}
	}
	return id.Valid()
}

// ParseID looks a bus up by name (case-insensitive).
func ParseID(name string) (ID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, n := range names {
		if n == name {
			return ID(id), true
		}
	}
	return Master, false
}

// All returns every bus in ID order.
func All() []ID {
	out := make([]ID, Count)
	for i := range out {
		out[i] = ID(i)
	}
	return out
}

// unit is an atomic float clamped to [0, 1].
type unit struct{ bits atomic.Uint64 }

func (u *unit) load() float64 { return math.Float64frombits(u.bits.Load()) }

// store returns true if the value changed.
func (u *unit) store(v float64) bool {
	if math.IsNaN(v) || v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return math.Float64bits(v) != u.bits.Swap(math.Float64bits(v))
}

type node struct {
	user unit // settings volume
	duck unit // ducking gain
	mix  unit // LOD / music / ambience mix gain
}

func (n *node) own() float64 {
	return n.user.load() * n.duck.load() * n.mix.load()
}

// Graph holds per-bus volumes and lazily cached effective gains.
type Graph struct {
	nodes [Count]node

	version       atomic.Uint64
	cachedVersion atomic.Uint64
	cached        [Count]unit
	recomputing   atomic.Bool
	recomputes    atomic.Uint64
}

// NewGraph creates a graph with every volume at unity.
func NewGraph() *Graph {
	g := &Graph{}
	for i := range g.nodes {
		g.nodes[i].user.store(1)
		g.nodes[i].duck.store(1)
		g.nodes[i].mix.store(1)
	}
	g.version.Store(1)
	return g
}

func (g *Graph) bump(changed bool) {
	if changed {
		g.version.Add(1)
	}
}

// SetVolume sets the user volume of a bus, clamped to [0, 1].
func (g *Graph) SetVolume(id ID, v float64) {
	if id.Valid() {
		g.bump(g.nodes[id].user.store(v))
	}
}

// SetDuckGain sets the ducking gain of a bus, clamped to [0, 1].
func (g *Graph) SetDuckGain(id ID, v float64) {
	if id.Valid() {
		g.bump(g.nodes[id].duck.store(v))
	}
}

// SetMixGain sets the mix gain of a bus, clamped to [0, 1].
func (g *Graph) SetMixGain(id ID, v float64) {
	if id.Valid() {
		g.bump(g.nodes[id].mix.store(v))
	}
}

// Volume returns the user volume.
func (g *Graph) Volume(id ID) float64 {
	if !id.Valid() {
		return 0
	}
	return g.nodes[id].user.load()
}

// DuckGain returns the ducking gain.
func (g *Graph) DuckGain(id ID) float64 {
	if !id.Valid() {
		return 0
	}
	return g.nodes[id].duck.load()
}

// MixGain returns the mix gain.
func (g *Graph) MixGain(id ID) float64 {
	if !id.Valid() {
		return 0
	}
	return g.nodes[id].mix.load()
}

// Own returns user x duck x mix for one bus.
func (g *Graph) Own(id ID) float64 {
	if !id.Valid() {
		return 0
	}
	return g.nodes[id].own()
}

// Effective returns the product of own volumes from id up to Master. The
// cached table is rebuilt only when some volume changed since the last
// rebuild. Wait-free: if another goroutine is rebuilding, the product is
// computed directly.
func (g *Graph) Effective(id ID) float64 {
	if !id.Valid() {
		return 0
	}
	v := g.version.Load()
	if g.cachedVersion.Load() != v {
		if !g.recomputing.CompareAndSwap(false, true) {
			return g.direct(id)
		}
		g.recompute(v)
		g.recomputing.Store(false)
	}
	return g.cached[id].load()
}

func (g *Graph) direct(id ID) float64 {
	e := g.nodes[id].own()
	for p, ok := id.Parent(); ok; p, ok = p.Parent() {
		e *= g.nodes[p].own()
	}
	return e
}

func (g *Graph) recompute(v uint64) {
	var eff [Count]float64
	eff[Master] = g.nodes[Master].own()
	for id := Master + 1; id < Count; id++ {
		eff[id] = eff[parents[id]] * g.nodes[id].own()
	}
	for id := range eff {
		g.cached[id].store(eff[id])
	}
	g.cachedVersion.Store(v)
	g.recomputes.Add(1)
}

// Recomputes returns how many times the effective table was rebuilt.
func (g *Graph) Recomputes() uint64 {
	return g.recomputes.Load()
}

// Level is a diagnostic view of one bus.
type Level struct {
	Bus       string  `json:"bus"`
	Parent    string  `json:"parent,omitempty"`
	Volume    float64 `json:"volume"`
	Duck      float64 `json:"duck"`
	Mix       float64 `json:"mix"`
	Effective float64 `json:"effective"`
}

// Levels returns the diagnostic view of every bus.
func (g *Graph) Levels() []Level {
	out := make([]Level, 0, Count)
	for id := Master; id < Count; id++ {
		l := Level{
			Bus:       id.String(),
			Volume:    g.Volume(id),
			Duck:      g.DuckGain(id),
			Mix:       g.MixGain(id),
			Effective: g.Effective(id),
		}
		if p, ok := id.Parent(); ok {
			l.Parent = p.String()
		}
		out = append(out, l)
	}
	return out
}
