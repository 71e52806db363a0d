package spatial

import (
	"github.com/justyntemme/cityaudio/pkg/framework/voice"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// Kind tags which variant an Emitter carries.
type Kind uint8

const (
	Point Kind = iota
	Area
)

// String returns the kind name.
func (k Kind) String() string {
	if k == Area {
		return "area"
	}
	return "point"
}

// Emitter is a logical sound source. Exactly one of Point or Area is set,
// matching Kind.
type Emitter struct {
	ID    uint64
	Kind  Kind
	Point *PointData
	Area  *AreaData
}

// PointData is a single positioned source owned weakly by a simulation
// entity.
type PointData struct {
	Owner sim.EntityRef
	Event sim.EventKind
	Pos   sim.Vec2
	Spec  SourceSpec

	Rolloff     Rolloff
	OcclusionDB float64
	Cooldown    float64
	Voice       voice.Handle

	Tier     Tier
	Active   bool // selected within its tier cap
	Silent   bool // bank missing; never triggers
	Played   bool // one-shot already fired
	Distance float64
	Gain     float64 // attenuation times occlusion
	Age      float64 // seconds since the emitter was created

	classified bool
}

// AreaLayers is the number of zone layers one region can sound at once.
const AreaLayers = 2

// AreaLayer is one zone loop of a region.
type AreaLayer struct {
	Zone  sim.Zone
	Voice voice.Handle
	Gain  float64
}

// AreaData is a region-level ambience source built from a chunk profile.
type AreaData struct {
	Chunk    ChunkID
	Profile  ChunkAudioProfile
	Layers   [AreaLayers]AreaLayer
	Distance float64
	Score    float64
	Weight   float64 // boundary weight across the audible radius
	Target   float64
	Gain     float64 // smoothed toward Target
	Selected bool
}

// NewPointEmitter wraps point data.
func NewPointEmitter(id uint64, p *PointData) *Emitter {
	return &Emitter{ID: id, Kind: Point, Point: p}
}

// NewAreaEmitter wraps area data.
func NewAreaEmitter(a *AreaData) *Emitter {
	return &Emitter{ID: areaID(a.Chunk), Kind: Area, Area: a}
}

// areaID keeps area IDs disjoint from point IDs.
func areaID(c ChunkID) uint64 {
	return 1<<63 | uint64(uint32(c.X)&0x7fffffff)<<32 | uint64(uint32(c.Y))
}

// Pos returns the emitter position.
func (e *Emitter) Pos() sim.Vec2 {
	switch e.Kind {
	case Point:
		if e.Point != nil {
			return e.Point.Pos
		}
	case Area:
		if e.Area != nil {
			return e.Area.Profile.Center
		}
	}
	return sim.Vec2{}
}

// Handles calls fn for every voice handle the emitter holds.
func (e *Emitter) Handles(fn func(h *voice.Handle)) {
	switch e.Kind {
	case Point:
		if e.Point != nil {
			fn(&e.Point.Voice)
		}
	case Area:
		if e.Area != nil {
			for i := range e.Area.Layers {
				fn(&e.Area.Layers[i].Voice)
			}
		}
	}
}
