package spatial

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/dsp/pan"

	"github.com/justyntemme/cityaudio/pkg/sim"
)

// Listener is the single point everything is heard from.
type Listener struct {
	Pos           sim.Vec2
	Height        float64
	AudibleRadius float64
	ViewDistance  float64
}

// ListenerConfig maps camera view distance to listener properties.
type ListenerConfig struct {
	RadiusScale float64 `json:"radius_scale"`
	MinRadius   float64 `json:"min_radius"`
	MaxRadius   float64 `json:"max_radius"`
	HeightScale float64 `json:"height_scale"`
}

// DefaultListener returns the production camera mapping.
func DefaultListener() ListenerConfig {
	return ListenerConfig{
		RadiusScale: 1.5,
		MinRadius:   200,
		MaxRadius:   3000,
		HeightScale: 0.1,
	}
}

// ListenerFromCamera derives the listener from the camera's ground position
// and view distance. Non-finite input falls back to the origin and the
// minimum radius.
func ListenerFromCamera(pos sim.Vec2, viewDistance float64, cfg ListenerConfig) Listener {
	if !pos.Finite() {
		pos = sim.Vec2{}
	}
	if math.IsNaN(viewDistance) || math.IsInf(viewDistance, 0) || viewDistance < 0 {
		viewDistance = 0
	}
	r := viewDistance * cfg.RadiusScale
	if r < cfg.MinRadius {
		r = cfg.MinRadius
	}
	if cfg.MaxRadius > 0 && r > cfg.MaxRadius {
		r = cfg.MaxRadius
	}
	return Listener{
		Pos:           pos,
		Height:        viewDistance * cfg.HeightScale,
		AudibleRadius: r,
		ViewDistance:  viewDistance,
	}
}

// Distance returns the distance from the listener's ear to a ground point.
func (l *Listener) Distance(p sim.Vec2) float64 {
	if !p.Finite() {
		return 0
	}
	return math.Hypot(l.Pos.Dist(p), l.Height)
}

// Pan returns the stereo position of p in [-1, 1]. Listener height pulls
// sources toward the centre as the camera zooms out.
func (l *Listener) Pan(p sim.Vec2) float64 {
	if !p.Finite() {
		return 0
	}
	return float64(pan.FromPosition(p.X-l.Pos.X, l.Distance(p)))
}
