package spatial

import "math"

// Config gathers every spatial tunable.
type Config struct {
	Rolloffs        RolloffTable     `json:"rolloffs"`
	Occlusion       OcclusionTable   `json:"occlusion"`
	OcclusionBudget int              `json:"occlusion_budget"` // emitters re-evaluated per tick
	LOD             LODConfig        `json:"lod"`
	Listener        ListenerConfig   `json:"listener"`
	Aggregator      AggregatorConfig `json:"aggregator"`
	Sources         SourceTable      `json:"sources"`
}

// DefaultConfig returns production spatial settings.
func DefaultConfig() Config {
	return Config{
		Rolloffs:        DefaultRolloffs(),
		Occlusion:       DefaultOcclusion(),
		OcclusionBudget: 8,
		LOD:             DefaultLOD(),
		Listener:        DefaultListener(),
		Aggregator:      DefaultAggregator(),
		Sources:         DefaultSources(),
	}
}

// Validate clamps invalid values in place.
func (c *Config) Validate() {
	def := DefaultConfig()
	for i := range c.Rolloffs {
		r := &c.Rolloffs[i]
		if math.IsNaN(r.Reference) || r.Reference < 0 {
			r.Reference = def.Rolloffs[i].Reference
		}
		if math.IsNaN(r.Max) || r.Max <= r.Reference {
			r.Max = math.Max(def.Rolloffs[i].Max, r.Reference+1)
		}
		if math.IsNaN(r.Exponent) || r.Exponent <= 0 {
			r.Exponent = def.Rolloffs[i].Exponent
		}
	}
	if c.Occlusion.MaxDB >= 0 || math.IsNaN(c.Occlusion.MaxDB) {
		c.Occlusion.MaxDB = def.Occlusion.MaxDB
	}
	for i, p := range c.Occlusion.Penalty {
		if p > 0 || math.IsNaN(p) {
			c.Occlusion.Penalty[i] = def.Occlusion.Penalty[i]
		}
	}
	if c.Occlusion.OpenHz <= c.Occlusion.ClosedHz || c.Occlusion.ClosedHz <= 0 {
		c.Occlusion.OpenHz, c.Occlusion.ClosedHz = def.Occlusion.OpenHz, def.Occlusion.ClosedHz
	}
	if c.OcclusionBudget < 0 {
		c.OcclusionBudget = 0
	}
	c.LOD.Validate()
	if c.Listener.MinRadius <= 0 {
		c.Listener.MinRadius = def.Listener.MinRadius
	}
	if c.Listener.MaxRadius < c.Listener.MinRadius {
		c.Listener.MaxRadius = c.Listener.MinRadius
	}
	if c.Listener.RadiusScale <= 0 {
		c.Listener.RadiusScale = def.Listener.RadiusScale
	}
	if c.Listener.HeightScale < 0 {
		c.Listener.HeightScale = 0
	}
	if c.Aggregator.ChunkSize <= 0 {
		c.Aggregator.ChunkSize = def.Aggregator.ChunkSize
	}
	if c.Aggregator.Interval <= 0 {
		c.Aggregator.Interval = def.Aggregator.Interval
	}
	for i, n := range c.Aggregator.TopN {
		if n < 0 {
			c.Aggregator.TopN[i] = 0
		}
	}
}
