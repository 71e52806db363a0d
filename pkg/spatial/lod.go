package spatial

import (
	"math"
	"slices"
)

// Tier is a level of spatial detail, coarser with distance.
type Tier int

const (
	FullDetail Tier = iota
	Aggregated
	Abstract
	MusicOnly

	// TierCount is the number of tiers.
	TierCount
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case FullDetail:
		return "full-detail"
	case Aggregated:
		return "aggregated"
	case Abstract:
		return "abstract"
	case MusicOnly:
		return "music-only"
	}
	return "unknown"
}

// Boundary separates two adjacent tiers. A coarser item refines once the
// distance drops below Upgrade; a finer item coarsens once the distance
// exceeds Downgrade.
type Boundary struct {
	Upgrade   float64 `json:"upgrade"`
	Downgrade float64 `json:"downgrade"`
}

// LODConfig holds tier boundaries and the per-tier cap on active point
// emitters.
type LODConfig struct {
	Boundaries [TierCount - 1]Boundary `json:"boundaries"`
	Caps       [TierCount]int          `json:"caps"`
}

// DefaultLOD returns the production thresholds.
func DefaultLOD() LODConfig {
	return LODConfig{
		Boundaries: [TierCount - 1]Boundary{
			{Upgrade: 180, Downgrade: 220},
			{Upgrade: 560, Downgrade: 660},
			{Upgrade: 1500, Downgrade: 1700},
		},
		Caps: [TierCount]int{32, 16, 6, 0},
	}
}

// Validate repairs inverted or overlapping boundaries and negative caps.
func (c *LODConfig) Validate() {
	prev := 0.0
	for i := range c.Boundaries {
		b := &c.Boundaries[i]
		if math.IsNaN(b.Upgrade) || b.Upgrade < prev {
			b.Upgrade = prev
		}
		if math.IsNaN(b.Downgrade) || b.Downgrade <= b.Upgrade {
			b.Downgrade = b.Upgrade + 1
		}
		prev = b.Downgrade
	}
	for i := range c.Caps {
		if c.Caps[i] < 0 {
			c.Caps[i] = 0
		}
	}
}

// Classify returns the tier for distance d given the current tier, applying
// hysteresis at every boundary. NaN and negative distances count as 0.
func (c *LODConfig) Classify(current Tier, d float64) Tier {
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	if current < FullDetail || current >= TierCount {
		current = FullDetail
	}
	t := current
	for t < MusicOnly && d > c.Boundaries[t].Downgrade {
		t++
	}
	for t > FullDetail && d < c.Boundaries[t-1].Upgrade {
		t--
	}
	return t
}

// Candidate is an emitter competing for an active slot in its tier.
type Candidate struct {
	ID       uint64
	Tier     Tier
	Distance float64
	Weight   float64 // category weight
	Active   bool    // set by Limit
}

// Score is proximity times category weight.
func (c *Candidate) Score() float64 {
	d := c.Distance
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	return c.Weight / (1 + d)
}

// Limit marks at most Caps[tier] candidates per tier active, preferring the
// highest score and breaking ties by lower ID. The slice is reordered.
func (c *LODConfig) Limit(cands []Candidate) {
	slices.SortFunc(cands, func(a, b Candidate) int {
		if a.Tier != b.Tier {
			return int(a.Tier - b.Tier)
		}
		sa, sb := a.Score(), b.Score()
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	var used [TierCount]int
	for i := range cands {
		t := cands[i].Tier
		if t < FullDetail || t >= TierCount {
			cands[i].Active = false
			continue
		}
		cands[i].Active = used[t] < c.Caps[t]
		if cands[i].Active {
			used[t]++
		}
	}
}
