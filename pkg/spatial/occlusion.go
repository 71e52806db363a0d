package spatial

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/dsp/gain"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// OcclusionTable gives the dB penalty each structure class adds when it
// stands between listener and emitter. Penalties are negative.
type OcclusionTable struct {
	Penalty [sim.StructureCount]float64 `json:"penalty"`
	MaxDB   float64                     `json:"max_db"` // most negative total, e.g. -30

	// Muffling applied to occluded voices: the cutoff sweeps from OpenHz at
	// 0 dB down to ClosedHz at MaxDB.
	OpenHz   float64 `json:"open_hz"`
	ClosedHz float64 `json:"closed_hz"`
}

// DefaultOcclusion returns the production penalty table.
func DefaultOcclusion() OcclusionTable {
	return OcclusionTable{
		Penalty: [sim.StructureCount]float64{
			sim.Open:   0,
			sim.Light:  -2,
			sim.Medium: -4,
			sim.Dense:  -7,
			sim.Tower:  -11,
		},
		MaxDB:    -30,
		OpenHz:   16000,
		ClosedHz: 700,
	}
}

// OcclusionDB walks the cells between listener and emitter and sums the
// penalty of every solid cell in between. The endpoint cells do not count.
// The result lies in [MaxDB, 0].
func OcclusionDB(g *sim.Grid, from, to sim.Vec2, t *OcclusionTable) float64 {
	if g == nil || t == nil || !from.Finite() || !to.Finite() {
		return 0
	}
	x0, y0 := g.CellOf(from)
	x1, y1 := g.CellOf(to)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	total := 0.0
	x, y := x0, y0
	err := dx + dy
	for {
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		if x == x1 && y == y1 {
			break
		}
		if s := g.At(x, y).Structure; s.Solid() {
			total += t.Penalty[s]
			if total <= t.MaxDB {
				return t.MaxDB
			}
		}
	}
	return total
}

// OcclusionGain converts an occlusion total to a linear multiplier.
func OcclusionGain(db float64) float64 {
	if db >= 0 || math.IsNaN(db) {
		return 1
	}
	return gain.DbToLinear(db)
}

// Cutoff returns the low-pass cutoff for an occlusion total, or 0 when the
// path is clear and no filtering is needed.
func (t *OcclusionTable) Cutoff(db float64) float64 {
	if math.IsNaN(db) || db > -0.5 || t.MaxDB >= 0 {
		return 0
	}
	frac := db / t.MaxDB
	if frac > 1 {
		frac = 1
	}
	lo, hi := math.Log(t.ClosedHz), math.Log(t.OpenHz)
	return math.Exp(hi + (lo-hi)*frac)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// OcclusionScheduler spreads occlusion work across ticks: each tick at most
// Budget items are visited, continuing where the previous tick stopped.
type OcclusionScheduler struct {
	Budget int
	cursor int
}

// Visit calls fn for up to Budget indices in [0, n), round-robin.
// It returns the number visited.
func (s *OcclusionScheduler) Visit(n int, fn func(i int)) int {
	if n <= 0 || s.Budget <= 0 {
		return 0
	}
	count := s.Budget
	if count > n {
		count = n
	}
	if s.cursor >= n {
		s.cursor = 0
	}
	for k := 0; k < count; k++ {
		fn(s.cursor)
		s.cursor++
		if s.cursor >= n {
			s.cursor = 0
		}
	}
	return count
}
