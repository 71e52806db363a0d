package spatial

import (
	"slices"

	"github.com/justyntemme/cityaudio/pkg/sim"
)

// ChunkID addresses a square region of the grid in chunk units.
type ChunkID struct {
	X, Y int
}

// ChunkAudioProfile is the cached aggregate of one region.
type ChunkAudioProfile struct {
	Chunk  ChunkID
	Center sim.Vec2
	Cells  int
	Zoned  int

	// Zones holds the fraction of zoned cells per zone. The Unzoned entry
	// is always 0. The entries sum to 1 when Zoned > 0 and to 0 otherwise.
	Zones [sim.ZoneCount]float64

	Traffic      float64 // mean traffic over all cells
	Construction float64 // fraction of cells under construction
	Fires        int
	Water        bool
}

// ComputeProfile scans the size x size cells of chunk.
func ComputeProfile(g *sim.Grid, chunk ChunkID, size int) ChunkAudioProfile {
	p := ChunkAudioProfile{Chunk: chunk}
	if g == nil || size <= 0 {
		return p
	}
	x0, y0 := chunk.X*size, chunk.Y*size
	half := float64(size) / 2
	p.Center = sim.Vec2{
		X: (float64(x0) + half) * g.CellSize,
		Y: (float64(y0) + half) * g.CellSize,
	}

	var counts [sim.ZoneCount]int
	var traffic float64
	var building int
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			if !g.InBounds(x, y) {
				continue
			}
			c := g.Cells[y*g.Width+x]
			p.Cells++
			if c.Zone > sim.Unzoned && c.Zone < sim.ZoneCount {
				counts[c.Zone]++
				p.Zoned++
			}
			if c.Traffic > 0 {
				traffic += float64(min(c.Traffic, 1))
			}
			if c.Construction {
				building++
			}
			if c.Fire {
				p.Fires++
			}
			if c.Water {
				p.Water = true
			}
		}
	}
	if p.Cells == 0 {
		return p
	}
	if p.Zoned > 0 {
		inv := 1 / float64(p.Zoned)
		for z := sim.Residential; z < sim.ZoneCount; z++ {
			p.Zones[z] = float64(counts[z]) * inv
		}
	}
	p.Traffic = traffic / float64(p.Cells)
	p.Construction = float64(building) / float64(p.Cells)
	return p
}

// ZoneSum returns the sum of the zone fractions.
func (p *ChunkAudioProfile) ZoneSum() float64 {
	sum := 0.0
	for _, w := range p.Zones {
		sum += w
	}
	return sum
}

// MaxWeight returns the largest zone fraction and the zone holding it.
func (p *ChunkAudioProfile) MaxWeight() (float64, sim.Zone) {
	best, zone := 0.0, sim.Unzoned
	for z := sim.Residential; z < sim.ZoneCount; z++ {
		if p.Zones[z] > best {
			best, zone = p.Zones[z], z
		}
	}
	return best, zone
}

// Dominant returns up to n zones in descending order of weight, skipping
// zones below minWeight. dst is reused.
func (p *ChunkAudioProfile) Dominant(dst []sim.Zone, n int, minWeight float64) []sim.Zone {
	dst = dst[:0]
	for len(dst) < n {
		best, zone := 0.0, sim.Unzoned
		for z := sim.Residential; z < sim.ZoneCount; z++ {
			w := p.Zones[z]
			if w <= 0 || w < minWeight || w <= best || slices.Contains(dst, z) {
				continue
			}
			best, zone = w, z
		}
		if zone == sim.Unzoned {
			break
		}
		dst = append(dst, zone)
	}
	return dst
}
