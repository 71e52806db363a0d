package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/justyntemme/cityaudio/pkg/sim"
)

func TestComputeProfileZoneSums(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := sim.NewGrid(64, 64, 8)
	for i := range g.Cells {
		g.Cells[i] = sim.Cell{
			Zone:    sim.Zone(rng.Intn(int(sim.ZoneCount))),
			Traffic: rng.Float32(),
		}
	}

	for cy := 0; cy < 4; cy++ {
		for cx := 0; cx < 4; cx++ {
			p := ComputeProfile(g, ChunkID{cx, cy}, 16)
			if p.Zoned == 0 {
				continue
			}
			if s := p.ZoneSum(); math.Abs(s-1) > 1e-5 {
				t.Errorf("Chunk %d,%d zone sum = %f", cx, cy, s)
			}
			if p.Zones[sim.Unzoned] != 0 {
				t.Errorf("Unzoned weight should be 0, got %f", p.Zones[sim.Unzoned])
			}
		}
	}
}

func TestComputeProfileEmptyAndPartial(t *testing.T) {
	g := sim.NewGrid(20, 20, 10)

	p := ComputeProfile(g, ChunkID{0, 0}, 16)
	if p.ZoneSum() != 0 || p.Cells != 256 {
		t.Errorf("Unzoned chunk should have zero weights, got %+v", p)
	}

	// Chunk (1,1) only overlaps 4x4 cells of the grid.
	g.Set(19, 19, sim.Cell{Zone: sim.Commercial, Fire: true, Water: true, Construction: true, Traffic: 1})
	p = ComputeProfile(g, ChunkID{1, 1}, 16)
	if p.Cells != 16 || p.Zoned != 1 || p.Zones[sim.Commercial] != 1 {
		t.Errorf("Unexpected partial chunk: %+v", p)
	}
	if p.Fires != 1 || !p.Water || p.Construction != 1.0/16 || p.Traffic != 1.0/16 {
		t.Errorf("Unexpected indicators: %+v", p)
	}
	if w, z := p.MaxWeight(); w != 1 || z != sim.Commercial {
		t.Errorf("MaxWeight = %f %s", w, z)
	}

	outside := ComputeProfile(g, ChunkID{5, 5}, 16)
	if outside.Cells != 0 || outside.ZoneSum() != 0 {
		t.Errorf("Chunk outside the grid should be empty, got %+v", outside)
	}
	if (&ChunkAudioProfile{}).ZoneSum() != 0 || ComputeProfile(nil, ChunkID{}, 16).Cells != 0 {
		t.Error("Nil grid should yield an empty profile")
	}
}

func TestDominantZones(t *testing.T) {
	p := ChunkAudioProfile{}
	p.Zones[sim.Residential] = 0.5
	p.Zones[sim.Industrial] = 0.3
	p.Zones[sim.Park] = 0.2

	got := p.Dominant(nil, 2, 0)
	if len(got) != 2 || got[0] != sim.Residential || got[1] != sim.Industrial {
		t.Errorf("Dominant = %v", got)
	}
	got = p.Dominant(got, 5, 0.25)
	if len(got) != 2 {
		t.Errorf("Threshold should drop park, got %v", got)
	}
}

// stripes builds a grid of 8x8 chunks with one zone per chunk column.
func stripes() *sim.Grid {
	g := sim.NewGrid(64, 64, 10)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			g.Set(x, y, sim.Cell{Zone: sim.Zone(1 + (x/8)%int(sim.ZoneCount-1)), Traffic: 0.2})
		}
	}
	return g
}

func testAggregator() *Aggregator {
	cfg := DefaultAggregator()
	cfg.ChunkSize = 8
	return NewAggregator(cfg)
}

func TestAggregatorRebuildInterval(t *testing.T) {
	a := testAggregator()
	g := stripes()

	if !a.Tick(g, 0) {
		t.Fatal("First tick should rebuild")
	}
	if len(a.Profiles()) != 64 {
		t.Fatalf("Expected 64 profiles, got %d", len(a.Profiles()))
	}
	if a.Tick(g, 1) {
		t.Error("Rebuild before the interval")
	}
	if !a.Tick(g, 1.01) {
		t.Error("Rebuild expected after the interval")
	}
	if !a.Tick(sim.NewGrid(8, 8, 10), 0.1) {
		t.Error("Resized grid should rebuild immediately")
	}
	if a.Rebuilds() != 3 {
		t.Errorf("Rebuilds = %d, want 3", a.Rebuilds())
	}
}

func TestAggregatorSelectTopN(t *testing.T) {
	a := testAggregator()
	g := stripes()
	a.Tick(g, 0)

	l := Listener{Pos: sim.Vec2{X: 320, Y: 320}, AudibleRadius: 10000}
	sel := a.Select(&l, FullDetail)
	if len(sel) != a.cfg.TopN[FullDetail] {
		t.Fatalf("Selected %d regions, want %d", len(sel), a.cfg.TopN[FullDetail])
	}
	for i := 1; i < len(sel); i++ {
		if sel[i].Score > sel[i-1].Score {
			t.Errorf("Selection not ordered at %d", i)
		}
	}

	// The selection must match a brute-force ranking.
	best := 0.0
	for i := range a.profiles {
		if s := Score(&a.profiles[i], l.Distance(a.profiles[i].Center)); s > best {
			best = s
		}
	}
	if sel[0].Score != best {
		t.Errorf("Top score %f, brute force %f", sel[0].Score, best)
	}

	if got := a.Select(&l, MusicOnly); len(got) != 0 {
		t.Errorf("Music-only tier should select nothing, got %d", len(got))
	}
}

func TestAggregatorBoundaryFade(t *testing.T) {
	a := testAggregator()
	g := stripes()
	a.Tick(g, 0)

	l := Listener{Pos: sim.Vec2{X: 40, Y: 40}, AudibleRadius: 200}
	for i := 0; i < 200; i++ {
		a.Update(&l, FullDetail, 0.05)
	}
	regions := a.Regions()
	if len(regions) == 0 {
		t.Fatal("Expected live regions")
	}
	for _, e := range regions {
		ad := e.Area
		if ad.Distance > l.AudibleRadius*1.15 && ad.Target > 0 {
			t.Errorf("Region beyond the band has target %f", ad.Target)
		}
		if ad.Weight < 0 || ad.Weight > 1 || math.Abs(ad.Gain-ad.Target) > 1e-3 {
			t.Errorf("Region %v not settled: weight %f gain %f target %f", ad.Chunk, ad.Weight, ad.Gain, ad.Target)
		}
	}

	// Moving away fades regions out rather than cutting them.
	l.Pos = sim.Vec2{X: 1e6, Y: 1e6}
	a.Update(&l, FullDetail, 0.05)
	for _, e := range a.Regions() {
		if e.Area.Gain <= 0 || e.Area.Target != 0 {
			t.Errorf("Region %v should be fading, gain %f target %f", e.Area.Chunk, e.Area.Gain, e.Area.Target)
		}
	}
	for i := 0; i < 400; i++ {
		a.Update(&l, FullDetail, 0.05)
	}
	if n := len(a.Regions()); n != 0 {
		t.Errorf("Faded regions should be dropped, %d left", n)
	}
}

func TestAggregatorCoarseMix(t *testing.T) {
	a := testAggregator()
	g := stripes()
	a.Tick(g, 0)

	l := Listener{Pos: sim.Vec2{X: 320, Y: 320}, AudibleRadius: 3000}
	for i := 0; i < 300; i++ {
		a.Update(&l, Abstract, 0.05)
	}
	if !a.IsCoarse() {
		t.Fatal("Abstract tier should use the city mix")
	}
	if n := len(a.Regions()); n != 0 {
		t.Errorf("Coarse tier should have no region layers, got %d", n)
	}
	mix := a.CityMix()
	sum := 0.0
	for _, w := range mix {
		sum += w
	}
	if sum <= 0.5 || sum > 1+1e-6 {
		t.Errorf("City mix should be a weighted average, sum %f", sum)
	}

	for i := 0; i < 300; i++ {
		a.Update(&l, MusicOnly, 0.05)
	}
	for z, w := range a.CityMix() {
		if w > 1e-3 {
			t.Errorf("Music-only tier should silence zone %d, got %f", z, w)
		}
	}
}
