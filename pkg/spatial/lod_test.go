package spatial

import (
	"math"
	"testing"

	"github.com/justyntemme/cityaudio/pkg/sim"
)

func TestClassifyHysteresisAtMidpoint(t *testing.T) {
	cfg := DefaultLOD()
	for i, b := range cfg.Boundaries {
		mid := (b.Upgrade + b.Downgrade) / 2
		for _, start := range []Tier{Tier(i), Tier(i + 1)} {
			tier := start
			for n := 0; n < 1000; n++ {
				d := mid + 1
				if n%2 == 1 {
					d = mid - 1
				}
				tier = cfg.Classify(tier, d)
				if tier != start {
					t.Fatalf("Boundary %d: tier moved from %s to %s at sample %d (d=%f)", i, start, tier, n, d)
				}
			}
		}
	}
}

func TestClassifyCrossesThresholds(t *testing.T) {
	cfg := DefaultLOD()
	b := cfg.Boundaries[0]

	if got := cfg.Classify(FullDetail, b.Downgrade+0.1); got != Aggregated {
		t.Errorf("Past downgrade should coarsen, got %s", got)
	}
	if got := cfg.Classify(Aggregated, b.Upgrade-0.1); got != FullDetail {
		t.Errorf("Below upgrade should refine, got %s", got)
	}
	if got := cfg.Classify(FullDetail, 1e6); got != MusicOnly {
		t.Errorf("Far distance should jump to music-only, got %s", got)
	}
	if got := cfg.Classify(MusicOnly, 0); got != FullDetail {
		t.Errorf("Zero distance should jump to full detail, got %s", got)
	}
	if got := cfg.Classify(Abstract, math.NaN()); got != FullDetail {
		t.Errorf("NaN distance should count as 0, got %s", got)
	}
	if got := cfg.Classify(Tier(17), 0); got != FullDetail {
		t.Errorf("Invalid tier should restart from full detail, got %s", got)
	}
}

func TestLODValidate(t *testing.T) {
	cfg := LODConfig{
		Boundaries: [TierCount - 1]Boundary{{Upgrade: 100, Downgrade: 50}, {Upgrade: 10, Downgrade: 20}, {Upgrade: math.NaN(), Downgrade: 0}},
		Caps:       [TierCount]int{-1, 2, 3, 0},
	}
	cfg.Validate()
	prev := 0.0
	for i, b := range cfg.Boundaries {
		if b.Upgrade < prev || b.Downgrade <= b.Upgrade {
			t.Errorf("Boundary %d still invalid: %+v", i, b)
		}
		prev = b.Downgrade
	}
	if cfg.Caps[0] != 0 {
		t.Errorf("Negative cap should clamp to 0, got %d", cfg.Caps[0])
	}
}

func TestLimitRespectsCapsAndScore(t *testing.T) {
	cfg := DefaultLOD()
	cfg.Caps = [TierCount]int{2, 1, 0, 0}

	cands := []Candidate{
		{ID: 1, Tier: FullDetail, Distance: 100, Weight: 1},
		{ID: 2, Tier: FullDetail, Distance: 10, Weight: 1},
		{ID: 3, Tier: FullDetail, Distance: 100, Weight: 5}, // far but important
		{ID: 4, Tier: Aggregated, Distance: 300, Weight: 1},
		{ID: 5, Tier: Aggregated, Distance: 300, Weight: 1},
		{ID: 6, Tier: Abstract, Distance: 800, Weight: 10},
	}
	cfg.Limit(cands)

	active := map[uint64]bool{}
	for _, c := range cands {
		active[c.ID] = c.Active
	}
	want := map[uint64]bool{1: false, 2: true, 3: true, 4: true, 5: false, 6: false}
	for id, w := range want {
		if active[id] != w {
			t.Errorf("Candidate %d active = %v, want %v", id, active[id], w)
		}
	}
}

func TestListenerFromCamera(t *testing.T) {
	cfg := DefaultListener()
	l := ListenerFromCamera(sim.Vec2{X: 10, Y: 20}, 400, cfg)
	if l.AudibleRadius != 600 || l.Height != 40 {
		t.Errorf("Unexpected listener: %+v", l)
	}

	near := ListenerFromCamera(sim.Vec2{}, 1, cfg)
	if near.AudibleRadius != cfg.MinRadius {
		t.Errorf("Radius should clamp to min, got %f", near.AudibleRadius)
	}
	far := ListenerFromCamera(sim.Vec2{X: math.NaN()}, math.Inf(1), cfg)
	if far.Pos != (sim.Vec2{}) || far.AudibleRadius != cfg.MinRadius {
		t.Errorf("Invalid camera should fall back, got %+v", far)
	}

	if d := l.Distance(sim.Vec2{X: 10 + 30, Y: 20}); math.Abs(d-50) > 1e-9 {
		t.Errorf("Distance should include height, got %f", d)
	}
	if p := l.Pan(sim.Vec2{X: 1000, Y: 20}); p <= 0.9 {
		t.Errorf("Source far right should pan right, got %f", p)
	}
	if p := l.Pan(sim.Vec2{X: 10, Y: 500}); p != 0 {
		t.Errorf("Source straight ahead should be centred, got %f", p)
	}
}
