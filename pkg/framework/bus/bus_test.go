package bus

import (
	"math"
	"testing"
)

func TestTopology(t *testing.T) {
	for id := Master + 1; id < Count; id++ {
		p, ok := id.Parent()
		if !ok {
			t.Errorf("%s has no parent", id)
		}
		if p >= id {
			t.Errorf("%s parent %s does not precede it", id, p)
		}
	}
	if _, ok := Master.Parent(); ok {
		t.Error("Master should have no parent")
	}

	path := Zone.Path()
	if len(path) != 3 || path[0] != Zone || path[1] != Ambience || path[2] != Master {
		t.Errorf("Unexpected path for zone: %v", path)
	}

	children := Ambience.Children()
	if len(children) != 4 {
		t.Errorf("Expected 4 ambience children, got %v", children)
	}
	if !Stems.IsLeaf() || Music.IsLeaf() {
		t.Error("Leaf detection wrong for music subtree")
	}

	if id, ok := ParseID("Traffic"); !ok || id != Traffic {
		t.Errorf("ParseID(Traffic) = %v, %v", id, ok)
	}
	if _, ok := ParseID("nope"); ok {
		t.Error("ParseID should reject unknown names")
	}
	if ID(99).String() != "unknown" {
		t.Error("Invalid ID should stringify as unknown")
	}
}

func TestEffectiveIsProductAlongPath(t *testing.T) {
	g := NewGraph()
	g.SetVolume(Master, 0.8)
	g.SetVolume(Ambience, 0.5)
	g.SetDuckGain(Ambience, 0.5)
	g.SetMixGain(Traffic, 0.4)

	want := 0.8 * 0.5 * 0.5 * 0.4
	if got := g.Effective(Traffic); math.Abs(got-want) > 1e-12 {
		t.Errorf("Effective(traffic) = %f, want %f", got, want)
	}
	if got := g.Effective(Stems); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("Effective(stems) = %f, want 0.8", got)
	}

	for _, id := range All() {
		e := g.Effective(id)
		if e < 0 || e > 1 {
			t.Errorf("Effective(%s) = %f out of range", id, e)
		}
		if e > g.Effective(Master) {
			t.Errorf("Effective(%s) exceeds master", id)
		}
	}
}

func TestVolumesClamped(t *testing.T) {
	g := NewGraph()
	g.SetVolume(SFX, 3)
	if v := g.Volume(SFX); v != 1 {
		t.Errorf("Expected clamp to 1, got %f", v)
	}
	g.SetVolume(SFX, -1)
	if v := g.Volume(SFX); v != 0 {
		t.Errorf("Expected clamp to 0, got %f", v)
	}
	g.SetVolume(SFX, math.NaN())
	if v := g.Volume(SFX); v != 0 {
		t.Errorf("Expected NaN to map to 0, got %f", v)
	}
	g.SetVolume(ID(42), 0.5)
	if g.Effective(ID(42)) != 0 {
		t.Error("Invalid bus should report 0")
	}
}

func TestEffectiveRecomputedLazily(t *testing.T) {
	g := NewGraph()
	g.Effective(UI)
	base := g.Recomputes()

	for i := 0; i < 10; i++ {
		g.Effective(UI)
		g.Effective(Zone)
	}
	if g.Recomputes() != base {
		t.Errorf("Expected no recompute without changes, got %d", g.Recomputes()-base)
	}

	g.SetVolume(Music, 0.3)
	g.SetVolume(Music, 0.3) // no change, no new version
	if got := g.Effective(Stingers); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("Effective(stingers) = %f, want 0.3", got)
	}
	if g.Recomputes() != base+1 {
		t.Errorf("Expected exactly one recompute, got %d", g.Recomputes()-base)
	}
}

func TestLevels(t *testing.T) {
	g := NewGraph()
	g.SetVolume(Weather, 0.5)
	levels := g.Levels()
	if len(levels) != int(Count) {
		t.Fatalf("Expected %d levels, got %d", Count, len(levels))
	}
	w := levels[Weather]
	if w.Bus != "weather" || w.Parent != "ambience" || w.Effective != 0.5 {
		t.Errorf("Unexpected weather level: %+v", w)
	}
}
