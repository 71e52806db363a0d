package settings

import (
	"math"
	"testing"

	"github.com/justyntemme/cityaudio/pkg/framework/bus"
)

func TestClampAndGain(t *testing.T) {
	s := Default()
	s.Volumes[bus.SFX] = -20
	s.Volumes[bus.UI] = math.NaN()
	s.Verbosity = 9
	s.Output = -1
	s.Clamp()
	if s.Volumes[bus.SFX] != 0 || s.Volumes[bus.UI] != 100 {
		t.Errorf("Volumes not clamped: %v", s.Volumes)
	}
	if s.Verbosity != All || s.Output != Headphones {
		t.Errorf("Enums not reset: %+v", s)
	}
	if g := s.Gain(bus.Music); g != 0.7 {
		t.Errorf("Music gain = %f, want 0.7", g)
	}
	if s.Gain(bus.Count) != 0 {
		t.Error("Invalid bus should have zero gain")
	}
}

func TestApplyWritesGraph(t *testing.T) {
	s := Default()
	s.Volumes[bus.Weather] = 50
	g := bus.NewGraph()
	s.Apply(g)
	if g.Volume(bus.Weather) != 0.5 || g.Volume(bus.Music) != 0.7 {
		t.Errorf("Graph volumes %f %f", g.Volume(bus.Weather), g.Volume(bus.Music))
	}
}

func TestParse(t *testing.T) {
	for _, v := range []Verbosity{All, Important, CriticalOnly} {
		if got, err := ParseVerbosity(v.String()); err != nil || got != v {
			t.Errorf("ParseVerbosity(%s) = %v, %v", v, got, err)
		}
	}
	for _, m := range []OutputMode{Headphones, Speakers} {
		if got, err := ParseOutputMode(m.String()); err != nil || got != m {
			t.Errorf("ParseOutputMode(%s) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseOutputMode("surround"); err == nil {
		t.Error("Unknown output mode should fail")
	}
}
