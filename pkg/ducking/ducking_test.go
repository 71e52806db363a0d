package ducking

import (
	"math"
	"testing"

	"github.com/justyntemme/cityaudio/pkg/dsp/gain"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
)

const tick = 1.0 / 60

func run(e *Envelope, seconds float64) {
	for t := 0.0; t < seconds-1e-9; t += tick {
		e.Advance(tick)
	}
}

func TestEnvelopeStages(t *testing.T) {
	e := NewEnvelope(-12, 0.1, 0.5)
	if e.Stage() != Idle || e.DB() != 0 {
		t.Fatal("New envelope should be idle at 0 dB")
	}

	e.Trigger(1)
	e.Advance(0.05)
	if e.Stage() != Attacking || math.Abs(e.DB()+6) > 1e-9 {
		t.Errorf("Half-way through attack: %s %f", e.Stage(), e.DB())
	}
	e.Advance(0.05)
	if e.Stage() != Holding || e.DB() != -12 {
		t.Errorf("After attack: %s %f", e.Stage(), e.DB())
	}
	run(e, 0.92)
	if e.Stage() != Releasing {
		t.Errorf("Hold should end one second after trigger, got %s", e.Stage())
	}
	run(e, 0.25)
	if db := e.DB(); db >= 0 || db <= -12 {
		t.Errorf("Mid-release value %f", db)
	}
	run(e, 0.3)
	if e.Stage() != Idle || e.DB() != 0 {
		t.Errorf("Envelope should be idle at 0 dB, got %s %f", e.Stage(), e.DB())
	}
}

func TestEnvelopeMonotonic(t *testing.T) {
	e := NewEnvelope(-20, 0.3, 1.2)
	e.Trigger(0.5)
	prev := 0.0
	for e.Stage() == Attacking || e.Stage() == Holding {
		e.Advance(tick)
		if e.Stage() == Releasing {
			break
		}
		if e.DB() > prev {
			t.Fatalf("Attack not monotonic: %f after %f", e.DB(), prev)
		}
		prev = e.DB()
	}
	for e.Stage() != Idle {
		if e.DB() < prev {
			t.Fatalf("Release not monotonic: %f after %f", e.DB(), prev)
		}
		prev = e.DB()
		e.Advance(tick)
	}
}

func TestReleaseLongerThanAttack(t *testing.T) {
	for _, c := range []struct{ attack, release float64 }{{1, 0.5}, {1, 1}, {0, 0}, {0.2, math.NaN()}} {
		e := NewEnvelope(-6, c.attack, c.release)
		if e.ReleaseTime() <= e.Attack() {
			t.Errorf("attack %f release %f: release %f not longer than attack %f", c.attack, c.release, e.ReleaseTime(), e.Attack())
		}
	}
}

func TestRetriggerExtendsHold(t *testing.T) {
	e := NewEnvelope(-10, 0.1, 0.4)
	e.Trigger(0.5)
	run(e, 0.4)
	e.Trigger(1)
	run(e, 0.9)
	if e.Stage() != Holding {
		t.Errorf("Retrigger should extend the hold, got %s", e.Stage())
	}
	run(e, 0.2)
	if e.Stage() != Releasing {
		t.Errorf("Extended hold should end, got %s", e.Stage())
	}
}

func TestRetriggerDuringReleaseReattacks(t *testing.T) {
	e := NewEnvelope(-10, 0.1, 1)
	e.Trigger(0)
	run(e, 0.1)
	run(e, 0.5)
	if e.Stage() != Releasing {
		t.Fatalf("Expected release, got %s", e.Stage())
	}
	from := e.DB()
	e.Trigger(HoldUntilReleased)
	if e.Stage() != Attacking || e.DB() != from {
		t.Errorf("Re-attack should start from the current value %f, got %s %f", from, e.Stage(), e.DB())
	}
	run(e, 0.1)
	run(e, 5)
	if e.Stage() != Holding || e.DB() != -10 {
		t.Errorf("Open-ended hold should persist, got %s %f", e.Stage(), e.DB())
	}
	e.Release()
	e.Advance(tick)
	if e.Stage() != Releasing {
		t.Errorf("Release should start releasing, got %s", e.Stage())
	}
}

func TestCombineTakesMinimum(t *testing.T) {
	eng := New([]Rule{
		{Trigger: Notification, Bus: bus.Music, TargetDB: -6, Attack: 0.01, Release: 0.5},
		{Trigger: Siren, Bus: bus.Music, TargetDB: -9, Attack: 0.01, Release: 0.5},
		{Trigger: Stinger, Bus: bus.Stems, TargetDB: -3, Attack: 0.01, Release: 0.5},
	}, 2)

	eng.Trigger(Notification, 2)
	eng.Trigger(Siren, 2)
	eng.Advance(0.1)

	if db := eng.Attenuation(bus.Music); db != -9 {
		t.Errorf("Music attenuation = %f, want -9 (not the sum)", db)
	}
	if db := eng.Attenuation(bus.Stems); db != 0 {
		t.Errorf("Stems should be untouched, got %f", db)
	}

	g := bus.NewGraph()
	eng.Apply(g)
	if got, want := g.DuckGain(bus.Music), gain.DbToLinear(-9); math.Abs(got-want) > 1e-9 {
		t.Errorf("Duck gain = %f, want %f", got, want)
	}
	if g.DuckGain(bus.Ambience) != 1 {
		t.Error("Unducked bus should have unity duck gain")
	}
	if eng.Active() != 2 {
		t.Errorf("Active = %d, want 2", eng.Active())
	}
}

func TestCrisisOnsetFasterThanRelief(t *testing.T) {
	const bar = 2.0 // 120 bpm in 4/4
	eng := New(DefaultRules(), bar)
	env := eng.Envelope(Crisis, bus.Ambience)
	if env == nil {
		t.Fatal("Missing crisis rule")
	}

	eng.Trigger(Crisis, HoldUntilReleased)
	onset := 0.0
	for env.DB() > env.TargetDB() {
		eng.Advance(tick)
		onset += tick
		if onset > 10*bar {
			t.Fatal("Onset never completed")
		}
	}
	if onset > 2*bar+tick {
		t.Errorf("Onset took %f s, want <= 2 bars", onset)
	}

	eng.Release(Crisis)
	relief := 0.0
	for env.Stage() != Idle {
		eng.Advance(tick)
		relief += tick
	}
	if relief < 4*bar {
		t.Errorf("Relief took %f s, want >= 4 bars", relief)
	}
	if relief <= onset {
		t.Error("Relief must be slower than onset")
	}
}

func TestTempoChangeRescalesBarRules(t *testing.T) {
	eng := New(DefaultRules(), 2)
	env := eng.Envelope(Disaster, bus.Ambience)
	if env.Attack() != 2 || env.ReleaseTime() != 8 {
		t.Errorf("Unexpected bar timing %f/%f", env.Attack(), env.ReleaseTime())
	}
	eng.SetBarDuration(3)
	if env.Attack() != 3 || env.ReleaseTime() != 12 {
		t.Errorf("Unexpected rescaled timing %f/%f", env.Attack(), env.ReleaseTime())
	}
	if eng.Envelope(Stinger, bus.Stems).Attack() != 0.05 {
		t.Error("Second-based rules should not rescale")
	}
	if eng.Envelope(Stinger, bus.UI) != nil {
		t.Error("Unknown rule should be nil")
	}

	eng.Trigger(Disaster, 1)
	eng.Reset()
	if eng.Active() != 0 || eng.Attenuation(bus.Ambience) != 0 {
		t.Error("Reset should idle everything")
	}
}
