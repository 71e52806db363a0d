package param

import (
	"math"
	"testing"
)

func TestSmoother(t *testing.T) {
	t.Run("LinearSmoothing", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 10, 1) // 10 samples
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		for i := 0; i < 10; i++ {
			value := smoother.Next()
			expected := float64(i+1) * 0.1
			if math.Abs(value-expected) > 0.001 {
				t.Errorf("Sample %d: expected %f, got %f", i, expected, value)
			}
		}

		if smoother.Next() != 1.0 {
			t.Error("Should stay at target after reaching it")
		}
		if smoother.IsSmoothing() {
			t.Error("Should not be smoothing after reaching target")
		}
	})

	t.Run("ExponentialSmoothing", func(t *testing.T) {
		smoother := NewSmoother(ExponentialSmoothing, 10, 1)
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		prev := 0.0
		for i := 0; i < 50; i++ {
			value := smoother.Next()
			if value <= prev {
				t.Error("Value should be increasing")
			}
			if value >= 1.0 {
				t.Error("Should not exceed target")
			}
			prev = value
		}

		for i := 0; i < 200; i++ {
			smoother.Next()
		}
		if smoother.IsSmoothing() {
			t.Error("Should have reached target by now")
		}
	})

	t.Run("IgnoresNaN", func(t *testing.T) {
		smoother := NewSmoother(ExponentialSmoothing, 0.01, 48000)
		smoother.Reset(0.5)
		smoother.SetTarget(math.NaN())
		if smoother.IsSmoothing() || smoother.Next() != 0.5 {
			t.Error("NaN target should be ignored")
		}
	})
}

func TestApproachFrameRateIndependent(t *testing.T) {
	const tau = 0.5
	one := Approach(0, 1, 1.0, tau)

	sixty := 0.0
	for i := 0; i < 60; i++ {
		sixty = Approach(sixty, 1, 1.0/60, tau)
	}
	if math.Abs(one-sixty) > 1e-9 {
		t.Errorf("Expected same value for 1 step and 60 steps: %f vs %f", one, sixty)
	}

	want := 1 - math.Exp(-2)
	if math.Abs(one-want) > 1e-12 {
		t.Errorf("Approach = %f, want %f", one, want)
	}
}

func TestApproachEdgeCases(t *testing.T) {
	if v := Approach(0.3, 1, 0, 1); v != 0.3 {
		t.Errorf("dt=0 should not move, got %f", v)
	}
	if v := Approach(0.3, 1, 0.1, 0); v != 1 {
		t.Errorf("tau=0 should jump, got %f", v)
	}
	if v := Approach(0.3, 1, math.NaN(), 1); v != 0.3 {
		t.Errorf("NaN dt should not move, got %f", v)
	}
}

func TestSettleTime(t *testing.T) {
	tau := 2.0
	st := SettleTime(tau, 0.01)
	v := Approach(0, 1, st, tau)
	if math.Abs(v-0.99) > 1e-9 {
		t.Errorf("Expected 99%% after settle time, got %f", v)
	}
}

func TestAtomic(t *testing.T) {
	p := NewAtomic("volume", 0, 1, 0.5)
	if p.Value() != 0.5 {
		t.Errorf("Expected 0.5, got %f", p.Value())
	}
	p.Set(2)
	if p.Value() != 1 {
		t.Errorf("Expected clamp to 1, got %f", p.Value())
	}
	p.Set(math.NaN())
	if p.Value() != 0 {
		t.Errorf("Expected NaN to map to min, got %f", p.Value())
	}
	p.Set(0.25)
	if p.Normalized() != 0.25 {
		t.Errorf("Expected normalized 0.25, got %f", p.Normalized())
	}

	var z Atomic
	z.Init("cutoff", 20, 20000, 1000)
	if z.Value32() != 1000 {
		t.Errorf("Expected 1000, got %f", z.Value32())
	}

	var f Flag
	f.Set(true)
	if !f.On() {
		t.Error("Flag should be on")
	}
}

func TestTween(t *testing.T) {
	var tw Tween
	tw.Set(1)
	tw.Start(0, 2)

	if v := tw.Advance(1); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 halfway, got %f", v)
	}
	if tw.Done() {
		t.Error("Tween should not be done halfway")
	}
	if v := tw.Advance(5); v != 0 {
		t.Errorf("Expected 0 at end, got %f", v)
	}
	if !tw.Done() || tw.Progress() != 1 {
		t.Error("Tween should be done")
	}

	// Restart mid-fade continues from the current value
	tw.Set(0)
	tw.Start(1, 1)
	tw.Advance(0.5)
	tw.Start(0, 1)
	if tw.From != 0.5 {
		t.Errorf("Expected restart from 0.5, got %f", tw.From)
	}

	tw.Start(0.7, 0)
	if tw.Value() != 0.7 || !tw.Done() {
		t.Errorf("Zero-duration tween should jump, got %f", tw.Value())
	}
}
