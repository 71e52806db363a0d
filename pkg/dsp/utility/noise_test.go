package utility

import (
	"testing"
)

func TestNoiseDeterministic(t *testing.T) {
	a := NewNoiseGenerator(PinkNoise, 42)
	b := NewNoiseGenerator(PinkNoise, 42)
	for i := 0; i < 1000; i++ {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("Expected identical output for same seed at %d: %f != %f", i, x, y)
		}
	}
}

func TestNoiseRange(t *testing.T) {
	for _, nt := range []NoiseType{WhiteNoise, PinkNoise, BrownNoise} {
		gen := NewNoiseGenerator(nt, 7)
		buf := make([]float32, 10000)
		gen.Generate(buf)
		nonZero := false
		for i, s := range buf {
			if s < -1 || s > 1 {
				t.Errorf("type %d sample %d out of range: %f", nt, i, s)
				break
			}
			if s != 0 {
				nonZero = true
			}
		}
		if !nonZero {
			t.Errorf("type %d produced silence", nt)
		}
	}
}

func TestNoiseNoAllocs(t *testing.T) {
	gen := NewNoiseGenerator(PinkNoise, 1)
	buf := make([]float32, 512)
	allocs := testing.AllocsPerRun(50, func() {
		gen.Generate(buf)
	})
	if allocs != 0 {
		t.Errorf("Expected 0 allocations, got %f", allocs)
	}
}

func TestDCBlocker(t *testing.T) {
	dc := NewDCBlocker(2, 10, 48000)
	left := make([]float32, 48000)
	right := make([]float32, 48000)
	for i := range left {
		left[i] = 0.5
		right[i] = -0.5
	}
	dc.ProcessStereo(left, right)
	if v := left[len(left)-1]; v > 0.01 || v < -0.01 {
		t.Errorf("Expected DC removed from left, got %f", v)
	}
	if v := right[len(right)-1]; v > 0.01 || v < -0.01 {
		t.Errorf("Expected DC removed from right, got %f", v)
	}
}
