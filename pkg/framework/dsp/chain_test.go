package dsp

import (
	"testing"

	"github.com/justyntemme/cityaudio/pkg/dsp/dynamics"
	"github.com/justyntemme/cityaudio/pkg/dsp/utility"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// TestStereoProcessor is a simple stereo processor for testing
type TestStereoProcessor struct {
	leftGain   float32
	rightGain  float32
	resetCount int
}

func (p *TestStereoProcessor) ProcessStereo(left, right []float32) {
	for i := range left {
		left[i] *= p.leftGain
	}
	for i := range right {
		right[i] *= p.rightGain
	}
}

func (p *TestStereoProcessor) Reset() {
	p.resetCount++
}

func TestStereoChain(t *testing.T) {
	t.Run("BasicStereoChain", func(t *testing.T) {
		p := &TestStereoProcessor{leftGain: 0.5, rightGain: 2.0}
		chain, err := NewStereoBuilder("test").WithProcessor(p).Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		left := []float32{1.0, 2.0, 3.0}
		right := []float32{1.0, 2.0, 3.0}
		chain.ProcessStereo(left, right)

		for i, v := range left {
			expected := float32(i+1) * 0.5
			if v != expected {
				t.Errorf("Left[%d]: expected %f, got %f", i, expected, v)
			}
		}
		for i, v := range right {
			expected := float32(i+1) * 2.0
			if v != expected {
				t.Errorf("Right[%d]: expected %f, got %f", i, expected, v)
			}
		}

		chain.Reset()
		if p.resetCount != 1 {
			t.Errorf("Expected 1 reset, got %d", p.resetCount)
		}
	})

	t.Run("NilChain", func(t *testing.T) {
		var chain *StereoChain
		chain.ProcessStereo([]float32{1}, []float32{1})
		if chain.Len() != 0 {
			t.Error("nil chain should be empty")
		}
	})
}

func TestStereoBuilder(t *testing.T) {
	t.Run("ValidBuild", func(t *testing.T) {
		chain, err := NewStereoBuilder("bus").
			WithProcessor(dynamics.NewCompressor(48000)).
			WithProcessor(utility.NewDCBlocker(2, 10, 48000)).
			WithProcessor(StereoFunc(func(l, r []float32) {})).
			Build()
		if err != nil {
			t.Errorf("Build failed: %v", err)
		}
		if chain.Len() != 3 {
			t.Errorf("Expected 3 processors, got %d", chain.Len())
		}
		if chain.Name() != "bus" {
			t.Errorf("Expected name bus, got %s", chain.Name())
		}
	})

	t.Run("NilProcessor", func(t *testing.T) {
		_, err := NewStereoBuilder("test").WithProcessor(nil).Build()
		if err == nil {
			t.Error("Expected error for nil processor")
		}
	})
}

func TestWidthStage(t *testing.T) {
	w := param.NewAtomic("width", 0, 1, 1)
	stage := NewWidthStage(w)

	left := []float32{1, 1}
	right := []float32{0, 0}
	stage.ProcessStereo(left, right)
	if left[0] != 1 || right[0] != 0 {
		t.Error("full width should pass through")
	}

	w.Set(0)
	stage.ProcessStereo(left, right)
	if left[0] != 0.5 || right[0] != 0.5 {
		t.Errorf("mono should fold to 0.5/0.5, got %f/%f", left[0], right[0])
	}
}

func TestClipStage(t *testing.T) {
	left := []float32{4}
	right := []float32{-4}
	ClipStage{Threshold: 0.9}.ProcessStereo(left, right)
	if left[0] > 0.9 || right[0] < -0.9 {
		t.Errorf("clip stage exceeded threshold: %f %f", left[0], right[0])
	}
}

func TestChainNoAllocs(t *testing.T) {
	chain, _ := NewStereoBuilder("bench").
		WithProcessor(dynamics.NewCompressor(48000)).
		WithProcessor(ClipStage{Threshold: 0.95}).
		Build()
	left := make([]float32, 512)
	right := make([]float32, 512)
	allocs := testing.AllocsPerRun(50, func() {
		chain.ProcessStereo(left, right)
	})
	if allocs != 0 {
		t.Errorf("Expected 0 allocations, got %f", allocs)
	}
}
