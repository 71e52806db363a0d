package dsp

import (
	"github.com/justyntemme/cityaudio/pkg/dsp/gain"
	"github.com/justyntemme/cityaudio/pkg/dsp/pan"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
)

// WidthStage narrows the stereo image according to an atomic width value
// (0 = mono, 1 = full stereo). The value is read once per block.
type WidthStage struct {
	width *param.Atomic
}

// NewWidthStage creates a width stage reading w.
func NewWidthStage(w *param.Atomic) *WidthStage {
	return &WidthStage{width: w}
}

// ProcessStereo applies the current width.
func (s *WidthStage) ProcessStereo(left, right []float32) {
	w := s.width.Value32()
	if w >= 1 {
		return
	}
	pan.Width(left, right, w)
}

// Reset is a no-op; the stage is stateless.
func (s *WidthStage) Reset() {}

// ClipStage soft-clips both channels above a threshold.
type ClipStage struct {
	Threshold float32
}

// ProcessStereo soft-clips in place.
func (s ClipStage) ProcessStereo(left, right []float32) {
	gain.SoftClipBuffer(left, s.Threshold)
	gain.SoftClipBuffer(right, s.Threshold)
}

// Reset is a no-op; the stage is stateless.
func (s ClipStage) Reset() {}
