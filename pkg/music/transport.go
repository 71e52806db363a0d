// Package music implements the adaptive score: a shared transport clock,
// vertical stem mixing, a bar-quantised section sequencer, mood tracking
// and stingers. Control-side types are driven once per tick; Renderer runs
// in the audio callback.
package music

import (
	"math"
	"sync/atomic"
)

// Transport is the musical clock shared by every stem. Tempo and meter are
// fixed for its lifetime so all stems stay bar-aligned. The frame counter
// is advanced by the audio callback and read by the control context.
type Transport struct {
	tempo       float64
	beatsPerBar int
	sampleRate  float64
	beatFrames  float64

	frame atomic.Int64
}

// NewTransport creates a transport at frame 0.
func NewTransport(bpm float64, beatsPerBar int, sampleRate float64) *Transport {
	if bpm <= 0 || math.IsNaN(bpm) {
		bpm = 120
	}
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		sampleRate = 48000
	}
	return &Transport{
		tempo:       bpm,
		beatsPerBar: beatsPerBar,
		sampleRate:  sampleRate,
		beatFrames:  sampleRate * 60 / bpm,
	}
}

// Tempo returns beats per minute.
func (t *Transport) Tempo() float64 { return t.tempo }

// BeatsPerBar returns the meter.
func (t *Transport) BeatsPerBar() int { return t.beatsPerBar }

// SampleRate returns the frame rate.
func (t *Transport) SampleRate() float64 { return t.sampleRate }

// FramesPerBeat returns the beat length in frames.
func (t *Transport) FramesPerBeat() float64 { return t.beatFrames }

// FramesPerBar returns the bar length in frames.
func (t *Transport) FramesPerBar() float64 { return t.beatFrames * float64(t.beatsPerBar) }

// BeatSeconds returns the beat length in seconds.
func (t *Transport) BeatSeconds() float64 { return 60 / t.tempo }

// BarSeconds returns the bar length in seconds.
func (t *Transport) BarSeconds() float64 { return t.BeatSeconds() * float64(t.beatsPerBar) }

// Advance moves the clock forward by n frames. Audio context only.
func (t *Transport) Advance(n int) {
	if n > 0 {
		t.frame.Add(int64(n))
	}
}

// Frame returns the current frame.
func (t *Transport) Frame() int64 { return t.frame.Load() }

// Seek moves the clock to frame.
func (t *Transport) Seek(frame int64) {
	if frame < 0 {
		frame = 0
	}
	t.frame.Store(frame)
}

// BeatAt returns the beat index containing frame.
func (t *Transport) BeatAt(frame int64) int64 {
	return int64(math.Floor(float64(frame) / t.beatFrames))
}

// BarAt returns the bar index containing frame.
func (t *Transport) BarAt(frame int64) int64 {
	return int64(math.Floor(float64(frame) / t.FramesPerBar()))
}

// BarFrame returns the first frame of bar.
func (t *Transport) BarFrame(bar int64) int64 {
	return int64(math.Round(float64(bar) * t.FramesPerBar()))
}

// BeatFrame returns the first frame of beat.
func (t *Transport) BeatFrame(beat int64) int64 {
	return int64(math.Round(float64(beat) * t.beatFrames))
}

// NextBar returns the first bar boundary at or after frame: its bar index
// and start frame.
func (t *Transport) NextBar(frame int64) (bar, start int64) {
	bar = t.BarAt(frame)
	if f := t.BarFrame(bar); f >= frame {
		return bar, f
	}
	return bar + 1, t.BarFrame(bar + 1)
}

// NextBarFrame returns the first bar boundary at or after frame.
func (t *Transport) NextBarFrame(frame int64) int64 {
	_, f := t.NextBar(frame)
	return f
}

// NextBeatFrame returns the first beat boundary at or after frame.
func (t *Transport) NextBeatFrame(frame int64) int64 {
	beat := t.BeatAt(frame)
	if f := t.BeatFrame(beat); f >= frame {
		return f
	}
	return t.BeatFrame(beat + 1)
}

// IsBarBoundary reports whether frame starts a bar.
func (t *Transport) IsBarBoundary(frame int64) bool {
	return t.BarFrame(t.BarAt(frame)) == frame || t.BarFrame(t.BarAt(frame)+1) == frame
}

// Seconds converts frames to seconds.
func (t *Transport) Seconds(frames int64) float64 {
	return float64(frames) / t.sampleRate
}
