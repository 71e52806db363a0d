package engine

import (
	"github.com/justyntemme/cityaudio/pkg/framework/voice"
	"github.com/justyntemme/cityaudio/pkg/music"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// MixFrame is everything the audio context needs from one control tick.
// Frames are preallocated inside the triple buffer and overwritten in
// place, so publishing never allocates.
type MixFrame struct {
	Seq    uint64
	Voices []voice.Voice // slot table copy, len = pool size
	Music  music.Frame
}

func newMixFrame(voices int) func(*MixFrame) {
	return func(f *MixFrame) {
		f.Voices = make([]voice.Voice, voices)
	}
}

// Camera is the player's view onto the city.
type Camera struct {
	Pos          sim.Vec2
	ViewDistance float64
}
