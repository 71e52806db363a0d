// Package output connects the engine's audio callback to a sound device.
package output

import (
	"encoding/binary"
	"math"

	"github.com/justyntemme/cityaudio/pkg/dsp"
)

// Renderer produces stereo float32 frames. engine.Engine implements it.
type Renderer interface {
	Process(left, right []float32)
}

// bytesPerFrame is one interleaved stereo float32 frame.
const bytesPerFrame = 8

// Reader pulls frames from a Renderer and encodes them as interleaved
// little-endian float32 stereo, the layout the device player consumes.
// Read never allocates.
type Reader struct {
	r           Renderer
	left, right []float32
	frames      uint64
}

// NewReader creates a reader rendering at most block frames per pass.
func NewReader(r Renderer, block int) *Reader {
	if block <= 0 {
		block = dsp.DefaultBlockSize
	}
	return &Reader{
		r:     r,
		left:  make([]float32, block),
		right: make([]float32, block),
	}
}

// Read fills p with whole frames. A trailing partial frame is left
// unwritten and not counted.
func (rd *Reader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	written := 0
	for frames > 0 {
		n := min(frames, len(rd.left))
		l, r := rd.left[:n], rd.right[:n]
		dsp.Clear(l)
		dsp.Clear(r)
		rd.r.Process(l, r)
		for i := 0; i < n; i++ {
			off := written + i*bytesPerFrame
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(l[i]))
			binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(r[i]))
		}
		written += n * bytesPerFrame
		frames -= n
		rd.frames += uint64(n)
	}
	return written, nil
}

// Frames returns the number of frames rendered so far. Not safe to call
// concurrently with Read.
func (rd *Reader) Frames() uint64 {
	return rd.frames
}
