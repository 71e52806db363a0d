package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	wav "github.com/youpy/go-wav"
)

var (
	// ErrUnsupportedFormat is returned for files that are not PCM or float WAV.
	ErrUnsupportedFormat = errors.New("assets: unsupported format")
	// ErrEmptyBank is returned for sounds with no samples and banks with no
	// variants.
	ErrEmptyBank = errors.New("assets: empty bank")
)

// Sound is a decoded mono sample resident in memory.
type Sound struct {
	Name       string
	Samples    []float32
	SampleRate float64
}

// Duration returns the length in seconds.
func (s *Sound) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / s.SampleRate
}

// Decode reads a WAV file, folds it to mono and resamples it to sampleRate
// when sampleRate is positive.
func Decode(name string, data []byte, sampleRate float64) (*Sound, error) {
	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrUnsupportedFormat, err)
	}
	switch {
	case format.NumChannels == 0 || format.NumChannels > 2:
		return nil, fmt.Errorf("%s: %w: %d channels", name, ErrUnsupportedFormat, format.NumChannels)
	case format.SampleRate == 0:
		return nil, fmt.Errorf("%s: %w: zero sample rate", name, ErrUnsupportedFormat)
	case format.AudioFormat == wav.AudioFormatPCM:
		if format.BitsPerSample%8 != 0 || format.BitsPerSample > 32 {
			return nil, fmt.Errorf("%s: %w: %d-bit PCM", name, ErrUnsupportedFormat, format.BitsPerSample)
		}
	case format.AudioFormat == wav.AudioFormatIEEEFloat:
		if format.BitsPerSample != 32 {
			return nil, fmt.Errorf("%s: %w: %d-bit float", name, ErrUnsupportedFormat, format.BitsPerSample)
		}
	default:
		return nil, fmt.Errorf("%s: %w: format tag %d", name, ErrUnsupportedFormat, format.AudioFormat)
	}

	channels := uint(format.NumChannels)
	var mono []float32
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: reading samples: %w", name, err)
		}
		for _, s := range samples {
			var sum float64
			for ch := uint(0); ch < channels; ch++ {
				sum += r.FloatValue(s, ch)
			}
			mono = append(mono, float32(sum/float64(channels)))
		}
	}
	if len(mono) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyBank)
	}

	snd := &Sound{Name: name, Samples: mono, SampleRate: float64(format.SampleRate)}
	if sampleRate > 0 && math.Abs(sampleRate-snd.SampleRate) > 0.5 {
		snd.Samples = Resample(snd.Samples, snd.SampleRate, sampleRate)
		snd.SampleRate = sampleRate
	}
	return snd, nil
}

// Resample converts src from rate from to rate to with linear
// interpolation. Sounds are resampled once at load time.
func Resample(src []float32, from, to float64) []float32 {
	if len(src) == 0 || from <= 0 || to <= 0 {
		return src
	}
	n := int(math.Round(float64(len(src)) * to / from))
	if n < 1 {
		n = 1
	}
	dst := make([]float32, n)
	step := from / to
	last := len(src) - 1
	for i := range dst {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			dst[i] = src[last]
			continue
		}
		frac := float32(pos - float64(j))
		dst[i] = src[j] + (src[j+1]-src[j])*frac
	}
	return dst
}
