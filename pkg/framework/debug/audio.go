package debug

import (
	"fmt"
	"math"
)

// AnalysisResult summarises an audio buffer.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	NaNCount       int
	Silent         bool
}

// Clipping reports whether any sample reached the clip threshold.
func (r AnalysisResult) Clipping() bool { return r.ClippedSamples > 0 }

// String formats the result for log lines.
func (r AnalysisResult) String() string {
	return fmt.Sprintf("peak=%.3f rms=%.3f dc=%.4f clipped=%d nan=%d silent=%t",
		r.Peak, r.RMS, r.DC, r.ClippedSamples, r.NaNCount, r.Silent)
}

// AnalyzeBuffer inspects a rendered buffer for NaN, clipping, DC offset and
// silence. It is meant for tests and offline renders, not the audio callback.
func AnalyzeBuffer(buffer []float32, clipThreshold float32) AnalysisResult {
	result := AnalysisResult{}
	if len(buffer) == 0 {
		result.Silent = true
		return result
	}

	var sum, sumSquares float64
	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) || math.IsInf(float64(sample), 0) {
			result.NaNCount++
			continue
		}
		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > result.Peak {
			result.Peak = abs
		}
		if abs >= clipThreshold {
			result.ClippedSamples++
		}
		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)
	}

	result.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	result.DC = float32(sum / float64(len(buffer)))
	result.Silent = result.RMS < 1e-4
	return result
}
