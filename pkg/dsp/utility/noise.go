// Package utility provides noise sources and small utility processors.
package utility

import (
	"math/rand"
)

// NoiseType represents different types of noise.
type NoiseType int

const (
	// WhiteNoise has equal energy at all frequencies
	WhiteNoise NoiseType = iota
	// PinkNoise has equal energy per octave (1/f spectrum)
	PinkNoise
	// BrownNoise has 1/f² spectrum (Brownian noise)
	BrownNoise
)

// NoiseGenerator generates various types of noise. Next never allocates,
// so a generator can run inside the audio callback.
type NoiseGenerator struct {
	noiseType NoiseType

	// Pink noise state (Voss-McCartney algorithm)
	pinkRows       [16]float32
	pinkRunningSum float32
	pinkIndex      int
	pinkScalar     float32

	// Brown noise state
	brownState float32

	rand *rand.Rand
}

// NewNoiseGenerator creates a noise generator with a fixed seed so that
// renders are reproducible.
func NewNoiseGenerator(noiseType NoiseType, seed int64) *NoiseGenerator {
	gen := &NoiseGenerator{
		noiseType:  noiseType,
		rand:       rand.New(rand.NewSource(seed)),
		pinkScalar: 1.0 / 6.0,
	}
	gen.Reset()
	return gen
}

// Next generates the next noise sample in [-1, 1].
func (n *NoiseGenerator) Next() float32 {
	switch n.noiseType {
	case PinkNoise:
		return n.generatePink()
	case BrownNoise:
		return n.generateBrown()
	default:
		return n.randomFloat()
	}
}

// Uniform returns a uniform sample in [0, 1) from the generator's source.
func (n *NoiseGenerator) Uniform() float32 {
	return float32(n.rand.Float64())
}

// Generate fills a buffer with noise.
func (n *NoiseGenerator) Generate(buffer []float32) {
	for i := range buffer {
		buffer[i] = n.Next()
	}
}

// Reset resets the generator state.
func (n *NoiseGenerator) Reset() {
	n.brownState = 0
	n.pinkIndex = 0
	n.pinkRunningSum = 0
	for i := range n.pinkRows {
		n.pinkRows[i] = n.randomFloat()
		n.pinkRunningSum += n.pinkRows[i]
	}
}

// randomFloat generates a random float32 in range [-1, 1].
func (n *NoiseGenerator) randomFloat() float32 {
	return float32(n.rand.Float64()*2.0 - 1.0)
}

// generatePink generates pink noise using Voss-McCartney algorithm.
func (n *NoiseGenerator) generatePink() float32 {
	n.pinkIndex = (n.pinkIndex + 1) & 0xFFFF
	if n.pinkIndex != 0 {
		numZeros := 0
		temp := n.pinkIndex
		for (temp & 1) == 0 {
			temp >>= 1
			numZeros++
		}
		n.pinkRunningSum -= n.pinkRows[numZeros]
		n.pinkRows[numZeros] = n.randomFloat()
		n.pinkRunningSum += n.pinkRows[numZeros]
	}

	output := (n.pinkRunningSum + n.randomFloat()) * n.pinkScalar
	if output > 1.0 {
		output = 1.0
	} else if output < -1.0 {
		output = -1.0
	}
	return output
}

// generateBrown generates brown noise (integrated white noise).
func (n *NoiseGenerator) generateBrown() float32 {
	n.brownState += n.randomFloat() * 0.0625
	// Leaky integrator to prevent DC buildup
	n.brownState *= 0.997

	if n.brownState > 1.0 {
		n.brownState = 1.0
	} else if n.brownState < -1.0 {
		n.brownState = -1.0
	}
	return n.brownState
}
