package dsp

// Engine-wide audio constants.
const (
	// Gain/Level constants
	MinDB     = -200.0 // Minimum dB value (effectively silence)
	UnityGain = 1.0

	// Dynamics ranges used by bus compressors
	DefaultMinThresholdDB = -60.0
	DefaultMaxThresholdDB = 0.0
	DefaultMinRatio       = 1.0
	DefaultMaxRatio       = 20.0
	DefaultMinAttack      = 0.0001 // 0.1ms
	DefaultMaxAttack      = 1.0
	DefaultMinRelease     = 0.001
	DefaultMaxRelease     = 5.0

	// Frequency ranges
	MinFrequency = 20.0
	MaxFrequency = 20000.0
	DefaultQ     = 0.707 // Butterworth response

	// Channel counts
	Mono   = 1
	Stereo = 2

	// Common sample rates
	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0

	// Block sizes. The mixer processes at most MaxBlockSize frames at a time
	// and splits larger device requests.
	MinBlockSize     = 32
	DefaultBlockSize = 512
	MaxBlockSize     = 4096

	// Declick ramp applied when a voice slot is reused.
	DeclickSeconds = 0.005

	TwoPi  = 6.283185307179586
	Pi     = 3.141592653589793
	HalfPi = 1.5707963267948966

	Epsilon = 1e-6

	SoftClipThreshold = 0.95
)
