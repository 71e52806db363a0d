package engine

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/ambience"
	"github.com/justyntemme/cityaudio/pkg/dsp"
	"github.com/justyntemme/cityaudio/pkg/dsp/dynamics"
	"github.com/justyntemme/cityaudio/pkg/ducking"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/voice"
	"github.com/justyntemme/cityaudio/pkg/music"
	"github.com/justyntemme/cityaudio/pkg/settings"
	"github.com/justyntemme/cityaudio/pkg/spatial"
)

// BusDynamics installs a compressor on one bus.
type BusDynamics struct {
	Bus      bus.ID            `json:"bus"`
	Settings dynamics.Settings `json:"settings"`
}

// Levels sets the relative loudness of the engine's built-in sources.
type Levels struct {
	Area      float64 `json:"area"`      // zone loops of a region
	CityMix   float64 `json:"city_mix"`  // zone loops of the coarse city mix
	Nature    float64 `json:"nature"`    // environmental nature loop
	Night     float64 `json:"night"`     // environmental night loop
	Wind      float64 `json:"wind"`      // procedural wind at full weather
	Rain      float64 `json:"rain"`      // procedural rain at full weather
	Traffic   float64 `json:"traffic"`   // procedural traffic hum
	Crowd     float64 `json:"crowd"`     // procedural crowd murmur
	UI        float64 `json:"ui"`        // UI sounds
	MinLayer  float64 `json:"min_layer"` // layer gain below which a loop is released
	ClipLevel float64 `json:"clip_level"`
}

// Config aggregates every engine tunable.
type Config struct {
	SampleRate float64 `json:"sample_rate"`
	MaxBlock   int     `json:"max_block"` // largest block rendered in one pass
	Seed       int64   `json:"seed"`

	Voice    voice.Config    `json:"voice"`
	Spatial  spatial.Config  `json:"spatial"`
	Ducking  []ducking.Rule  `json:"ducking"`
	Music    music.Config    `json:"music"`
	Ambience ambience.Config `json:"ambience"`
	Dynamics []BusDynamics   `json:"dynamics"`
	Levels   Levels          `json:"levels"`

	// SpeakerWidth is the stereo width used in speaker output mode.
	SpeakerWidth float64 `json:"speaker_width"`
	// StingerHold is how long a stinger ducks the stems when its sound
	// has no known duration.
	StingerHold float64 `json:"stinger_hold"`
	// NotificationHold is how long a notification ducks music.
	NotificationHold float64 `json:"notification_hold"`

	Settings settings.Settings `json:"settings"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		MaxBlock:   dsp.DefaultBlockSize,
		Seed:       1,
		Voice:      voice.DefaultConfig(),
		Spatial:    spatial.DefaultConfig(),
		Ducking:    ducking.DefaultRules(),
		Music:      music.DefaultConfig(),
		Ambience:   ambience.DefaultConfig(),
		Dynamics: []BusDynamics{
			{Bus: bus.SFX, Settings: dynamics.Settings{ThresholdDB: -14, Ratio: 3, Attack: 0.005, Release: 0.12, KneeDB: 4}},
			{Bus: bus.Ambience, Settings: dynamics.Settings{ThresholdDB: -18, Ratio: 2, Attack: 0.02, Release: 0.3, KneeDB: 6}},
		},
		Levels: Levels{
			Area:      0.8,
			CityMix:   0.6,
			Nature:    0.7,
			Night:     0.6,
			Wind:      0.5,
			Rain:      0.6,
			Traffic:   0.5,
			Crowd:     0.35,
			UI:        0.8,
			MinLayer:  0.005,
			ClipLevel: 0.95,
		},
		SpeakerWidth:     0.7,
		StingerHold:      2,
		NotificationHold: 0.8,
		Settings:         settings.Default(),
	}
}

// Validate replaces invalid values with defaults and validates every
// sub-configuration.
func (c *Config) Validate() {
	def := DefaultConfig()
	if c.SampleRate < 8000 || c.SampleRate > 384000 || math.IsNaN(c.SampleRate) {
		c.SampleRate = def.SampleRate
	}
	if c.MaxBlock <= 0 || c.MaxBlock > dsp.MaxBlockSize {
		c.MaxBlock = def.MaxBlock
	}
	if c.Voice.Voices <= 0 {
		c.Voice.Voices = def.Voice.Voices
	}
	c.Spatial.Validate()
	if c.Ducking == nil {
		c.Ducking = def.Ducking
	}
	c.Music.Validate()
	if c.Ambience.Interval <= 0 {
		c.Ambience.Interval = def.Ambience.Interval
	}
	if c.Ambience.Fade <= 0 {
		c.Ambience.Fade = def.Ambience.Fade
	}
	for i := range c.Dynamics {
		d := &c.Dynamics[i]
		if !d.Bus.Valid() {
			d.Bus = bus.Master
		}
		if d.Settings.Ratio < 1 {
			d.Settings.Ratio = 1
		}
	}
	if c.Levels.MinLayer <= 0 {
		c.Levels.MinLayer = def.Levels.MinLayer
	}
	if c.Levels.ClipLevel <= 0 || c.Levels.ClipLevel > 1 {
		c.Levels.ClipLevel = def.Levels.ClipLevel
	}
	if c.SpeakerWidth < 0 || c.SpeakerWidth > 1 || math.IsNaN(c.SpeakerWidth) {
		c.SpeakerWidth = def.SpeakerWidth
	}
	if c.StingerHold <= 0 {
		c.StingerHold = def.StingerHold
	}
	if c.NotificationHold <= 0 {
		c.NotificationHold = def.NotificationHold
	}
	c.Settings.Clamp()
}
