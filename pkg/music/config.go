package music

import "math"

// Config holds every music tunable.
type Config struct {
	Tempo       float64       `json:"tempo"`
	BeatsPerBar int           `json:"beats_per_bar"`
	Stems       StemConfig    `json:"stems"`
	Sections    SectionConfig `json:"sections"`
	Mood        MoodConfig    `json:"mood"`
	Stingers    StingerConfig `json:"stingers"`
	StartIn     Section       `json:"start_in"`
}

// DefaultConfig returns production music settings.
func DefaultConfig() Config {
	return Config{
		Tempo:       96,
		BeatsPerBar: 4,
		Stems:       DefaultStemConfig(),
		Sections:    DefaultSectionConfig(),
		Mood:        DefaultMoodConfig(),
		Stingers:    DefaultStingerConfig(),
		StartIn:     SectionIntro,
	}
}

// Validate replaces out-of-range values with defaults.
func (c *Config) Validate() {
	def := DefaultConfig()
	if c.Tempo < 20 || c.Tempo > 300 || math.IsNaN(c.Tempo) {
		c.Tempo = def.Tempo
	}
	if c.BeatsPerBar < 1 || c.BeatsPerBar > 16 {
		c.BeatsPerBar = def.BeatsPerBar
	}
	if c.Stems.ReliefBars < 4 {
		c.Stems.ReliefBars = 4
	}
	if c.Stems.Tau <= 0 {
		c.Stems.Tau = def.Stems.Tau
	}
	if c.Stems.TensionOnsetTau <= 0 {
		c.Stems.TensionOnsetTau = def.Stems.TensionOnsetTau
	}
	if c.Stems.TensionCeiling <= 0 || c.Stems.TensionCeiling > 1 {
		c.Stems.TensionCeiling = def.Stems.TensionCeiling
	}
	for i := 1; i < len(c.Stems.TierThresholds); i++ {
		if c.Stems.TierThresholds[i] < c.Stems.TierThresholds[i-1] {
			c.Stems.TierThresholds = def.Stems.TierThresholds
			break
		}
	}
	for i, n := range c.Sections.MinBars {
		if n < 1 {
			c.Sections.MinBars[i] = def.Sections.MinBars[i]
		}
	}
	if c.Mood.Interval <= 0 {
		c.Mood.Interval = def.Mood.Interval
	}
	if c.Stingers.Depth <= 0 {
		c.Stingers.Depth = def.Stingers.Depth
	}
	for i := range c.Stingers.Specs {
		if c.Stingers.Specs[i].Cooldown < 0 {
			c.Stingers.Specs[i].Cooldown = 0
		}
	}
	if c.StartIn < 0 || c.StartIn >= SectionCount {
		c.StartIn = SectionIntro
	}
}
