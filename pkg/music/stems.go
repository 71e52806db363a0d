package music

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/framework/param"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// Role is one instrumental layer of the score.
type Role int

const (
	Foundation Role = iota
	Harmonic
	Rhythmic
	Bass
	Melodic
	Accent
	Tension

	// RoleCount is the number of stem roles.
	RoleCount
)

var roleNames = [RoleCount]string{"foundation", "harmonic", "rhythmic", "bass", "melodic", "accent", "tension"}

// String returns the role name.
func (r Role) String() string {
	if r < 0 || r >= RoleCount {
		return "unknown"
	}
	return roleNames[r]
}

// PopulationTier buckets the city's size.
type PopulationTier int

const (
	Hamlet PopulationTier = iota
	Village
	Town
	City
	Metropolis

	// PopulationTierCount is the number of tiers.
	PopulationTierCount
)

// String returns the tier name.
func (p PopulationTier) String() string {
	switch p {
	case Hamlet:
		return "hamlet"
	case Village:
		return "village"
	case Town:
		return "town"
	case City:
		return "city"
	case Metropolis:
		return "metropolis"
	}
	return "unknown"
}

// StemConfig controls stem targets and smoothing.
type StemConfig struct {
	// TierThresholds holds the minimum population of each tier.
	TierThresholds [PopulationTierCount]int `json:"tier_thresholds"`
	// HarmonyHappiness is the happiness at which harmonic and melodic
	// layers open fully.
	HarmonyHappiness float64 `json:"harmony_happiness"`
	// Tau is the smoothing time constant for ordinary stems in seconds.
	Tau float64 `json:"tau"`
	// TensionOnsetTau is the fast time constant for rising tension.
	TensionOnsetTau float64 `json:"tension_onset_tau"`
	// ReliefBars is how many bars tension takes to settle after a crisis.
	ReliefBars float64 `json:"relief_bars"`
	// TensionCeiling is the tension target during a disaster or crisis.
	TensionCeiling float64 `json:"tension_ceiling"`
}

// DefaultStemConfig returns production stem settings.
func DefaultStemConfig() StemConfig {
	return StemConfig{
		TierThresholds:   [PopulationTierCount]int{0, 500, 2000, 15000, 60000},
		HarmonyHappiness: 60,
		Tau:              1.2,
		TensionOnsetTau:  0.15,
		ReliefBars:       4,
		TensionCeiling:   1,
	}
}

// TierFor returns the population tier of pop.
func (c *StemConfig) TierFor(pop int) PopulationTier {
	t := Hamlet
	for i := Village; i < PopulationTierCount; i++ {
		if pop >= c.TierThresholds[i] {
			t = i
		}
	}
	return t
}

// Targets is a volume per stem role.
type Targets [RoleCount]float64

// StemTargets derives stem target volumes from the snapshot and the
// current mood. It has no side effects.
func StemTargets(s *sim.Snapshot, mood MoodState, cfg *StemConfig) Targets {
	var t Targets
	tier := cfg.TierFor(s.Population)
	happy := s.Happiness >= cfg.HarmonyHappiness
	night := isNight(s.Hour)

	t[Foundation] = 0.8
	if tier >= Village {
		t[Bass] = 0.6
		t[Rhythmic] = 0.3 + 0.1*float64(tier)
	}
	if tier >= Town {
		if happy {
			t[Harmonic] = 0.7
			t[Melodic] = 0.55 + 0.05*float64(tier-Town)
		} else {
			t[Harmonic] = 0.35
		}
	}
	if tier >= City {
		t[Accent] = 0.4
	}

	switch s.Season {
	case sim.Summer:
		t[Accent] += 0.1
	case sim.Winter:
		t[Rhythmic] *= 0.8
		t[Accent] -= 0.1
	}
	if night {
		t[Foundation] = 0.65
		t[Rhythmic] *= 0.5
	}

	switch mood.Mood {
	case MainMenu:
		t = Targets{Foundation: 0.7, Harmonic: 0.5}
	case Paused:
		for i := range t {
			t[i] *= 0.2
		}
	case NightCalm:
		t[Rhythmic] *= 0.6
		t[Melodic] *= 0.7
	case Energetic:
		t[Rhythmic] += 0.2 * mood.Intensity
	case Milestone:
		t[Accent] = 0.9
	}

	crisis := crisisLevel(s, mood)
	if crisis > 0 {
		t[Tension] = cfg.TensionCeiling * crisis
		t[Harmonic] *= 1 - 0.7*crisis
		t[Melodic] *= 1 - crisis
		t[Accent] = 0
	}

	for i := range t {
		t[i] = math.Max(0, math.Min(1, t[i]))
	}
	return t
}

// crisisLevel is 1 during a disaster or declared crisis and the mood
// intensity during a budget crisis.
func crisisLevel(s *sim.Snapshot, mood MoodState) float64 {
	if s.App != sim.Playing {
		return 0
	}
	if s.InDisaster() {
		return 1
	}
	if mood.Mood == Crisis {
		return mood.Intensity
	}
	return 0
}

// Stems tracks current and target stem volumes.
type Stems struct {
	Current Targets
	Target  Targets
}

// SetTargets replaces the targets.
func (s *Stems) SetTargets(t Targets) {
	s.Target = t
}

// Advance moves current volumes toward targets. Tension rises with the fast
// onset constant and falls across ReliefBars bars; every other role uses
// Tau. The step is exponential and independent of tick rate.
func (s *Stems) Advance(dt, barSeconds float64, cfg *StemConfig) {
	for r := Role(0); r < RoleCount; r++ {
		tau := cfg.Tau
		if r == Tension {
			if s.Target[r] > s.Current[r] {
				tau = cfg.TensionOnsetTau
			} else {
				tau = ReliefTau(cfg.ReliefBars, barSeconds)
			}
		}
		s.Current[r] = param.Approach(s.Current[r], s.Target[r], dt, tau)
	}
}

// reliefResidual is the fraction left when a relief counts as complete.
const reliefResidual = 0.01

// ReliefTau returns the time constant that brings tension to within 1 % of
// its target after bars bars.
func ReliefTau(bars, barSeconds float64) float64 {
	if bars < 4 {
		bars = 4
	}
	return bars * barSeconds / -math.Log(reliefResidual)
}

// Reset silences every stem.
func (s *Stems) Reset() {
	*s = Stems{}
}
