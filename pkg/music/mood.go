package music

import (
	"math"

	"github.com/justyntemme/cityaudio/pkg/sim"
)

// Mood is the broad character the score should have.
type Mood int

const (
	MainMenu Mood = iota
	Peaceful
	Energetic
	NightCalm
	Crisis
	Milestone
	Paused
)

// String returns the mood name.
func (m Mood) String() string {
	switch m {
	case MainMenu:
		return "main-menu"
	case Peaceful:
		return "building-peaceful"
	case Energetic:
		return "building-energetic"
	case NightCalm:
		return "night-calm"
	case Crisis:
		return "crisis"
	case Milestone:
		return "milestone"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// MoodState is a mood with its intensity in [0, 1].
type MoodState struct {
	Mood      Mood    `json:"mood"`
	Intensity float64 `json:"intensity"`
}

// MoodConfig controls mood evaluation.
type MoodConfig struct {
	Interval        float64 `json:"interval"`         // seconds between evaluations
	MilestoneWindow float64 `json:"milestone_window"` // seconds a milestone mood lasts
	Transition      float64 `json:"transition"`       // seconds of mood crossfade
	EnergeticGrowth float64 `json:"energetic_growth"` // growth per evaluation
	DeficitScale    float64 `json:"deficit_scale"`    // treasury deficit for full crisis
}

// DefaultMoodConfig returns production mood settings.
func DefaultMoodConfig() MoodConfig {
	return MoodConfig{
		Interval:        5,
		MilestoneWindow: 15,
		Transition:      3,
		EnergeticGrowth: 0.02,
		DeficitScale:    10000,
	}
}

const (
	nightStart = 22.0
	nightEnd   = 5.0
)

func isNight(hour float64) bool {
	return hour >= nightStart || hour < nightEnd
}

// MoodTracker re-evaluates the mood on a slow interval. Crisis onset and
// app state changes are evaluated immediately.
type MoodTracker struct {
	cfg   MoodConfig
	state MoodState

	since         float64
	transition    float64
	milestoneLeft float64
	prevPop       int
	prevTier      int
	prevApp       sim.AppState
	prevCrisis    bool
	evaluated     bool
	tierKnown     bool
}

// NewMoodTracker creates a tracker in the main menu mood.
func NewMoodTracker(cfg MoodConfig) *MoodTracker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultMoodConfig().Interval
	}
	if cfg.DeficitScale <= 0 {
		cfg.DeficitScale = DefaultMoodConfig().DeficitScale
	}
	return &MoodTracker{cfg: cfg, state: MoodState{Mood: MainMenu, Intensity: 0.5}}
}

// State returns the current mood.
func (m *MoodTracker) State() MoodState {
	return m.state
}

// Transitioning returns the seconds left in the current mood crossfade.
func (m *MoodTracker) Transitioning() float64 {
	return m.transition
}

func inCrisis(s *sim.Snapshot) bool {
	return s.InDisaster() || s.Treasury < 0
}

// Update advances timers and re-evaluates when due. It reports whether the
// mood changed.
func (m *MoodTracker) Update(s *sim.Snapshot, dt float64) bool {
	if dt > 0 {
		m.since += dt
		m.transition = math.Max(0, m.transition-dt)
		m.milestoneLeft = math.Max(0, m.milestoneLeft-dt)
	}

	crisis := s.App == sim.Playing && inCrisis(s)
	due := !m.evaluated || m.since >= m.cfg.Interval || s.App != m.prevApp || (crisis && !m.prevCrisis)
	m.prevApp = s.App
	m.prevCrisis = crisis
	if !due {
		return false
	}
	m.since = 0
	before := m.state.Mood
	m.evaluate(s)
	return m.state.Mood != before
}

func (m *MoodTracker) set(mood Mood, intensity float64) {
	if m.state.Mood != mood {
		m.state.Mood = mood
		m.transition = m.cfg.Transition
	}
	m.state.Intensity = math.Max(0, math.Min(1, intensity))
}

func (m *MoodTracker) evaluate(s *sim.Snapshot) {
	m.evaluated = true

	switch s.App {
	case sim.MainMenu:
		m.set(MainMenu, 0.5)
		return
	case sim.Paused:
		m.set(Paused, 0.1)
		return
	}

	if !m.tierKnown {
		// A loaded city does not celebrate the tier it already has.
		m.prevTier = s.MilestoneTier
		m.tierKnown = true
	}
	if s.MilestoneTier > m.prevTier {
		m.prevTier = s.MilestoneTier
		m.milestoneLeft = m.cfg.MilestoneWindow
		m.prevPop = s.Population
		m.set(Milestone, 1)
		return
	}
	if m.milestoneLeft > 0 {
		m.prevPop = s.Population
		return
	}

	if inCrisis(s) {
		intensity := 0.9
		if !s.InDisaster() {
			intensity = math.Max(0.3, math.Min(0.8, -s.Treasury/m.cfg.DeficitScale))
		}
		m.prevPop = s.Population
		m.set(Crisis, intensity)
		return
	}

	if isNight(s.Hour) {
		m.prevPop = s.Population
		m.set(NightCalm, 0.4)
		return
	}

	growth := 0.0
	if m.prevPop > 0 {
		growth = float64(s.Population-m.prevPop) / float64(m.prevPop)
	}
	m.prevPop = s.Population
	if m.cfg.EnergeticGrowth > 0 && growth > m.cfg.EnergeticGrowth {
		m.set(Energetic, math.Max(0.5, math.Min(1, growth/(m.cfg.EnergeticGrowth*5))))
		return
	}

	peaceful := 0.3
	if s.Population > 0 {
		peaceful = math.Max(0.3, math.Min(0.7, float64(s.Population)/50000))
	}
	m.set(Peaceful, peaceful)
}

// Reset forgets history; the next Update evaluates immediately.
func (m *MoodTracker) Reset() {
	*m = MoodTracker{cfg: m.cfg, state: MoodState{Mood: MainMenu, Intensity: 0.5}}
}
