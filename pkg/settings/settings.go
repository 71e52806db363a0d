// Package settings holds the player's audio preferences and persists them in
// an embedded SQLite key/value table.
package settings

import (
	"fmt"
	"math"
	"strings"

	"github.com/justyntemme/cityaudio/pkg/framework/bus"
)

// Verbosity filters UI notification sounds.
type Verbosity int

const (
	All Verbosity = iota
	Important
	CriticalOnly
)

// String returns the verbosity name.
func (v Verbosity) String() string {
	switch v {
	case All:
		return "all"
	case Important:
		return "important"
	case CriticalOnly:
		return "critical"
	}
	return "unknown"
}

// ParseVerbosity maps a name to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return All, nil
	case "important":
		return Important, nil
	case "critical", "critical-only", "criticalonly":
		return CriticalOnly, nil
	}
	return All, fmt.Errorf("unknown verbosity %q", s)
}

// OutputMode selects the stereo presentation.
type OutputMode int

const (
	Headphones OutputMode = iota
	Speakers
)

// String returns the mode name.
func (m OutputMode) String() string {
	switch m {
	case Headphones:
		return "headphones"
	case Speakers:
		return "speakers"
	}
	return "unknown"
}

// ParseOutputMode maps a name to an OutputMode.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "headphones":
		return Headphones, nil
	case "speakers":
		return Speakers, nil
	}
	return Headphones, fmt.Errorf("unknown output mode %q", s)
}

// Settings are the user's audio preferences.
type Settings struct {
	// Volumes holds a percentage in [0, 100] per bus.
	Volumes   [bus.Count]float64 `json:"volumes"`
	Verbosity Verbosity          `json:"verbosity"`
	Mono      bool               `json:"mono"`
	Output    OutputMode         `json:"output"`
	Spatial   bool               `json:"spatial"`
}

// Default returns the settings of a fresh install.
func Default() Settings {
	s := Settings{Verbosity: All, Output: Headphones, Spatial: true}
	for i := range s.Volumes {
		s.Volumes[i] = 100
	}
	s.Volumes[bus.Music] = 70
	s.Volumes[bus.Ambience] = 80
	s.Volumes[bus.UI] = 80
	return s
}

// Clamp forces every field into range.
func (s *Settings) Clamp() {
	for i, v := range s.Volumes {
		if math.IsNaN(v) {
			v = 100
		}
		s.Volumes[i] = math.Max(0, math.Min(100, v))
	}
	if s.Verbosity < All || s.Verbosity > CriticalOnly {
		s.Verbosity = All
	}
	if s.Output != Headphones && s.Output != Speakers {
		s.Output = Headphones
	}
}

// Gain returns the volume of id as a linear factor in [0, 1].
func (s *Settings) Gain(id bus.ID) float64 {
	if !id.Valid() {
		return 0
	}
	return math.Max(0, math.Min(1, s.Volumes[id]/100))
}

// Apply writes every bus volume into g.
func (s *Settings) Apply(g *bus.Graph) {
	for _, id := range bus.All() {
		g.SetVolume(id, s.Gain(id))
	}
}
