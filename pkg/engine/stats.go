package engine

import (
	"github.com/justyntemme/cityaudio/pkg/ambience"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/voice"
	"github.com/justyntemme/cityaudio/pkg/spatial"
)

// Stats is a diagnostic snapshot of the engine.
type Stats struct {
	Tick  uint64 `json:"tick"`
	Frame int64  `json:"frame"`

	Voices voice.Stats `json:"voices"`

	Emitters      int            `json:"emitters"`
	Sources       int            `json:"sources"`
	ActivePerTier map[string]int `json:"active_per_tier"`
	ListenerTier  string         `json:"listener_tier"`
	Regions       int            `json:"regions"`
	Coarse        bool           `json:"coarse"`
	Rebuilds      uint64         `json:"rebuilds"`

	Section         string  `json:"section"`
	Mood            string  `json:"mood"`
	MoodIntensity   float64 `json:"mood_intensity"`
	Transitions     uint64  `json:"transitions"`
	StingersPlayed  uint64  `json:"stingers_played"`
	StingersDropped uint64  `json:"stingers_dropped"`
	Ducks           int     `json:"ducks"`

	Ambience map[string]float64 `json:"ambience"`

	UIPlayed   uint64 `json:"ui_played"`
	UIFiltered uint64 `json:"ui_filtered"`

	PeakDB       float64 `json:"peak_db"`
	RMSDB        float64 `json:"rms_db"`
	CallbackLoad float64 `json:"callback_load"`
	Callbacks    uint64  `json:"callbacks"`
	Overruns     uint64  `json:"overruns"`
}

// collect refreshes the control-side half of the stats.
func (e *Engine) collect() {
	active := e.registry.CountActive()
	perTier := make(map[string]int, spatial.TierCount)
	for t, n := range active {
		perTier[spatial.Tier(t).String()] = n
	}
	levels := e.soundscape.Levels()
	amb := make(map[string]float64, ambience.LayerCount)
	for l, v := range levels {
		amb[ambience.Layer(l).String()] = v
	}
	mood := e.director.Mood()

	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats = Stats{
		Tick:            e.ticks,
		Voices:          e.pool.Stats(),
		Emitters:        e.registry.Len(),
		Sources:         e.registry.Sources(),
		ActivePerTier:   perTier,
		ListenerTier:    e.tier.String(),
		Regions:         len(e.aggregator.Regions()),
		Coarse:          e.aggregator.IsCoarse(),
		Rebuilds:        e.aggregator.Rebuilds(),
		Section:         e.director.Section().String(),
		Mood:            mood.Mood.String(),
		MoodIntensity:   mood.Intensity,
		Transitions:     e.director.Sequencer().Transitions(),
		StingersPlayed:  e.director.Stingers().TotalPlayed(),
		StingersDropped: e.director.Stingers().Dropped(),
		Ducks:           e.ducks.Active(),
		Ambience:        amb,
		UIPlayed:        e.uiPlayed,
		UIFiltered:      e.uiFiltered,
	}
}

// Stats returns the latest diagnostics. It is safe to call from any
// goroutine.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	s := e.stats
	e.statsMu.Unlock()

	s.Frame = e.transport.Frame()
	s.PeakDB = e.meter.PeakDB()
	s.RMSDB = e.meter.RMSDB()
	s.CallbackLoad = e.load.Load()
	s.Callbacks = e.load.Calls()
	s.Overruns = e.load.Overruns()
	return s
}

// Buses returns every bus's volume, duck gain and effective gain. It is
// safe to call from any goroutine.
func (e *Engine) Buses() []bus.Level {
	return e.graph.Levels()
}
