package spatial

import (
	"container/heap"
	"math"
	"slices"

	"github.com/justyntemme/cityaudio/pkg/dsp/mix"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// AggregatorConfig controls region aggregation.
type AggregatorConfig struct {
	ChunkSize    int            `json:"chunk_size"` // cells per region side
	Interval     float64        `json:"interval"`   // seconds between profile rebuilds
	TopN         [TierCount]int `json:"top_n"`      // live regions per listener tier
	RegionFade   float64        `json:"region_fade"`
	BoundaryBand float64        `json:"boundary_band"` // fraction of the audible radius
}

// DefaultAggregator returns the production settings.
func DefaultAggregator() AggregatorConfig {
	return AggregatorConfig{
		ChunkSize:    16,
		Interval:     2,
		TopN:         [TierCount]int{8, 6, 4, 0},
		RegionFade:   1.5,
		BoundaryBand: 0.15,
	}
}

// Coarse reports whether a listener tier uses the city-wide mix instead of
// per-region layers.
func Coarse(t Tier) bool {
	return t >= Abstract
}

// Ranked is a region profile index with its selection score.
type Ranked struct {
	Index int
	Score float64
}

// weaker orders by score, evicting the higher index first on ties.
func weaker(a, b Ranked) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Index > b.Index
}

// regionHeap is a min-heap so the weakest of the current top-N is at the
// root.
type regionHeap []Ranked

func (h regionHeap) Len() int           { return len(h) }
func (h regionHeap) Less(i, j int) bool { return weaker(h[i], h[j]) }
func (h regionHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *regionHeap) Push(x any)        { *h = append(*h, x.(Ranked)) }
func (h *regionHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Aggregator caches per-region profiles and chooses which regions sound.
type Aggregator struct {
	cfg AggregatorConfig

	profiles   []ChunkAudioProfile
	cols, rows int
	gridW      int
	gridH      int
	since      float64
	built      bool
	rebuilds   uint64

	heap    regionHeap
	regions map[ChunkID]*Emitter
	live    []*Emitter

	coarse  bool
	cityMix [sim.ZoneCount]float64
	target  [sim.ZoneCount]float64
}

// NewAggregator creates an aggregator with no profiles.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	def := DefaultAggregator()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.RegionFade < 0 {
		cfg.RegionFade = def.RegionFade
	}
	if cfg.BoundaryBand < 0 || cfg.BoundaryBand > 1 {
		cfg.BoundaryBand = def.BoundaryBand
	}
	return &Aggregator{cfg: cfg, regions: make(map[ChunkID]*Emitter)}
}

// Tick rebuilds profiles when the interval has elapsed, on the first call,
// or when the grid dimensions change. It reports whether a rebuild ran.
func (a *Aggregator) Tick(g *sim.Grid, dt float64) bool {
	if dt > 0 {
		a.since += dt
	}
	resized := g != nil && (g.Width != a.gridW || g.Height != a.gridH)
	if a.built && !resized && a.since < a.cfg.Interval {
		return false
	}
	a.Rebuild(g)
	return true
}

// Rebuild recomputes every region profile from g.
func (a *Aggregator) Rebuild(g *sim.Grid) {
	a.since = 0
	a.built = true
	a.rebuilds++
	if g == nil {
		a.profiles = a.profiles[:0]
		a.cols, a.rows, a.gridW, a.gridH = 0, 0, 0, 0
		return
	}
	size := a.cfg.ChunkSize
	a.gridW, a.gridH = g.Width, g.Height
	a.cols = (g.Width + size - 1) / size
	a.rows = (g.Height + size - 1) / size
	n := a.cols * a.rows
	if cap(a.profiles) < n {
		a.profiles = make([]ChunkAudioProfile, n)
	}
	a.profiles = a.profiles[:n]
	for cy := 0; cy < a.rows; cy++ {
		for cx := 0; cx < a.cols; cx++ {
			a.profiles[cy*a.cols+cx] = ComputeProfile(g, ChunkID{cx, cy}, size)
		}
	}
}

// Profile returns the cached profile of chunk.
func (a *Aggregator) Profile(c ChunkID) (ChunkAudioProfile, bool) {
	if c.X < 0 || c.Y < 0 || c.X >= a.cols || c.Y >= a.rows {
		return ChunkAudioProfile{}, false
	}
	return a.profiles[c.Y*a.cols+c.X], true
}

// Profiles returns every cached profile.
func (a *Aggregator) Profiles() []ChunkAudioProfile {
	return a.profiles
}

// Rebuilds returns the number of profile rebuilds so far.
func (a *Aggregator) Rebuilds() uint64 {
	return a.rebuilds
}

// Score orders regions for selection: inverse distance times the largest
// zone weight times one plus traffic.
func Score(p *ChunkAudioProfile, distance float64) float64 {
	if math.IsNaN(distance) || distance < 0 {
		distance = 0
	}
	w, _ := p.MaxWeight()
	return w * (1 + p.Traffic) / (1 + distance)
}

// Select fills the bounded heap with the top-N regions for tier and returns
// their profile indices, strongest first.
func (a *Aggregator) Select(l *Listener, tier Tier) []Ranked {
	n := 0
	if tier >= FullDetail && tier < TierCount {
		n = a.cfg.TopN[tier]
	}
	a.heap = a.heap[:0]
	if n <= 0 {
		return a.heap
	}
	band := a.cfg.BoundaryBand * l.AudibleRadius
	for i := range a.profiles {
		p := &a.profiles[i]
		d := l.Distance(p.Center)
		if mix.BoundaryWeight(d, l.AudibleRadius, band) <= 0 {
			continue
		}
		s := Score(p, d)
		if s <= 0 {
			continue
		}
		item := Ranked{Index: i, Score: s}
		if a.heap.Len() < n {
			heap.Push(&a.heap, item)
		} else if weaker(a.heap[0], item) {
			a.heap[0] = item
			heap.Fix(&a.heap, 0)
		}
	}
	slices.SortFunc(a.heap, func(x, y Ranked) int {
		switch {
		case weaker(y, x):
			return -1
		case weaker(x, y):
			return 1
		}
		return 0
	})
	return a.heap
}

// Update selects regions for the listener, moves each region's gain toward
// its target over RegionFade and maintains the city-wide mix used by
// coarse tiers. Regions are never cut: deselected regions fade out and are
// dropped once silent.
func (a *Aggregator) Update(l *Listener, tier Tier, dt float64) {
	a.coarse = Coarse(tier)
	sel := a.Select(l, tier)

	for _, e := range a.regions {
		e.Area.Selected = false
		e.Area.Target = 0
	}

	band := a.cfg.BoundaryBand * l.AudibleRadius
	var mixSum [sim.ZoneCount]float64
	total := 0.0
	for _, s := range sel {
		p := a.profiles[s.Index]
		d := l.Distance(p.Center)
		w := mix.BoundaryWeight(d, l.AudibleRadius, band)

		if a.coarse {
			for z := range mixSum {
				mixSum[z] += s.Score * w * p.Zones[z]
			}
			total += s.Score
			continue
		}

		e, ok := a.regions[p.Chunk]
		if !ok {
			e = NewAreaEmitter(&AreaData{Chunk: p.Chunk})
			a.regions[p.Chunk] = e
		}
		ad := e.Area
		ad.Profile = p
		ad.Distance = d
		ad.Score = s.Score
		ad.Weight = w
		ad.Target = w
		ad.Selected = true
	}

	for z := range a.target {
		a.target[z] = 0
		if total > 0 {
			a.target[z] = mixSum[z] / total
		}
	}

	tau := a.cfg.RegionFade / 3
	for z := range a.cityMix {
		a.cityMix[z] = param.Approach(a.cityMix[z], a.target[z], dt, tau)
	}

	a.live = a.live[:0]
	for c, e := range a.regions {
		ad := e.Area
		ad.Gain = param.Approach(ad.Gain, ad.Target, dt, tau)
		if !ad.Selected && ad.Gain < 1e-3 && !hasVoices(ad) {
			delete(a.regions, c)
			continue
		}
		a.live = append(a.live, e)
	}
	slices.SortFunc(a.live, func(x, y *Emitter) int {
		switch {
		case x.ID < y.ID:
			return -1
		case x.ID > y.ID:
			return 1
		}
		return 0
	})
}

func hasVoices(ad *AreaData) bool {
	for _, l := range ad.Layers {
		if l.Voice.Valid() {
			return true
		}
	}
	return false
}

// Regions returns the area emitters that are sounding or fading, ordered
// by ID. Layer handles on them are owned by the caller.
func (a *Aggregator) Regions() []*Emitter {
	return a.live
}

// CityMix returns the smoothed city-wide zone mix for coarse tiers.
func (a *Aggregator) CityMix() [sim.ZoneCount]float64 {
	return a.cityMix
}

// IsCoarse reports whether the last Update used the city-wide mix.
func (a *Aggregator) IsCoarse() bool {
	return a.coarse
}

// Reset forgets regions and the city mix. Cached profiles are rebuilt on
// the next Tick.
func (a *Aggregator) Reset() {
	clear(a.regions)
	a.live = a.live[:0]
	a.cityMix = [sim.ZoneCount]float64{}
	a.built = false
}
