// Package engine ties spatial emitters, the voice pool, adaptive music,
// ducking, the ambient soundscape and the procedural generators into one
// audio engine.
//
// The engine has two sides. The control side (Update, Trigger,
// ApplySettings, Reset, Stats) runs on the simulation goroutine and must
// not be called concurrently with itself. The audio side (Process) runs on
// the device callback. The control side hands the audio side one MixFrame
// per tick through a TripleBuffer; bus volumes and generator parameters are
// atomics. Process never locks, allocates or blocks.
package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/justyntemme/cityaudio/pkg/ambience"
	"github.com/justyntemme/cityaudio/pkg/assets"
	"github.com/justyntemme/cityaudio/pkg/dsp/analysis"
	"github.com/justyntemme/cityaudio/pkg/dsp/dynamics"
	"github.com/justyntemme/cityaudio/pkg/ducking"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/debug"
	fdsp "github.com/justyntemme/cityaudio/pkg/framework/dsp"
	"github.com/justyntemme/cityaudio/pkg/framework/param"
	"github.com/justyntemme/cityaudio/pkg/framework/voice"
	"github.com/justyntemme/cityaudio/pkg/music"
	"github.com/justyntemme/cityaudio/pkg/procedural"
	"github.com/justyntemme/cityaudio/pkg/settings"
	"github.com/justyntemme/cityaudio/pkg/sim"
	"github.com/justyntemme/cityaudio/pkg/spatial"
)

// Environmental loops driven by the soundscape.
const (
	natureBank = "ambience/nature"
	nightBank  = "ambience/night"
)

// generator pairs a procedural source with the bus it plays on.
type generator struct {
	gen procedural.Generator
	bus bus.ID
}

// Engine is the city audio engine.
type Engine struct {
	cfg  Config
	log  *debug.Logger
	prof *debug.Profiler
	lib  *assets.Library
	rng  *rand.Rand

	graph      *bus.Graph
	mixer      *bus.Mixer
	pool       *voice.Pool
	registry   *spatial.Registry
	aggregator *spatial.Aggregator
	occlusion  spatial.OcclusionScheduler
	ducks      *ducking.Engine
	transport  *music.Transport
	director   *music.Director
	renderer   *music.Renderer
	soundscape *ambience.Soundscape

	wind    *procedural.Wind
	rain    *procedural.Rain
	traffic *procedural.TrafficHum
	crowd   *procedural.Crowd
	gens    []generator

	width  param.Atomic
	frames *TripleBuffer[MixFrame]

	// control side
	settings   settings.Settings
	listener   spatial.Listener
	tier       spatial.Tier
	tierKnown  bool
	cands      []spatial.Candidate
	banks      map[string]int32
	zoneBanks  [sim.ZoneCount]string
	cityVoices [sim.ZoneCount]voice.Handle
	nature     voice.Handle
	night      voice.Handle
	stinger    voice.Handle
	siren      bool
	disaster   bool
	seq        uint64
	ticks      uint64
	uiPlayed   uint64
	uiFiltered uint64

	statsMu sync.Mutex
	stats   Stats

	// audio side
	audio audioState
	meter *analysis.MasterMeter
	load  debug.CallbackLoad
}

// New builds an engine. lib may be nil, in which case every bank is
// missing and the engine renders only procedural ambience. log nil means
// debug.Default().
func New(cfg Config, lib *assets.Library, log *debug.Logger) (*Engine, error) {
	cfg.Validate()
	log = debug.Or(log)
	if lib == nil {
		lib = assets.NewLibrary(cfg.SampleRate, log)
	}
	if lib.SampleRate() != cfg.SampleRate {
		return nil, fmt.Errorf("engine: library rate %g does not match output rate %g", lib.SampleRate(), cfg.SampleRate)
	}

	e := &Engine{
		cfg:   cfg,
		log:   log,
		prof:  debug.NewProfiler(),
		lib:   lib,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		graph: bus.NewGraph(),
		pool:  voice.NewPool(cfg.Voice),
		banks: make(map[string]int32),
	}
	e.mixer = bus.NewMixer(e.graph, cfg.MaxBlock)
	e.registry = spatial.NewRegistry(cfg.Spatial.Sources, cfg.Spatial.Rolloffs)
	e.aggregator = spatial.NewAggregator(cfg.Spatial.Aggregator)
	e.occlusion.Budget = cfg.Spatial.OcclusionBudget

	e.transport = music.NewTransport(cfg.Music.Tempo, cfg.Music.BeatsPerBar, cfg.SampleRate)
	e.director = music.NewDirector(cfg.Music, e.transport)
	e.renderer = music.NewRenderer(e.transport.FramesPerBar(), cfg.MaxBlock)
	e.ducks = ducking.New(cfg.Ducking, e.transport.BarSeconds())
	e.soundscape = ambience.New(cfg.Ambience)

	e.wind = procedural.NewWind(cfg.SampleRate, cfg.Seed+1)
	e.rain = procedural.NewRain(cfg.SampleRate, cfg.Seed+2)
	e.traffic = procedural.NewTrafficHum(cfg.SampleRate, cfg.Seed+3)
	e.crowd = procedural.NewCrowd(cfg.SampleRate, cfg.Seed+4)
	e.gens = []generator{
		{e.wind, bus.Weather},
		{e.rain, bus.Weather},
		{e.traffic, bus.Traffic},
		{e.crowd, bus.Zone},
	}

	for z := range e.zoneBanks {
		e.zoneBanks[z] = "zone/" + sim.Zone(z).String()
	}

	if err := e.buildChains(); err != nil {
		return nil, err
	}
	e.loadStems()

	e.frames = NewTripleBuffer(newMixFrame(e.pool.Size()))
	e.audio.init(e.pool.Size(), cfg.SampleRate)
	e.meter = analysis.NewMasterMeter(cfg.SampleRate)

	e.width.Init("master.width", 0, 1, 1)
	e.ApplySettings(cfg.Settings)
	e.publish()

	log.Info("engine ready: %g Hz, block %d, %d voices, %d banks", cfg.SampleRate, cfg.MaxBlock, e.pool.Size(), lib.Len())
	return e, nil
}

// buildChains installs the configured bus compressors and the master
// width and clip stages.
func (e *Engine) buildChains() error {
	perBus := make(map[bus.ID]*fdsp.StereoBuilder)
	for _, d := range e.cfg.Dynamics {
		b, ok := perBus[d.Bus]
		if !ok {
			b = fdsp.NewStereoBuilder(d.Bus.String())
			perBus[d.Bus] = b
		}
		b.WithProcessor(dynamics.NewCompressorWithSettings(e.cfg.SampleRate, d.Settings))
	}
	master, ok := perBus[bus.Master]
	if !ok {
		master = fdsp.NewStereoBuilder(bus.Master.String())
		perBus[bus.Master] = master
	}
	master.WithProcessor(fdsp.NewWidthStage(&e.width)).
		WithProcessor(fdsp.ClipStage{Threshold: float32(e.cfg.Levels.ClipLevel)})

	for id, b := range perBus {
		chain, err := b.Build()
		if err != nil {
			return fmt.Errorf("engine: building %s chain: %w", id, err)
		}
		e.mixer.SetChain(id, chain)
	}
	return nil
}

// loadStems hands every stem the library has to the renderer. Stems are
// optional; a missing one is silent.
func (e *Engine) loadStems() {
	for s := music.Section(0); s < music.SectionCount; s++ {
		for r := music.Role(0); r < music.RoleCount; r++ {
			b, ok := e.lib.Lookup(assets.StemName(s.String(), r.String()))
			if !ok || len(b.Variants) == 0 {
				continue
			}
			e.renderer.SetStem(s, r, b.Variants[0].Samples)
		}
	}
	e.log.Info("loaded %d music stems", e.renderer.Loaded())
}

// Graph returns the bus graph.
func (e *Engine) Graph() *bus.Graph { return e.graph }

// Transport returns the music clock.
func (e *Engine) Transport() *music.Transport { return e.transport }

// Profiler returns the control-side profiler.
func (e *Engine) Profiler() *debug.Profiler { return e.prof }

// Settings returns the settings in effect.
func (e *Engine) Settings() settings.Settings { return e.settings }

// Config returns the validated configuration.
func (e *Engine) Config() Config { return e.cfg }

// bank resolves and caches a bank id. Misses return -1 and are not
// cached, so a bank added to the library later is picked up; the library
// logs each miss once until then.
func (e *Engine) bank(name string) int32 {
	if id, ok := e.banks[name]; ok {
		return id
	}
	id := e.lib.ID(name)
	if id >= 0 {
		e.banks[name] = id
	}
	return id
}

// start claims a voice for the first variant pick of bank. It returns a
// zero handle when the bank is missing or the pool rejects the request.
func (e *Engine) start(bank string, req voice.Request) (voice.Handle, bool) {
	id := e.bank(bank)
	b := e.lib.ByID(id)
	if b == nil {
		return voice.Handle{}, false
	}
	req.Source = id
	req.Variant = b.Pick(e.rng)
	if !req.Loop {
		req.Duration = b.Variant(req.Variant).Duration()
	}
	h, out := e.pool.Trigger(req)
	if out == voice.Rejected {
		return voice.Handle{}, true
	}
	return h, true
}

// loop keeps a looping voice on h sounding at gain, starting it when
// needed and releasing it once gain drops below the layer floor.
func (e *Engine) loop(h *voice.Handle, bank string, id bus.ID, gain, pan float64) {
	if h.Valid() && !e.pool.Alive(*h) {
		*h = voice.Handle{}
	}
	if gain < e.cfg.Levels.MinLayer {
		if h.Valid() {
			e.pool.Release(*h)
			*h = voice.Handle{}
		}
		return
	}
	if h.Valid() {
		e.pool.SetGain(*h, gain)
		e.pool.SetPan(*h, pan)
		return
	}
	*h, _ = e.start(bank, voice.Request{
		Loop:     true,
		Priority: voice.PriorityAmbient,
		Category: voice.CategoryArea,
		Bus:      id,
		Spatial:  pan != 0,
		Gain:     gain,
		Pan:      pan,
		Pitch:    1,
	})
}

// Update runs one control tick against snapshot s seen from camera cam.
// dt is the time since the previous tick in seconds.
func (e *Engine) Update(s *sim.Snapshot, cam Camera, dt float64) {
	defer e.prof.Start("engine.update")()
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		dt = 0
	}
	var snap sim.Snapshot
	if s != nil {
		snap = s.Sanitized()
	}
	e.ticks++

	e.listener = spatial.ListenerFromCamera(cam.Pos, cam.ViewDistance, e.cfg.Spatial.Listener)
	if !e.tierKnown {
		e.tier = e.cfg.Spatial.LOD.Classify(spatial.FullDetail, e.listener.ViewDistance)
		e.tierKnown = true
	} else {
		e.tier = e.cfg.Spatial.LOD.Classify(e.tier, e.listener.ViewDistance)
	}

	e.updatePoints(&snap, dt)
	e.updateRegions(&snap, dt)
	e.updateAmbience(&snap, dt)
	e.updateMusic(&snap, dt)

	e.ducks.Advance(dt)
	e.ducks.Apply(e.graph)
	e.pool.Advance(dt)
	e.publish()
	e.collect()
}

// pointBus routes a point source to its bus.
func pointBus(k sim.EventKind) bus.ID {
	switch k {
	case sim.HornEvent, sim.TrainEvent:
		return bus.Traffic
	case sim.ConstructionEvent, sim.IndustryEvent:
		return bus.Environmental
	}
	return bus.SFX
}

func (e *Engine) updatePoints(s *sim.Snapshot, dt float64) {
	defer e.prof.Start("spatial.points")()
	spatialOn := e.settings.Spatial

	e.registry.Apply(s.Events)
	e.registry.Advance(dt)
	e.registry.Sync(&e.listener, e.pool)
	if spatialOn && s.Grid != nil {
		e.registry.UpdateOcclusion(s.Grid, &e.listener, &e.cfg.Spatial.Occlusion, &e.occlusion)
	}
	e.cands = e.registry.Evaluate(&e.listener, &e.cfg.Spatial.LOD, e.cands)

	siren := false
	for _, em := range e.registry.Points() {
		p := em.Point
		if p.Silent {
			continue
		}
		alive := e.pool.Alive(p.Voice)
		if !p.Active {
			if alive {
				e.pool.Release(p.Voice)
			}
			continue
		}

		gain := p.Gain
		pan := e.listener.Pan(p.Pos)
		cutoff := e.cfg.Spatial.Occlusion.Cutoff(p.OcclusionDB)
		if !spatialOn {
			gain = spatial.Attenuate(p.Distance, p.Rolloff)
			pan, cutoff = 0, 0
		}
		gain *= p.Spec.Volume

		switch {
		case alive:
			e.pool.SetGain(p.Voice, gain)
			e.pool.SetPan(p.Voice, pan)
			e.pool.SetCutoff(p.Voice, cutoff)
		case p.Spec.Loop || !p.Played:
			h, found := e.start(p.Spec.Bank, voice.Request{
				Loop:     p.Spec.Loop,
				Priority: p.Spec.Priority,
				Category: voice.CategoryPoint,
				Bus:      pointBus(p.Event),
				Spatial:  spatialOn,
				Gain:     gain,
				Pan:      pan,
				Pitch:    p.Spec.Pitch,
				Cutoff:   cutoff,
			})
			if !found {
				p.Silent = true
				continue
			}
			if h.Valid() {
				p.Voice = h
				p.Played = true
			}
		}
		if p.Event == sim.SirenEvent && gain > 0 && e.pool.Alive(p.Voice) {
			siren = true
		}
	}

	switch {
	case siren && !e.siren:
		e.ducks.Trigger(ducking.Siren, ducking.HoldUntilReleased)
	case !siren && e.siren:
		e.ducks.Release(ducking.Siren)
	}
	e.siren = siren
}

func (e *Engine) updateRegions(s *sim.Snapshot, dt float64) {
	if s.Grid != nil {
		stop := e.prof.Start("aggregator.tick")
		e.aggregator.Tick(s.Grid, dt)
		stop()
	}
	e.aggregator.Update(&e.listener, e.tier, dt)
	lv := e.cfg.Levels

	var dom [spatial.AreaLayers]sim.Zone
	for _, em := range e.aggregator.Regions() {
		ad := em.Area
		zones := ad.Profile.Dominant(dom[:0], spatial.AreaLayers, 0.15)
		pan := 0.0
		if e.settings.Spatial {
			pan = e.listener.Pan(ad.Profile.Center)
		}
		for i := range ad.Layers {
			l := &ad.Layers[i]
			zone, gain := sim.Unzoned, 0.0
			if i < len(zones) {
				zone = zones[i]
				gain = ad.Gain * ad.Profile.Zones[zone] * lv.Area
			}
			if l.Voice.Valid() && l.Zone != zone {
				e.pool.Release(l.Voice)
				l.Voice = voice.Handle{}
			}
			l.Zone, l.Gain = zone, gain
			e.loop(&l.Voice, e.zoneBanks[zone], bus.Zone, gain, pan)
		}
	}

	mix := e.aggregator.CityMix()
	for z := range mix {
		gain := 0.0
		if sim.Zone(z) != sim.Unzoned {
			gain = mix[z] * lv.CityMix
		}
		e.loop(&e.cityVoices[z], e.zoneBanks[z], bus.Zone, gain, 0)
	}
}

func (e *Engine) updateAmbience(s *sim.Snapshot, dt float64) {
	e.soundscape.Update(s, dt)
	lv := e.soundscape.Levels()
	cfg := e.cfg.Levels

	weather := lv[ambience.Weather]
	wet := 0.0
	switch s.Weather {
	case sim.Rain, sim.HeavyRain, sim.Storm:
		wet = weather
	default:
		if s.Precipitation > 0 && s.Weather != sim.Snow {
			wet = weather
		}
	}
	e.wind.SetSpeed(math.Max(s.WindSpeed, weather*0.5))
	e.wind.SetLevel(weather * cfg.Wind * (0.4 + 0.6*s.WindSpeed))
	e.rain.SetIntensity(math.Min(1, math.Max(wet, s.Precipitation/2)))
	e.rain.SetLevel(wet * cfg.Rain)

	e.traffic.SetDensity(lv[ambience.Traffic])
	e.traffic.SetSpeed(1 - 0.6*s.CommutingFraction)
	e.traffic.SetLevel(lv[ambience.Traffic] * cfg.Traffic)

	e.crowd.SetActivity(0.5*s.Happiness/100 + 0.5*(1-lv[ambience.Night]))
	e.crowd.SetLevel(lv[ambience.CityHum] * cfg.Crowd)

	e.loop(&e.nature, natureBank, bus.Environmental, lv[ambience.Nature]*cfg.Nature, 0)
	e.loop(&e.night, nightBank, bus.Environmental, lv[ambience.Night]*cfg.Night, 0)
}

func (e *Engine) updateMusic(s *sim.Snapshot, dt float64) {
	defer e.prof.Start("music.update")()
	cue := e.director.Update(s, dt)

	disaster := s.App == sim.Playing && s.InDisaster()
	switch {
	case disaster && !e.disaster:
		e.ducks.Trigger(ducking.Disaster, ducking.HoldUntilReleased)
	case !disaster && e.disaster:
		e.ducks.Release(ducking.Disaster)
	}
	e.disaster = disaster

	if cue.CrisisOnset {
		e.ducks.Trigger(ducking.Crisis, ducking.HoldUntilReleased)
	}
	if cue.CrisisRelief {
		e.ducks.Release(ducking.Crisis)
	}

	if cue.HasStinger {
		e.startStinger(cue.Stinger, cue.StingerFrame)
	} else if e.director.StingerActive() && !e.pool.Alive(e.stinger) {
		e.stinger = voice.Handle{}
		e.director.SetStingerActive(false)
	}
}

// startStinger plays a stinger on the Stingers bus from frame on and
// ducks the stems for its length.
func (e *Engine) startStinger(k music.StingerKind, frame int64) {
	spec := e.director.Stingers().Spec(k)
	delay := e.transport.Seconds(frame - e.transport.Frame())
	h, _ := e.start(spec.Bank, voice.Request{
		Priority:   voice.PriorityHigh,
		Category:   voice.CategoryStinger,
		Bus:        bus.Stingers,
		Gain:       spec.Volume,
		Pitch:      1,
		Delay:      math.Max(0, delay),
		StartFrame: frame,
	})
	if !h.Valid() {
		e.stinger = voice.Handle{}
		e.director.SetStingerActive(false)
		return
	}
	e.stinger = h
	hold := e.cfg.StingerHold
	if v, ok := e.pool.Get(h); ok && v.Duration > 0 {
		hold = v.Duration
	}
	e.ducks.Trigger(ducking.Stinger, math.Max(0, delay)+hold)
	e.log.Debug("stinger %s at frame %d", k, frame)
}

// Trigger plays a UI sound. Notifications and achievements below the
// user's verbosity are dropped. Critical notifications and achievements
// also queue a stinger. It reports whether the event was accepted.
func (e *Engine) Trigger(ev UIEvent) bool {
	if ev.Kind < 0 || ev.Kind >= UIKindCount {
		return false
	}
	if !ev.Audible(e.settings.Verbosity) {
		e.uiFiltered++
		return false
	}
	e.uiPlayed++

	req := voice.Request{
		Priority: voice.PriorityLow,
		Category: voice.CategoryUI,
		Bus:      bus.UI,
		Gain:     e.cfg.Levels.UI,
		Pitch:    1,
	}
	switch ev.Kind {
	case Notification:
		req.Category = voice.CategoryAlert
		req.Priority = voice.PriorityNormal
		if ev.Importance >= Critical {
			req.Priority = voice.PriorityHigh
			e.director.Notify(music.Notice)
		}
		e.ducks.Trigger(ducking.Notification, e.cfg.NotificationHold)
	case Achievement:
		e.director.Notify(music.Achievement)
		return true
	}
	e.start(ev.Kind.String(), req)
	return true
}

// SetGeneratorEnabled switches a procedural generator by name. The change
// is heard from the next audio buffer.
func (e *Engine) SetGeneratorEnabled(name string, on bool) bool {
	for _, g := range e.gens {
		if g.gen.Name() == name {
			g.gen.SetEnabled(on)
			return true
		}
	}
	return false
}

// Generators returns the names of the procedural generators.
func (e *Engine) Generators() []string {
	names := make([]string, len(e.gens))
	for i, g := range e.gens {
		names[i] = g.gen.Name()
	}
	return names
}

// ApplySettings installs user settings: bus volumes and output width take
// effect on the next audio buffer, the spatial toggle on the next Update.
func (e *Engine) ApplySettings(st settings.Settings) {
	st.Clamp()
	if e.settings.Spatial != st.Spatial && e.ticks > 0 {
		e.log.Info("spatial audio enabled: %t", st.Spatial)
	}
	e.settings = st
	st.Apply(e.graph)

	w := 1.0
	switch {
	case st.Mono:
		w = 0
	case st.Output == settings.Speakers:
		w = e.cfg.SpeakerWidth
	}
	e.width.Set(w)
}

// Reset drops all runtime state so it is re-derived from the next
// snapshot. Sounding voices are cut with the audio side's declick ramp.
func (e *Engine) Reset() {
	e.registry.Reset(nil)
	e.aggregator.Reset()
	e.pool.Reset()
	e.director.Reset()
	e.ducks.Reset()
	e.ducks.Apply(e.graph)
	e.soundscape.Reset()
	e.cityVoices = [sim.ZoneCount]voice.Handle{}
	e.nature, e.night, e.stinger = voice.Handle{}, voice.Handle{}, voice.Handle{}
	e.siren, e.disaster, e.tierKnown = false, false, false
	e.publish()
	e.log.Info("engine reset")
}

// publish hands the current voice table and music state to the audio side.
func (e *Engine) publish() {
	f := e.frames.Back()
	e.seq++
	f.Seq = e.seq
	e.pool.CopyTo(f.Voices)
	f.Music = e.director.Frame()
	e.frames.Publish()
}
