package engine

import (
	"io"
	"math"
	"testing"

	"github.com/justyntemme/cityaudio/pkg/assets"
	"github.com/justyntemme/cityaudio/pkg/dsp"
	"github.com/justyntemme/cityaudio/pkg/ducking"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/debug"
	"github.com/justyntemme/cityaudio/pkg/framework/voice"
	"github.com/justyntemme/cityaudio/pkg/settings"
	"github.com/justyntemme/cityaudio/pkg/sim"
)

const tick = 1.0 / 60

func quiet() *debug.Logger {
	return debug.New(io.Discard, "", 0)
}

func tone(n int, hz, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*hz*float64(i)/48000))
	}
	return out
}

func newTestEngine(t *testing.T, banks ...string) *Engine {
	t.Helper()
	lib := assets.NewLibrary(48000, quiet())
	for _, b := range banks {
		if _, err := lib.AddSamples(b, tone(48000, 440, 0.5)); err != nil {
			t.Fatalf("AddSamples(%s): %v", b, err)
		}
	}
	cfg := DefaultConfig()
	cfg.MaxBlock = 256
	e, err := New(cfg, lib, quiet())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func city() *sim.Snapshot {
	return &sim.Snapshot{
		Population: 2500,
		Happiness:  75,
		Treasury:   10000,
		Hour:       12,
	}
}

func withSiren(s *sim.Snapshot, x float64) *sim.Snapshot {
	s.Events = []sim.Event{{Kind: sim.SirenEvent, Owner: 7, Pos: sim.Vec2{X: x}, Active: true}}
	return s
}

var camera = Camera{ViewDistance: 100}

func pointVoice(t *testing.T, e *Engine) voice.Voice {
	t.Helper()
	for _, em := range e.registry.Points() {
		if v, ok := e.pool.Get(em.Point.Voice); ok {
			return v
		}
	}
	t.Fatal("No point emitter has a live voice")
	return voice.Voice{}
}

func TestNewRejectsMismatchedLibraryRate(t *testing.T) {
	lib := assets.NewLibrary(44100, quiet())
	if _, err := New(DefaultConfig(), lib, quiet()); err == nil {
		t.Error("Expected an error for a 44.1 kHz library on a 48 kHz engine")
	}
}

func TestSirenPlaysOnSFXAndDucksMusic(t *testing.T) {
	e := newTestEngine(t, "siren")
	snap := withSiren(city(), 60)

	e.Update(snap, camera, tick)
	v := pointVoice(t, e)
	if v.Bus != bus.SFX {
		t.Errorf("Siren bus = %s, want sfx", v.Bus)
	}
	if v.Pan <= 0 {
		t.Errorf("Siren to the right should pan right, pan = %f", v.Pan)
	}
	if v.Gain <= 0 {
		t.Error("Siren in range should be audible")
	}

	for i := 0; i < 30; i++ {
		e.Update(snap, camera, tick)
	}
	if g := e.graph.DuckGain(bus.Music); g >= 1 {
		t.Errorf("Music duck gain = %f, siren should duck music", g)
	}

	left := make([]float32, 256)
	right := make([]float32, 256)
	e.Process(left, right)
	l, r := e.mixer.Bus(bus.SFX)
	if dsp.Peak(l) <= 0 || dsp.Peak(r) <= dsp.Peak(l) {
		t.Errorf("SFX bus peaks L=%f R=%f, want a right-panned signal", dsp.Peak(l), dsp.Peak(r))
	}

	// The siren ends: its voice fades and the duck releases.
	snap.Events[0].Active = false
	for i := 0; i < 300; i++ {
		e.Update(snap, camera, tick)
		snap.Events = nil
	}
	if e.pool.Stats().Active != 0 {
		t.Errorf("Active voices = %d after the siren ended", e.pool.Stats().Active)
	}
	if env := e.ducks.Envelope(ducking.Siren, bus.Music); env.Stage() != ducking.Idle {
		t.Errorf("Siren duck stage = %s, want idle", env.Stage())
	}
}

func TestMissingBankIsSilent(t *testing.T) {
	e := newTestEngine(t)
	e.Update(withSiren(city(), 20), camera, tick)

	points := e.registry.Points()
	if len(points) != 1 {
		t.Fatalf("Expected one emitter, got %d", len(points))
	}
	if !points[0].Point.Silent {
		t.Error("Emitter without a bank should be silent")
	}
	if n := e.pool.Stats().Active; n != 0 {
		t.Errorf("Active voices = %d, want 0", n)
	}

	left := make([]float32, 512)
	right := make([]float32, 512)
	e.Process(left, right)
}

func TestBankAddedLaterIsResolved(t *testing.T) {
	e := newTestEngine(t)
	if id := e.bank("siren"); id != -1 {
		t.Fatalf("bank(siren) before load = %d, want -1", id)
	}
	e.Update(withSiren(city(), 20), camera, tick)

	if _, err := e.lib.AddSamples("siren", tone(48000, 440, 0.5)); err != nil {
		t.Fatalf("AddSamples: %v", err)
	}
	if id := e.bank("siren"); id < 0 {
		t.Fatalf("bank(siren) after load = %d, want a valid id", id)
	}

	// End the silent siren and announce a new one.
	s := city()
	s.Events = []sim.Event{
		{Kind: sim.SirenEvent, Owner: 7},
		{Kind: sim.SirenEvent, Owner: 8, Pos: sim.Vec2{X: 20}, Active: true},
	}
	e.Update(s, camera, tick)
	if v := pointVoice(t, e); v.Gain <= 0 {
		t.Errorf("Siren gain = %f after its bank was added", v.Gain)
	}
}

func TestSpatialOffCentresVoices(t *testing.T) {
	e := newTestEngine(t, "siren")
	st := settings.Default()
	st.Spatial = false
	e.ApplySettings(st)

	e.Update(withSiren(city(), 60), camera, tick)
	v := pointVoice(t, e)
	if v.Pan != 0 || v.Cutoff != 0 {
		t.Errorf("Spatial off: pan = %f cutoff = %f, want 0", v.Pan, v.Cutoff)
	}
	if v.Gain <= 0 {
		t.Error("Spatial off should keep distance attenuation, not mute")
	}
}

func TestUIVerbosity(t *testing.T) {
	e := newTestEngine(t, "ui/tool", "ui/notification")
	st := settings.Default()
	st.Verbosity = settings.CriticalOnly
	e.ApplySettings(st)

	tests := []struct {
		ev   UIEvent
		want bool
	}{
		{UIEvent{Kind: ToolUsed}, true},
		{UIEvent{Kind: MenuNavigate}, true},
		{UIEvent{Kind: Notification, Importance: Minor}, false},
		{UIEvent{Kind: Notification, Importance: Important}, false},
		{UIEvent{Kind: Notification, Importance: Critical}, true},
		{UIEvent{Kind: UIKindCount}, false},
	}
	for _, tt := range tests {
		if got := e.Trigger(tt.ev); got != tt.want {
			t.Errorf("Trigger(%+v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
	e.Update(city(), camera, tick)
	s := e.Stats()
	if s.UIFiltered != 2 || s.UIPlayed != 3 {
		t.Errorf("UI stats played=%d filtered=%d, want 3 and 2", s.UIPlayed, s.UIFiltered)
	}
	if env := e.ducks.Envelope(ducking.Notification, bus.Music); env.Stage() == ducking.Idle {
		t.Error("A critical notification should duck music")
	}
}

func TestDisasterStartsStingerOnStingersBus(t *testing.T) {
	e := newTestEngine(t, "stinger/disaster-start")
	snap := city()
	snap.Disaster = sim.Disaster{Kind: sim.FireDisaster, Intensity: 1, Active: true}

	e.Update(snap, camera, tick)
	v, ok := e.pool.Get(e.stinger)
	if !ok {
		t.Fatal("Disaster onset should start a stinger")
	}
	if v.Bus != bus.Stingers || v.Category != voice.CategoryStinger {
		t.Errorf("Stinger on %s category %d", v.Bus, v.Category)
	}
	beat := e.transport.FramesPerBeat()
	if r := math.Mod(float64(v.StartFrame), beat); r > 1 && beat-r > 1 {
		t.Errorf("Stinger starts at frame %d, not on a beat", v.StartFrame)
	}
	if env := e.ducks.Envelope(ducking.Stinger, bus.Stems); env.Stage() == ducking.Idle {
		t.Error("Stinger should duck the stems")
	}
	if env := e.ducks.Envelope(ducking.Disaster, bus.Ambience); env.Stage() == ducking.Idle {
		t.Error("Disaster should duck ambience")
	}
}

func TestProcessChunksLargeRequests(t *testing.T) {
	e := newTestEngine(t)
	e.Update(city(), camera, tick)

	n := 3*e.cfg.MaxBlock + 7
	left := make([]float32, n)
	right := make([]float32, n)
	e.Process(left, right)
	if got := e.transport.Frame(); got != int64(n) {
		t.Errorf("Transport at %d, want %d", got, n)
	}
	if e.Stats().Callbacks != 1 {
		t.Error("One Process call should record one callback")
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	e := newTestEngine(t, "siren", "zone/residential", "ambience/nature")
	snap := withSiren(city(), 40)
	snap.TreeFraction = 0.2
	for i := 0; i < 10; i++ {
		e.Update(snap, camera, tick)
	}
	left := make([]float32, 512)
	right := make([]float32, 512)
	allocs := testing.AllocsPerRun(50, func() {
		e.Process(left, right)
	})
	if allocs != 0 {
		t.Errorf("Process allocated %.1f times per call", allocs)
	}
}

func TestMonoFoldsChannels(t *testing.T) {
	e := newTestEngine(t, "siren")
	st := settings.Default()
	st.Mono = true
	e.ApplySettings(st)
	e.Update(withSiren(city(), 80), camera, tick)

	left := make([]float32, 256)
	right := make([]float32, 256)
	e.Process(left, right)
	for i := range left {
		if left[i] != right[i] {
			t.Fatalf("Frame %d: %f != %f in mono", i, left[i], right[i])
		}
	}
}

func TestApplySettingsSetsBusVolumes(t *testing.T) {
	e := newTestEngine(t)
	st := settings.Default()
	st.Volumes[bus.Music] = 50
	st.Volumes[bus.SFX] = 250
	e.ApplySettings(st)

	if v := e.graph.Volume(bus.Music); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("Music volume = %f, want 0.5", v)
	}
	if v := e.graph.Volume(bus.SFX); v != 1 {
		t.Errorf("SFX volume = %f, want clamp to 1", v)
	}
	if w := e.width.Value(); w != 1 {
		t.Errorf("Headphone width = %f, want 1", w)
	}
	st.Output = settings.Speakers
	e.ApplySettings(st)
	if w := e.width.Value(); math.Abs(w-e.cfg.SpeakerWidth) > 1e-9 {
		t.Errorf("Speaker width = %f, want %f", w, e.cfg.SpeakerWidth)
	}
}

func TestStolenSlotIsDeclicked(t *testing.T) {
	e := newTestEngine(t)
	ones := make([]float32, 4096)
	for i := range ones {
		ones[i] = 1
	}
	s := &e.audio.slots[0]
	s.live, s.started = true, true
	s.src, s.step, s.loop = ones, 1, true
	s.gain, s.panL, s.panR = 1, 1, 1
	s.id = bus.SFX
	s.retire(e.audio.declick)

	n := e.mixer.Begin(256)
	e.renderTail(&s.tail, n)
	l, _ := e.mixer.Bus(bus.SFX)
	if l[0] < 0.9 {
		t.Errorf("Tail should start near full level, got %f", l[0])
	}
	for i := 1; i < n; i++ {
		if l[i] > l[i-1] {
			t.Fatalf("Tail rises at frame %d: %f > %f", i, l[i], l[i-1])
		}
	}
	if e.audio.declick < n && l[e.audio.declick] != 0 {
		t.Errorf("Tail should be silent after %d frames, got %f", e.audio.declick, l[e.audio.declick])
	}
	if s.tail.left != 0 {
		t.Errorf("Tail has %d frames left", s.tail.left)
	}
}

func TestResetClearsRuntimeState(t *testing.T) {
	e := newTestEngine(t, "siren")
	snap := withSiren(city(), 30)
	e.Update(snap, camera, tick)
	if e.pool.Stats().Active == 0 {
		t.Fatal("Expected a sounding siren before Reset")
	}

	e.Reset()
	if n := e.pool.Stats().Active; n != 0 {
		t.Errorf("Active voices after Reset = %d", n)
	}
	if e.registry.Len() != 0 {
		t.Errorf("Emitters after Reset = %d", e.registry.Len())
	}

	left := make([]float32, 256)
	right := make([]float32, 256)
	e.Process(left, right)

	// The next snapshot rebuilds everything.
	e.Update(snap, camera, tick)
	if e.pool.Stats().Active == 0 {
		t.Error("The siren should come back after the next Update")
	}
}

func TestStatsReportState(t *testing.T) {
	e := newTestEngine(t)
	e.Update(withSiren(city(), 30), camera, tick)
	s := e.Stats()
	if s.Tick != 1 {
		t.Errorf("Tick = %d, want 1", s.Tick)
	}
	if s.Emitters != 1 || s.Sources != 1 {
		t.Errorf("Emitters = %d sources = %d, want 1 and 1", s.Emitters, s.Sources)
	}
	if s.ListenerTier == "" || s.Section == "" || s.Mood == "" {
		t.Errorf("Missing names in %+v", s)
	}
	if len(s.Ambience) != 5 {
		t.Errorf("Ambience has %d layers", len(s.Ambience))
	}
	if len(e.Buses()) != int(bus.Count) {
		t.Errorf("Buses returned %d entries", len(e.Buses()))
	}
}

func TestGeneratorToggle(t *testing.T) {
	e := newTestEngine(t)
	names := e.Generators()
	if len(names) != 4 {
		t.Fatalf("Generators = %v", names)
	}
	if !e.SetGeneratorEnabled(names[0], false) {
		t.Errorf("SetGeneratorEnabled(%s) failed", names[0])
	}
	if e.SetGeneratorEnabled("nope", false) {
		t.Error("Unknown generator should not be found")
	}
}
