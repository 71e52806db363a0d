package diag

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justyntemme/cityaudio/pkg/engine"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/debug"
)

type fakeSource struct {
	stats engine.Stats
	graph *bus.Graph
}

func (f *fakeSource) Stats() engine.Stats { return f.stats }
func (f *fakeSource) Buses() []bus.Level  { return f.graph.Levels() }

func newTestServer(stats engine.Stats) (*Server, *fakeSource) {
	src := &fakeSource{stats: stats, graph: bus.NewGraph()}
	return New(src, debug.NewProfiler(), debug.New(io.Discard, "", 0)), src
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthIdleBeforeFirstCallback(t *testing.T) {
	s, _ := newTestServer(engine.Stats{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	if err := s.handleHealth(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "idle" {
		t.Errorf("status field: got %q, want %q", resp.Status, "idle")
	}
}

func TestHealthOKWhileRendering(t *testing.T) {
	s, _ := newTestServer(engine.Stats{Callbacks: 12, Overruns: 1})
	rec := get(t, s, "/health")

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.Callbacks != 12 || resp.Overruns != 1 {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, _ := newTestServer(engine.Stats{
		Tick:          42,
		Section:       "tension",
		Mood:          "crisis",
		ListenerTier:  "aggregated",
		ActivePerTier: map[string]int{"full": 3},
	})
	rec := get(t, s, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var resp engine.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Tick != 42 || resp.Section != "tension" || resp.Mood != "crisis" {
		t.Errorf("unexpected stats %+v", resp)
	}
	if resp.ActivePerTier["full"] != 3 {
		t.Errorf("active per tier: got %v", resp.ActivePerTier)
	}
}

func TestBusesEndpoint(t *testing.T) {
	s, src := newTestServer(engine.Stats{})
	src.graph.SetVolume(bus.Music, 0.5)
	src.graph.SetDuckGain(bus.Stems, 0.25)

	rec := get(t, s, "/api/buses")
	var levels []bus.Level
	if err := json.Unmarshal(rec.Body.Bytes(), &levels); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(levels) != int(bus.Count) {
		t.Fatalf("buses: got %d, want %d", len(levels), bus.Count)
	}
	stems := levels[bus.Stems]
	if stems.Parent != "music" {
		t.Errorf("stems parent: got %q", stems.Parent)
	}
	if stems.Effective != 0.5*0.25 {
		t.Errorf("stems effective: got %f, want %f", stems.Effective, 0.5*0.25)
	}
}

func TestSingleBusEndpoint(t *testing.T) {
	s, src := newTestServer(engine.Stats{})
	src.graph.SetVolume(bus.SFX, 0.8)

	rec := get(t, s, "/api/buses/SFX")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var l bus.Level
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l.Bus != "sfx" || l.Volume != 0.8 {
		t.Errorf("unexpected level %+v", l)
	}

	if rec := get(t, s, "/api/buses/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown bus: got %d, want 404", rec.Code)
	}
}

func TestProfileEndpoint(t *testing.T) {
	s, _ := newTestServer(engine.Stats{})
	s.prof.Time("engine.update", func() {})

	rec := get(t, s, "/api/profile")
	var ms []debug.Measurement
	if err := json.Unmarshal(rec.Body.Bytes(), &ms); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ms) != 1 || ms[0].Name != "engine.update" || ms[0].Count != 1 {
		t.Errorf("unexpected profile %+v", ms)
	}
}
