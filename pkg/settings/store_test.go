package settings

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/debug"
)

func newMemStore(t *testing.T) (*Store, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := Open(":memory:", debug.New(&out, "test", debug.FlagLevel))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, &out
}

func TestMigrationsApplied(t *testing.T) {
	s, _ := newMemStore(t)
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("query schema_migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("expected %d migrations recorded, got %d", len(migrations), count)
	}
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestLoadEmptyGivesDefaults(t *testing.T) {
	s, _ := newMemStore(t)
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Default() {
		t.Errorf("Load on empty store = %+v, want defaults", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := newMemStore(t)
	want := Default()
	want.Volumes[bus.Music] = 35
	want.Volumes[bus.UI] = 0
	want.Verbosity = CriticalOnly
	want.Mono = true
	want.Output = Speakers
	want.Spatial = false
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if n, _ := s.History(); n != 4+int(bus.Count) {
		t.Errorf("History = %d writes", n)
	}
}

func TestMalformedKeysFallBack(t *testing.T) {
	s, out := newMemStore(t)
	s.Set("volume.music", "loud")
	s.Set("volume.sfx", "250")
	s.Set("verbosity", "chatty")
	s.Set("mono", "true")

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if got.Volumes[bus.Music] != def.Volumes[bus.Music] {
		t.Errorf("Malformed volume should keep default, got %f", got.Volumes[bus.Music])
	}
	if got.Volumes[bus.SFX] != 100 {
		t.Errorf("Out-of-range volume should clamp to 100, got %f", got.Volumes[bus.SFX])
	}
	if got.Verbosity != def.Verbosity || !got.Mono {
		t.Errorf("Got %+v", got)
	}
	if !strings.Contains(out.String(), "volume.music") || !strings.Contains(out.String(), "verbosity") {
		t.Errorf("Malformed keys should be logged, got %q", out.String())
	}
}

func TestClosedStore(t *testing.T) {
	s, err := Open(":memory:", debug.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if _, err := s.Load(); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after close = %v", err)
	}
	if err := s.Save(Default()); !errors.Is(err, ErrClosed) {
		t.Errorf("Save after close = %v", err)
	}
	if _, _, err := s.Get("mono"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after close = %v", err)
	}
	if err := s.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Second Close = %v", err)
	}
}
