package assets

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"testing/fstest"

	wav "github.com/youpy/go-wav"

	"github.com/justyntemme/cityaudio/pkg/framework/debug"
)

// encode writes 16-bit PCM frames. Each frame holds one value per channel.
func encode(t *testing.T, channels uint16, rate uint32, frames [][2]int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(len(frames)), channels, rate, 16)
	samples := make([]wav.Sample, len(frames))
	for i, f := range frames {
		samples[i] = wav.Sample{Values: f}
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func ramp(n int) [][2]int {
	frames := make([][2]int, n)
	for i := range frames {
		v := (i - n/2) * 100
		frames[i] = [2]int{v, v}
	}
	return frames
}

func quietLogger() (*debug.Logger, *bytes.Buffer) {
	var out bytes.Buffer
	return debug.New(&out, "test", debug.FlagLevel), &out
}

func TestDecodeStereoToMono(t *testing.T) {
	data := encode(t, 2, 48000, [][2]int{{16384, 0}, {-16384, -16384}, {0, 32767}})
	snd, err := Decode("fixture", data, 48000)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(snd.Samples) != 3 || snd.SampleRate != 48000 {
		t.Fatalf("Got %d samples at %f Hz", len(snd.Samples), snd.SampleRate)
	}
	if v := snd.Samples[0]; v < 0.24 || v > 0.26 {
		t.Errorf("Left-only half scale should fold to 0.25, got %f", v)
	}
	if v := snd.Samples[1]; v > -0.49 || v < -0.51 {
		t.Errorf("Both channels at -0.5 should give -0.5, got %f", v)
	}
}

func TestDecodeResamples(t *testing.T) {
	data := encode(t, 1, 24000, ramp(2400))
	snd, err := Decode("slow", data, 48000)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(snd.Samples) != 4800 || snd.SampleRate != 48000 {
		t.Errorf("Resampled to %d samples at %f Hz", len(snd.Samples), snd.SampleRate)
	}
	if d := snd.Duration(); d < 0.099 || d > 0.101 {
		t.Errorf("Duration = %f, want 0.1 s", d)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("junk", []byte("not a wav file at all"), 48000); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Garbage should be an unsupported format, got %v", err)
	}
	empty := encode(t, 1, 48000, nil)
	if _, err := Decode("empty", empty, 48000); !errors.Is(err, ErrEmptyBank) && !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Empty file error = %v", err)
	}
}

func TestResampleIdentityAndEdges(t *testing.T) {
	src := []float32{0, 1, 2, 3}
	if got := Resample(src, 48000, 48000); len(got) != 4 || got[3] != 3 {
		t.Errorf("Same-rate resample = %v", got)
	}
	if got := Resample(nil, 1, 2); got != nil {
		t.Error("Empty input should pass through")
	}
	down := Resample(src, 48000, 24000)
	if len(down) != 2 || down[1] != 2 {
		t.Errorf("Downsample = %v", down)
	}
}

func TestLibraryLoadFS(t *testing.T) {
	log, out := quietLogger()
	lib := NewLibrary(48000, log)
	fsys := fstest.MapFS{
		"sounds/siren/a.wav":               {Data: encode(t, 1, 48000, ramp(64))},
		"sounds/siren/b.WAV":               {Data: encode(t, 1, 48000, ramp(32))},
		"sounds/stems/main/foundation.wav": {Data: encode(t, 1, 48000, ramp(128))},
		"sounds/horn.wav":                  {Data: encode(t, 1, 48000, ramp(16))},
		"sounds/broken/x.wav":              {Data: []byte("RIFF????")},
		"sounds/readme.txt":                {Data: []byte("ignored")},
	}
	n, err := lib.LoadFS(fsys, "sounds")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if n != 4 {
		t.Errorf("Loaded %d variants, want 4", n)
	}
	siren, ok := lib.Bank("siren")
	if !ok || len(siren.Variants) != 2 {
		t.Fatalf("siren bank = %+v", siren)
	}
	if _, ok := lib.Bank("stems/main"); !ok {
		t.Error("Stem directory should form a bank")
	}
	if _, ok := lib.Bank("horn"); !ok {
		t.Error("Root-level file should form its own bank")
	}
	if !strings.Contains(out.String(), "broken/x.wav") {
		t.Errorf("Broken file should be logged, got %q", out.String())
	}
	if lib.Sound(siren.ID, 3) == nil {
		t.Error("Variant index should wrap")
	}
}

func TestMissingBankLoggedOnce(t *testing.T) {
	log, out := quietLogger()
	lib := NewLibrary(48000, log)
	for i := 0; i < 5; i++ {
		if _, ok := lib.Bank("ghost"); ok {
			t.Fatal("ghost bank should be missing")
		}
	}
	if c := strings.Count(out.String(), "ghost"); c != 1 {
		t.Errorf("Missing bank logged %d times, want 1", c)
	}
	if lib.ID("ghost") != -1 || lib.ByID(-1) != nil || lib.Sound(42, 0) != nil {
		t.Error("Missing lookups should return empty values")
	}
}

func TestLibraryAdd(t *testing.T) {
	log, _ := quietLogger()
	lib := NewLibrary(48000, log)
	if _, err := lib.AddSamples("empty", nil); !errors.Is(err, ErrEmptyBank) {
		t.Errorf("Empty add error = %v", err)
	}
	b, err := lib.AddSamples("cheer", []float32{0.1, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	lib.AddSamples("cheer", []float32{0.3})
	lib.AddSamples("train", []float32{0.4})
	if lib.Len() != 2 || len(b.Variants) != 2 {
		t.Errorf("Len %d, variants %d", lib.Len(), len(b.Variants))
	}
	if names := lib.Names(); names[0] != "cheer" || names[1] != "train" {
		t.Errorf("Names = %v", names)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		if v := b.Pick(rng); v < 0 || v > 1 {
			t.Errorf("Pick = %d", v)
		}
	}
	if StemName("main", "bass") != "stems/main/bass" {
		t.Error("StemName")
	}
}
