// Package assets loads sound banks and music stems into memory and resolves
// them by name. A missing or broken asset never stops the engine: lookups
// report absence and log it once per identifier.
package assets

import (
	"fmt"
	"io/fs"
	"math/rand"
	"path"
	"sort"
	"strings"

	"github.com/justyntemme/cityaudio/pkg/framework/debug"
)

// Bank is a named set of interchangeable variants.
type Bank struct {
	ID       int32
	Name     string
	Variants []*Sound
}

// Variant returns variant i wrapped into range, or nil for an empty bank.
func (b *Bank) Variant(i int32) *Sound {
	if b == nil || len(b.Variants) == 0 {
		return nil
	}
	n := int32(len(b.Variants))
	return b.Variants[((i%n)+n)%n]
}

// Pick returns a random variant index.
func (b *Bank) Pick(rng *rand.Rand) int32 {
	if b == nil || len(b.Variants) <= 1 || rng == nil {
		return 0
	}
	return int32(rng.Intn(len(b.Variants)))
}

// Library holds every loaded bank. It is filled during setup and read-only
// afterwards, so the audio context may call ByID without locking.
type Library struct {
	sampleRate float64
	log        *debug.Logger

	banks []*Bank
	index map[string]int32
}

// NewLibrary creates an empty library that resamples to sampleRate.
func NewLibrary(sampleRate float64, log *debug.Logger) *Library {
	return &Library{
		sampleRate: sampleRate,
		log:        debug.Or(log),
		index:      make(map[string]int32),
	}
}

// SampleRate returns the rate every sound is stored at.
func (l *Library) SampleRate() float64 { return l.sampleRate }

// Add appends a variant to bank name, creating the bank on first use.
func (l *Library) Add(name string, s *Sound) (*Bank, error) {
	if s == nil || len(s.Samples) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyBank)
	}
	id, ok := l.index[name]
	if !ok {
		id = int32(len(l.banks))
		l.banks = append(l.banks, &Bank{ID: id, Name: name})
		l.index[name] = id
		// A bank that was missing earlier may be reported again if it goes.
		l.log.Forget("missing-bank:" + name)
	}
	b := l.banks[id]
	b.Variants = append(b.Variants, s)
	return b, nil
}

// AddSamples adds raw mono samples at the library rate.
func (l *Library) AddSamples(name string, samples []float32) (*Bank, error) {
	return l.Add(name, &Sound{Name: name, Samples: samples, SampleRate: l.sampleRate})
}

// LoadFS loads every .wav file under root. A file's bank is its directory
// relative to root, so root/siren/a.wav and root/siren/b.wav are two
// variants of "siren". Files that fail to decode are logged and skipped;
// the returned count is the number of variants loaded.
func (l *Library) LoadFS(fsys fs.FS, root string) (int, error) {
	loaded := 0
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".wav") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			l.log.Once("read:"+p, debug.LogLevelWarn, "skipping %s: %v", p, err)
			return nil
		}
		rel := strings.TrimPrefix(path.Dir(p), root)
		bank := strings.Trim(rel, "/")
		if bank == "" {
			bank = strings.TrimSuffix(path.Base(p), path.Ext(p))
		}
		snd, err := Decode(p, data, l.sampleRate)
		if err != nil {
			l.log.Once("decode:"+p, debug.LogLevelWarn, "skipping %v", err)
			return nil
		}
		if _, err := l.Add(bank, snd); err != nil {
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("loading %s: %w", root, err)
	}
	l.log.Info("loaded %d variants in %d banks from %s", loaded, len(l.banks), root)
	return loaded, nil
}

// Bank resolves a bank by name. A miss is logged once per name.
func (l *Library) Bank(name string) (*Bank, bool) {
	b, ok := l.Lookup(name)
	if !ok {
		l.log.Once("missing-bank:"+name, debug.LogLevelWarn, "sound bank %q not found, emitter stays silent", name)
	}
	return b, ok
}

// Lookup resolves an optional bank by name without logging a miss.
func (l *Library) Lookup(name string) (*Bank, bool) {
	id, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.banks[id], true
}

// ID returns the numeric id of bank name, or -1 when it is missing.
func (l *Library) ID(name string) int32 {
	if b, ok := l.Bank(name); ok {
		return b.ID
	}
	return -1
}

// ByID returns a bank by id without logging. Safe in the audio context.
func (l *Library) ByID(id int32) *Bank {
	if id < 0 || int(id) >= len(l.banks) {
		return nil
	}
	return l.banks[id]
}

// Sound returns the samples of variant in bank id, or nil.
func (l *Library) Sound(id, variant int32) []float32 {
	s := l.ByID(id).Variant(variant)
	if s == nil {
		return nil
	}
	return s.Samples
}

// StemName returns the bank name of a music stem.
func StemName(section, role string) string {
	return "stems/" + section + "/" + role
}

// Names returns every bank name in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.banks))
	for _, b := range l.banks {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of banks.
func (l *Library) Len() int { return len(l.banks) }
