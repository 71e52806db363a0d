package music

import (
	"github.com/justyntemme/cityaudio/pkg/dsp"
	"github.com/justyntemme/cityaudio/pkg/dsp/mix"
)

// Renderer mixes looping stems on the audio side. Every stem is indexed by
// the transport frame, so stems of any section stay bar-aligned, and
// section changes happen on the exact frame the sequencer scheduled.
type Renderer struct {
	stems        [SectionCount][RoleCount][]float32
	framesPerBar float64
	gains        [RoleCount]float32
	primed       bool
	scratch      []float32
	mono         []float32
}

// NewRenderer creates a renderer for blocks of at most maxBlock frames.
func NewRenderer(framesPerBar float64, maxBlock int) *Renderer {
	if maxBlock <= 0 {
		maxBlock = dsp.MaxBlockSize
	}
	return &Renderer{
		framesPerBar: framesPerBar,
		scratch:      make([]float32, maxBlock),
		mono:         make([]float32, maxBlock),
	}
}

// SetStem installs the loop for role in section. Setup only.
func (r *Renderer) SetStem(s Section, role Role, samples []float32) {
	if s < 0 || s >= SectionCount || role < 0 || role >= RoleCount {
		return
	}
	r.stems[s][role] = samples
}

// Stem returns the loop for role in section.
func (r *Renderer) Stem(s Section, role Role) []float32 {
	if s < 0 || s >= SectionCount || role < 0 || role >= RoleCount {
		return nil
	}
	return r.stems[s][role]
}

// Loaded returns how many stem loops are installed.
func (r *Renderer) Loaded() int {
	n := 0
	for s := range r.stems {
		for _, buf := range r.stems[s] {
			if len(buf) > 0 {
				n++
			}
		}
	}
	return n
}

// sectionAt resolves which section sounds at frame and, during the bar
// after a transition, which section is fading out.
func sectionAt(f *Frame, frame int64) (cur, from Section, fadeStart int64, fading bool) {
	if f.HasPending && frame >= f.Pending.Frame {
		return f.Pending.To, f.Pending.From, f.Pending.Frame, true
	}
	if f.HasLast && f.Last.To == f.Section {
		return f.Section, f.Last.From, f.Last.Frame, true
	}
	return f.Section, f.Section, 0, false
}

func (r *Renderer) fadePos(fadeStart, frame int64) float64 {
	if r.framesPerBar <= 0 {
		return 1
	}
	return dsp.Clamp01(float64(frame-fadeStart) / r.framesPerBar)
}

// Render adds the stems for the block starting at transport frame start to
// left and right. It never allocates.
func (r *Renderer) Render(f *Frame, start int64, left, right []float32) {
	n := min(len(left), len(right), len(r.mono))
	if n == 0 {
		return
	}
	if !r.primed {
		r.gains = f.Volumes
		r.primed = true
	}

	mono := r.mono[:n]
	dsp.Clear(mono)

	split := n
	if f.HasPending && f.Pending.Frame > start && f.Pending.Frame < start+int64(n) {
		split = int(f.Pending.Frame - start)
	}
	r.segment(f, start, 0, split, n)
	if split < n {
		r.segment(f, start, split, n, n)
	}

	dsp.Add(left[:n], mono)
	dsp.Add(right[:n], mono)
	r.gains = f.Volumes
}

// segment renders frames [a, b) of an n-frame block into r.mono.
func (r *Renderer) segment(f *Frame, start int64, a, b, n int) {
	frame := start + int64(a)
	cur, from, fadeStart, fading := sectionAt(f, frame)
	inA, inB := float32(1), float32(1)
	var outA, outB float32
	if fading && from != cur {
		pa := r.fadePos(fadeStart, frame)
		pb := r.fadePos(fadeStart, start+int64(b))
		if pa < 1 {
			oa, ia := mix.EqualPower(pa)
			ob, ib := mix.EqualPower(pb)
			inA, inB = float32(ia), float32(ib)
			outA, outB = float32(oa), float32(ob)
		}
	}

	for role := Role(0); role < RoleCount; role++ {
		g0, g1 := r.gains[role], f.Volumes[role]
		va := g0 + (g1-g0)*float32(a)/float32(n)
		vb := g0 + (g1-g0)*float32(b)/float32(n)
		if va == 0 && vb == 0 {
			continue
		}
		r.add(cur, role, frame, a, b, va*inA, vb*inB)
		if outA > 0 || outB > 0 {
			r.add(from, role, frame, a, b, va*outA, vb*outB)
		}
	}
}

func (r *Renderer) add(s Section, role Role, frame int64, a, b int, ga, gb float32) {
	src := r.stems[s][role]
	if len(src) == 0 || (ga == 0 && gb == 0) {
		return
	}
	buf := r.scratch[:b-a]
	idx := int(frame % int64(len(src)))
	for i := range buf {
		buf[i] = src[idx]
		idx++
		if idx == len(src) {
			idx = 0
		}
	}
	dsp.AddRamped(r.mono[a:b], buf, ga, gb)
}

// Reset drops ramp state. Loops stay installed.
func (r *Renderer) Reset() {
	r.gains = [RoleCount]float32{}
	r.primed = false
}
