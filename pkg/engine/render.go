package engine

import (
	"time"

	"github.com/justyntemme/cityaudio/pkg/dsp"
	"github.com/justyntemme/cityaudio/pkg/dsp/filter"
	"github.com/justyntemme/cityaudio/pkg/dsp/pan"
	"github.com/justyntemme/cityaudio/pkg/framework/bus"
	"github.com/justyntemme/cityaudio/pkg/framework/voice"
)

// tail is the outgoing sound of a slot that was stolen or freed while
// still audible. It is ramped to silence over the declick time.
type tail struct {
	src        []float32
	pos, step  float64
	loop       bool
	gain       float32
	panL, panR float32
	bus        bus.ID
	left, span int // frames remaining, total ramp frames
}

// slot is the audio side's playback state for one voice slot.
type slot struct {
	gen     uint32
	live    bool
	started bool
	src     []float32
	pos     float64
	step    float64
	loop    bool
	id      bus.ID

	gain       float32
	panL, panR float32
	lowpass    *filter.SVF
	filtered   bool

	tail tail
}

// retire moves an audible sound into the tail so it fades instead of
// stopping dead, then clears the slot for the next generation.
func (s *slot) retire(declick int) {
	if s.live && s.started && s.gain > 0 && s.src != nil {
		s.tail = tail{
			src:  s.src,
			pos:  s.pos,
			step: s.step,
			loop: s.loop,
			gain: s.gain,
			panL: s.panL,
			panR: s.panR,
			bus:  s.id,
			left: declick,
			span: declick,
		}
	}
	s.started = false
	s.src = nil
	s.pos = 0
	s.gain = 0
	s.filtered = false
	s.lowpass.Reset()
}

type audioState struct {
	slots   []slot
	declick int
	rate    float64
}

func (a *audioState) init(voices int, sampleRate float64) {
	a.rate = sampleRate
	a.declick = max(1, int(dsp.DeclickSeconds*sampleRate))
	a.slots = make([]slot, voices)
	for i := range a.slots {
		a.slots[i].lowpass = filter.NewSVF(1, sampleRate)
	}
}

// Process renders left and right. It belongs to the audio context: it
// reads the latest published frame, never blocks and never allocates.
// Requests longer than MaxBlock are rendered in chunks.
func (e *Engine) Process(left, right []float32) {
	begin := time.Now()
	n := min(len(left), len(right))
	f := e.frames.Read()
	for off := 0; off < n; {
		m := min(n-off, e.cfg.MaxBlock)
		e.block(f, left[off:off+m], right[off:off+m])
		off += m
	}
	if n > 0 {
		e.load.Record(time.Since(begin), time.Duration(float64(n)/e.cfg.SampleRate*float64(time.Second)))
	}
}

// block renders one chunk of at most MaxBlock frames.
func (e *Engine) block(f *MixFrame, left, right []float32) {
	n := e.mixer.Begin(len(left))
	frame := e.transport.Frame()

	for i := range f.Voices {
		if i >= len(e.audio.slots) {
			break
		}
		e.renderVoice(&e.audio.slots[i], &f.Voices[i], frame, n)
	}
	for _, g := range e.gens {
		l, r := e.mixer.Bus(g.bus)
		g.gen.Render(l, r)
	}
	sl, sr := e.mixer.Bus(bus.Stems)
	e.renderer.Render(&f.Music, frame, sl, sr)

	e.mixer.Mix(left[:n], right[:n])
	e.meter.Process(left[:n], right[:n])
	e.transport.Advance(n)
}

func (e *Engine) renderVoice(s *slot, v *voice.Voice, frame int64, n int) {
	live := v.State != voice.Free
	if s.gen != v.Handle.Generation || (s.live && !live) {
		s.retire(e.audio.declick)
		s.gen = v.Handle.Generation
	}
	s.live = live
	if s.tail.left > 0 {
		e.renderTail(&s.tail, n)
	}
	if !live {
		return
	}

	if !s.started {
		src := e.lib.Sound(v.Source, v.Variant)
		if src == nil {
			return
		}
		offset := 0
		if v.StartFrame > frame {
			d := v.StartFrame - frame
			if d >= int64(n) {
				return
			}
			offset = int(d)
		}
		s.src = src
		s.loop = v.Loop
		s.id = v.Bus
		s.started = true
		s.gain = float32(v.Level())
		s.panL, s.panR = pan.MonoToStereo(float32(v.Pan), pan.ConstantPower)
		e.play(s, v, offset, n)
		return
	}
	e.play(s, v, 0, n)
}

// play adds frames [from, n) of the slot's sound to its bus, ramping gain
// and pan from the previous block's values to the voice's current ones.
func (e *Engine) play(s *slot, v *voice.Voice, from, n int) {
	s.step = v.Pitch
	if s.step <= 0 {
		s.step = 1
	}
	target := float32(v.Level())
	pl, pr := pan.MonoToStereo(float32(v.Pan), pan.ConstantPower)
	if v.Cutoff > 0 {
		s.lowpass.SetFrequency(v.Cutoff)
		if !s.filtered {
			s.lowpass.Reset()
			s.filtered = true
		}
	} else {
		s.filtered = false
	}

	count := n - from
	if count <= 0 || (target == 0 && s.gain == 0) {
		s.advance(count)
		s.gain, s.panL, s.panR = target, pl, pr
		return
	}
	inv := 1 / float32(count)
	dg := (target - s.gain) * inv
	dl := (pl - s.panL) * inv
	dr := (pr - s.panR) * inv
	g, cl, cr := s.gain, s.panL, s.panR

	bl, br := e.mixer.Bus(s.id)
	src := s.src
	size := float64(len(src))
	for i := from; i < n; i++ {
		if s.pos >= size {
			if !s.loop {
				break
			}
			s.pos -= size
			if s.pos >= size {
				s.pos = 0
			}
		}
		x := sample(src, s.pos, s.loop)
		if s.filtered {
			x = s.lowpass.Lowpass(x, 0)
		}
		g += dg
		cl += dl
		cr += dr
		bl[i] += x * g * cl
		br[i] += x * g * cr
		s.pos += s.step
	}
	s.gain, s.panL, s.panR = target, pl, pr
}

// advance moves the playhead without producing output.
func (s *slot) advance(frames int) {
	if frames <= 0 || len(s.src) == 0 {
		return
	}
	s.pos += float64(frames) * s.step
	if s.loop {
		for size := float64(len(s.src)); s.pos >= size; {
			s.pos -= size
		}
	}
}

func (e *Engine) renderTail(t *tail, n int) {
	bl, br := e.mixer.Bus(t.bus)
	size := float64(len(t.src))
	frames := min(n, t.left)
	for i := 0; i < frames; i++ {
		if t.pos >= size {
			if !t.loop {
				break
			}
			t.pos -= size
		}
		g := t.gain * float32(t.left-i) / float32(t.span)
		x := sample(t.src, t.pos, t.loop) * g
		bl[i] += x * t.panL
		br[i] += x * t.panR
		t.pos += t.step
	}
	t.left -= frames
	if t.left <= 0 {
		t.src = nil
		t.left = 0
	}
}

// sample reads src at a fractional position with linear interpolation.
func sample(src []float32, pos float64, loop bool) float32 {
	i := int(pos)
	if i >= len(src) {
		return 0
	}
	frac := float32(pos - float64(i))
	a := src[i]
	var b float32
	switch {
	case i+1 < len(src):
		b = src[i+1]
	case loop:
		b = src[0]
	}
	return a + (b-a)*frac
}
