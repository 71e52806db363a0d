package music

import (
	"github.com/justyntemme/cityaudio/pkg/sim"
)

// Cue reports what changed during one Director update. The engine turns it
// into voices and ducking.
type Cue struct {
	MoodChanged bool
	// CrisisOnset and CrisisRelief mark the edges of a crisis.
	CrisisOnset  bool
	CrisisRelief bool
	// Stinger is set when a stinger should start on StingerFrame.
	HasStinger   bool
	Stinger      StingerKind
	StingerFrame int64
	// Transitioned is set when a section transition executed this tick.
	Transitioned bool
}

// Frame is the music state published to the audio context.
type Frame struct {
	Section    Section
	Pending    Transition
	HasPending bool
	Last       Transition
	HasLast    bool
	Volumes    [RoleCount]float32
}

// Director drives the score from simulation snapshots: mood, section
// progression, stem targets and stingers. Control context only.
type Director struct {
	cfg       Config
	transport *Transport
	seq       *Sequencer
	mood      *MoodTracker
	stingers  *StingerQueue
	stems     Stems

	lastBeat      int64
	targetsSet    bool
	crisis        bool
	disaster      bool
	tier          int
	tierKnown     bool
	stingerActive bool
}

// NewDirector creates a director clocked by t.
func NewDirector(cfg Config, t *Transport) *Director {
	cfg.Validate()
	d := &Director{
		cfg:       cfg,
		transport: t,
		seq:       NewSequencer(cfg.Sections, cfg.StartIn, t.BarAt(t.Frame())),
		mood:      NewMoodTracker(cfg.Mood),
		stingers:  NewStingerQueue(cfg.Stingers),
	}
	return d
}

// Transport returns the clock.
func (d *Director) Transport() *Transport { return d.transport }

// Sequencer returns the section sequencer.
func (d *Director) Sequencer() *Sequencer { return d.seq }

// Stingers returns the stinger queue.
func (d *Director) Stingers() *StingerQueue { return d.stingers }

// Mood returns the current mood.
func (d *Director) Mood() MoodState { return d.mood.State() }

// Section returns the current section.
func (d *Director) Section() Section { return d.seq.Current() }

// Stems returns current and target stem volumes.
func (d *Director) Stems() Stems { return d.stems }

// InCrisis reports whether the director is in crisis mode.
func (d *Director) InCrisis() bool { return d.crisis }

// Notify queues a stinger for a UI or gameplay event. It reports whether the
// stinger was queued.
func (d *Director) Notify(k StingerKind) bool {
	return d.stingers.Enqueue(k)
}

// SetStingerActive tells the director whether the last stinger is still
// sounding. A new stinger only starts once the previous one has ended.
func (d *Director) SetStingerActive(active bool) {
	d.stingerActive = active
}

// StingerActive reports whether a stinger is sounding.
func (d *Director) StingerActive() bool { return d.stingerActive }

// Update advances the score by dt seconds against snapshot s.
func (d *Director) Update(s *sim.Snapshot, dt float64) Cue {
	var cue Cue
	t := d.transport
	frame := t.Frame()

	d.stingers.Advance(dt)
	cue.Transitioned = d.seq.Tick(frame)
	cue.MoodChanged = d.mood.Update(s, dt)
	mood := d.mood.State()

	playing := s.App == sim.Playing
	disaster := playing && s.InDisaster()
	crisis := playing && (disaster || mood.Mood == Crisis)

	if disaster && !d.disaster {
		d.stingers.Enqueue(DisasterStart)
	} else if !disaster && d.disaster {
		d.stingers.Enqueue(DisasterEnd)
	}
	d.disaster = disaster

	if playing {
		if d.tierKnown && s.MilestoneTier > d.tier {
			d.stingers.Enqueue(MilestoneReached)
		}
		d.tier = s.MilestoneTier
		d.tierKnown = true
	}

	switch {
	case crisis && !d.crisis:
		cue.CrisisOnset = true
		d.seq.Request(SectionTension, t, frame)
	case !crisis && d.crisis:
		cue.CrisisRelief = true
		if d.seq.Current() == SectionTension {
			d.seq.Propose(SectionReflective, t, frame)
		} else if p, ok := d.seq.Pending(); ok && p.To == SectionTension {
			d.seq.Request(SectionReflective, t, frame)
		}
	}
	d.crisis = crisis

	if _, pending := d.seq.Pending(); !pending && d.seq.Ready(t, frame) {
		next := NextSection(d.seq.Current(), mood.Mood)
		if crisis {
			next = SectionTension
		}
		d.seq.Propose(next, t, frame)
	}

	beat := t.BeatAt(frame)
	if !d.targetsSet || beat != d.lastBeat || cue.CrisisOnset || cue.CrisisRelief || cue.MoodChanged {
		d.stems.SetTargets(StemTargets(s, mood, &d.cfg.Stems))
		d.lastBeat = beat
		d.targetsSet = true
	}
	d.stems.Advance(dt, t.BarSeconds(), &d.cfg.Stems)

	if !d.stingerActive {
		if k, ok := d.stingers.Pop(); ok {
			cue.HasStinger = true
			cue.Stinger = k
			cue.StingerFrame = t.NextBeatFrame(frame)
			d.stingerActive = true
		}
	}
	return cue
}

// Frame returns the state the audio context needs to render stems.
func (d *Director) Frame() Frame {
	f := Frame{Section: d.seq.Current()}
	f.Pending, f.HasPending = d.seq.Pending()
	f.Last, f.HasLast = d.seq.Last()
	for i, v := range d.stems.Current {
		f.Volumes[i] = float32(v)
	}
	return f
}

// Reset forgets all musical state and restarts at the current bar.
func (d *Director) Reset() {
	d.seq.Reset(d.cfg.StartIn, d.transport.BarAt(d.transport.Frame()))
	d.mood.Reset()
	d.stingers.Reset()
	d.stems.Reset()
	d.lastBeat = 0
	d.targetsSet = false
	d.crisis = false
	d.disaster = false
	d.tierKnown = false
	d.stingerActive = false
}
