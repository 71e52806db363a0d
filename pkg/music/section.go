package music

// Section is a named segment of the piece.
type Section int

const (
	SectionIntro Section = iota
	SectionMain
	SectionDevelopment
	SectionContrast
	SectionBridge
	SectionClimax
	SectionReflective
	SectionTension

	// SectionCount is the number of sections.
	SectionCount
)

var sectionNames = [SectionCount]string{"intro", "main", "development", "contrast", "bridge", "climax", "reflective", "tension"}

// String returns the section name.
func (s Section) String() string {
	if s < 0 || s >= SectionCount {
		return "unknown"
	}
	return sectionNames[s]
}

// SectionConfig holds the minimum length of each section in bars.
type SectionConfig struct {
	MinBars [SectionCount]int `json:"min_bars"`
}

// DefaultSectionConfig returns production section lengths.
func DefaultSectionConfig() SectionConfig {
	return SectionConfig{MinBars: [SectionCount]int{
		SectionIntro:       4,
		SectionMain:        8,
		SectionDevelopment: 8,
		SectionContrast:    4,
		SectionBridge:      4,
		SectionClimax:      8,
		SectionReflective:  8,
		SectionTension:     4,
	}}
}

// NextSection picks where the piece goes after current for a mood.
func NextSection(current Section, mood Mood) Section {
	switch mood {
	case Paused:
		return current
	case Crisis:
		return SectionTension
	case MainMenu:
		if current == SectionIntro {
			return SectionMain
		}
		return SectionIntro
	case Milestone:
		if current == SectionClimax {
			return SectionMain
		}
		return SectionClimax
	case NightCalm:
		switch current {
		case SectionReflective:
			return SectionBridge
		default:
			return SectionReflective
		}
	case Energetic:
		switch current {
		case SectionMain:
			return SectionDevelopment
		case SectionDevelopment, SectionContrast:
			return SectionClimax
		case SectionClimax:
			return SectionBridge
		case SectionTension:
			return SectionReflective
		default:
			return SectionMain
		}
	}
	switch current {
	case SectionMain:
		return SectionDevelopment
	case SectionDevelopment:
		return SectionContrast
	case SectionClimax:
		return SectionBridge
	case SectionTension:
		return SectionReflective
	default:
		return SectionMain
	}
}

// Transition moves the piece between sections at a bar boundary.
type Transition struct {
	From  Section `json:"from"`
	To    Section `json:"to"`
	Bar   int64   `json:"bar"`
	Frame int64   `json:"frame"`
}

// Sequencer holds the current section and at most one pending transition.
// Transitions only ever execute on the bar boundary they were scheduled for.
type Sequencer struct {
	cfg        SectionConfig
	current    Section
	startBar   int64
	pending    Transition
	hasPending bool
	last       Transition
	hasLast    bool
	count      uint64
}

// NewSequencer starts in section start at bar.
func NewSequencer(cfg SectionConfig, start Section, bar int64) *Sequencer {
	return &Sequencer{cfg: cfg, current: start, startBar: bar}
}

// Current returns the current section.
func (q *Sequencer) Current() Section { return q.current }

// StartBar returns the bar the current section began on.
func (q *Sequencer) StartBar() int64 { return q.startBar }

// BarsElapsed returns the whole bars played in the current section at bar.
func (q *Sequencer) BarsElapsed(bar int64) int64 {
	return bar - q.startBar
}

// Pending returns the scheduled transition, if any.
func (q *Sequencer) Pending() (Transition, bool) {
	return q.pending, q.hasPending
}

// Last returns the most recently executed transition, if any.
func (q *Sequencer) Last() (Transition, bool) {
	return q.last, q.hasLast
}

// Transitions returns how many transitions have executed.
func (q *Sequencer) Transitions() uint64 { return q.count }

// Ready reports whether the current section has met its minimum length at
// frame.
func (q *Sequencer) Ready(t *Transport, frame int64) bool {
	return q.BarsElapsed(t.BarAt(frame)) >= int64(q.cfg.MinBars[q.current])
}

// Propose schedules a move to section to for the next bar boundary at or
// after frame. It does nothing while a transition is pending, before the
// current section's minimum length, or when to is already playing.
func (q *Sequencer) Propose(to Section, t *Transport, frame int64) bool {
	if q.hasPending || to == q.current || to < 0 || to >= SectionCount {
		return false
	}
	if !q.Ready(t, frame) {
		return false
	}
	q.schedule(to, t, frame)
	return true
}

// Request schedules to for the next bar boundary at or after frame,
// replacing any pending transition and ignoring minimum lengths. It never
// executes before that boundary.
func (q *Sequencer) Request(to Section, t *Transport, frame int64) bool {
	if to < 0 || to >= SectionCount {
		return false
	}
	if to == q.current {
		q.hasPending = false
		return false
	}
	if q.hasPending && q.pending.To == to {
		return true
	}
	q.schedule(to, t, frame)
	return true
}

func (q *Sequencer) schedule(to Section, t *Transport, frame int64) {
	bar, at := t.NextBar(frame)
	q.pending = Transition{From: q.current, To: to, Bar: bar, Frame: at}
	q.hasPending = true
}

// Tick executes the pending transition once frame reaches its boundary.
// It reports whether a transition executed.
func (q *Sequencer) Tick(frame int64) bool {
	if !q.hasPending || frame < q.pending.Frame {
		return false
	}
	tr := q.pending
	tr.From = q.current
	q.current = tr.To
	q.startBar = tr.Bar
	q.last = tr
	q.hasLast = true
	q.hasPending = false
	q.count++
	return true
}

// Crossfade reports the outgoing section and the fade position in [0, 1]
// at frame for the one-bar crossfade that follows a transition.
func (q *Sequencer) Crossfade(frame int64, framesPerBar float64) (from Section, pos float64, active bool) {
	if !q.hasLast || framesPerBar <= 0 || frame < q.last.Frame {
		return q.current, 1, false
	}
	pos = float64(frame-q.last.Frame) / framesPerBar
	if pos >= 1 {
		return q.current, 1, false
	}
	return q.last.From, pos, true
}

// Reset restarts in section start at bar with no history.
func (q *Sequencer) Reset(start Section, bar int64) {
	*q = Sequencer{cfg: q.cfg, current: start, startBar: bar}
}
