package music

import "math"

// StingerKind is a short one-shot phrase tied to a discrete event.
type StingerKind int

const (
	DisasterStart StingerKind = iota
	DisasterEnd
	MilestoneReached
	Achievement
	Notice

	// StingerKindCount is the number of stinger kinds.
	StingerKindCount
)

var stingerNames = [StingerKindCount]string{"disaster-start", "disaster-end", "milestone", "achievement", "notification"}

// String returns the stinger name.
func (k StingerKind) String() string {
	if k < 0 || k >= StingerKindCount {
		return "unknown"
	}
	return stingerNames[k]
}

// StingerSpec configures one stinger kind.
type StingerSpec struct {
	Bank     string  `json:"bank"`
	Priority int     `json:"priority"` // higher plays first and survives overflow
	Cooldown float64 `json:"cooldown"` // seconds before the kind may queue again
	Volume   float64 `json:"volume"`
}

// StingerConfig configures the stinger queue.
type StingerConfig struct {
	Specs [StingerKindCount]StingerSpec `json:"specs"`
	Depth int                           `json:"depth"`
}

// DefaultStingerConfig returns production stinger settings.
func DefaultStingerConfig() StingerConfig {
	return StingerConfig{
		Specs: [StingerKindCount]StingerSpec{
			DisasterStart:    {Bank: "stinger/disaster-start", Priority: 4, Cooldown: 30, Volume: 1},
			DisasterEnd:      {Bank: "stinger/disaster-end", Priority: 3, Cooldown: 30, Volume: 0.9},
			MilestoneReached: {Bank: "stinger/milestone", Priority: 3, Cooldown: 20, Volume: 0.9},
			Achievement:      {Bank: "stinger/achievement", Priority: 2, Cooldown: 10, Volume: 0.8},
			Notice:           {Bank: "stinger/notification", Priority: 1, Cooldown: 4, Volume: 0.6},
		},
		Depth: 4,
	}
}

type queuedStinger struct {
	kind StingerKind
	seq  uint64
}

// StingerQueue is a bounded queue with per-kind cooldowns. When full, the
// lowest-priority entry is dropped, the oldest first among equals.
type StingerQueue struct {
	cfg      StingerConfig
	items    []queuedStinger
	cooldown [StingerKindCount]float64
	seq      uint64
	played   [StingerKindCount]uint64
	dropped  uint64
}

// NewStingerQueue creates an empty queue.
func NewStingerQueue(cfg StingerConfig) *StingerQueue {
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultStingerConfig().Depth
	}
	return &StingerQueue{cfg: cfg, items: make([]queuedStinger, 0, cfg.Depth)}
}

// Spec returns the configuration of k.
func (q *StingerQueue) Spec(k StingerKind) StingerSpec {
	if k < 0 || k >= StingerKindCount {
		return StingerSpec{}
	}
	return q.cfg.Specs[k]
}

func (q *StingerQueue) priority(i int) int {
	return q.cfg.Specs[q.items[i].kind].Priority
}

// Enqueue adds k unless its cooldown is running or it loses to everything
// already queued. It reports whether k was queued.
func (q *StingerQueue) Enqueue(k StingerKind) bool {
	if k < 0 || k >= StingerKindCount || q.cooldown[k] > 0 {
		return false
	}
	q.seq++
	item := queuedStinger{kind: k, seq: q.seq}

	if len(q.items) >= q.cfg.Depth {
		victim := 0
		for i := 1; i < len(q.items); i++ {
			pi, pv := q.priority(i), q.priority(victim)
			if pi < pv || (pi == pv && q.items[i].seq < q.items[victim].seq) {
				victim = i
			}
		}
		if q.cfg.Specs[k].Priority < q.priority(victim) {
			q.dropped++
			return false
		}
		q.items = append(q.items[:victim], q.items[victim+1:]...)
		q.dropped++
	}
	q.items = append(q.items, item)
	q.cooldown[k] = q.cfg.Specs[k].Cooldown
	return true
}

// Pop removes the highest-priority stinger, the oldest first among equals.
func (q *StingerQueue) Pop() (StingerKind, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(q.items); i++ {
		pi, pb := q.priority(i), q.priority(best)
		if pi > pb || (pi == pb && q.items[i].seq < q.items[best].seq) {
			best = i
		}
	}
	k := q.items[best].kind
	q.items = append(q.items[:best], q.items[best+1:]...)
	q.played[k]++
	return k, true
}

// Advance runs cooldown timers.
func (q *StingerQueue) Advance(dt float64) {
	if dt <= 0 || math.IsNaN(dt) {
		return
	}
	for i := range q.cooldown {
		q.cooldown[i] = math.Max(0, q.cooldown[i]-dt)
	}
}

// Cooldown returns the seconds left before k may queue again.
func (q *StingerQueue) Cooldown(k StingerKind) float64 {
	if k < 0 || k >= StingerKindCount {
		return 0
	}
	return q.cooldown[k]
}

// Len returns the number of queued stingers.
func (q *StingerQueue) Len() int { return len(q.items) }

// Played returns how many stingers of kind k were popped for playback.
func (q *StingerQueue) Played(k StingerKind) uint64 {
	if k < 0 || k >= StingerKindCount {
		return 0
	}
	return q.played[k]
}

// TotalPlayed returns the number of stingers popped for playback.
func (q *StingerQueue) TotalPlayed() uint64 {
	var n uint64
	for _, p := range q.played {
		n += p
	}
	return n
}

// Dropped returns how many stingers were lost to overflow.
func (q *StingerQueue) Dropped() uint64 { return q.dropped }

// Reset empties the queue and clears cooldowns. Counters are kept.
func (q *StingerQueue) Reset() {
	q.items = q.items[:0]
	q.cooldown = [StingerKindCount]float64{}
}
