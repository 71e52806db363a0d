package debug

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler records timing for named control-tick sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	Name  string        `json:"name"`
	Count uint64        `json:"count"`
	Total time.Duration `json:"total_ns"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	Last  time.Duration `json:"last_ns"`
}

// NewProfiler creates an enabled profiler.
func NewProfiler() *Profiler {
	p := &Profiler{
		measurements: make(map[string]*Measurement),
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Start begins timing a named section.
func (p *Profiler) Start(name string) func() {
	if p == nil || !p.enabled.Load() {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.record(name, time.Since(start))
	}
}

// Time measures the execution time of a function.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

func (p *Profiler) record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{Name: name, Min: elapsed, Max: elapsed}
		p.measurements[name] = m
	}

	m.Count++
	m.Total += elapsed
	m.Last = elapsed
	if elapsed < m.Min {
		m.Min = elapsed
	}
	if elapsed > m.Max {
		m.Max = elapsed
	}
}

// Measurement returns a copy of the measurement for a named section.
func (p *Profiler) Measurement(name string) (Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return Measurement{}, false
	}
	return *m, true
}

// Snapshot returns copies of all measurements sorted by name.
func (p *Profiler) Snapshot() []Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]Measurement, 0, len(p.measurements))
	for _, m := range p.measurements {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report generates a performance report.
func (p *Profiler) Report() string {
	measurements := p.Snapshot()
	if len(measurements) == 0 {
		return "No measurements recorded"
	}

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n\n")
	for _, m := range measurements {
		fmt.Fprintf(&sb, "%s:\n", m.Name)
		fmt.Fprintf(&sb, "  Count:   %d\n", m.Count)
		fmt.Fprintf(&sb, "  Average: %v\n", m.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", m.Min)
		fmt.Fprintf(&sb, "  Max:     %v\n", m.Max)
		fmt.Fprintf(&sb, "  Last:    %v\n\n", m.Last)
	}
	return sb.String()
}

// Average returns the average time for this measurement.
func (m Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// CallbackLoad tracks how much of each buffer period the audio callback
// uses. Record is lock-free and allocation-free so it can run at the end of
// every callback.
type CallbackLoad struct {
	load     atomic.Uint64 // smoothed load ratio, float64 bits
	peak     atomic.Uint64 // worst load ratio, float64 bits
	overruns atomic.Uint64
	calls    atomic.Uint64
}

// Record notes that a callback covering period took elapsed.
func (c *CallbackLoad) Record(elapsed, period time.Duration) {
	if period <= 0 {
		return
	}
	ratio := float64(elapsed) / float64(period)
	prev := math.Float64frombits(c.load.Load())
	c.load.Store(math.Float64bits(prev + (ratio-prev)*0.05))
	if ratio > math.Float64frombits(c.peak.Load()) {
		c.peak.Store(math.Float64bits(ratio))
	}
	if ratio > 1 {
		c.overruns.Add(1)
	}
	c.calls.Add(1)
}

// Load returns the smoothed fraction of the buffer period in use.
func (c *CallbackLoad) Load() float64 { return math.Float64frombits(c.load.Load()) }

// Peak returns the worst observed fraction.
func (c *CallbackLoad) Peak() float64 { return math.Float64frombits(c.peak.Load()) }

// Overruns returns how many callbacks exceeded their period.
func (c *CallbackLoad) Overruns() uint64 { return c.overruns.Load() }

// Calls returns the number of recorded callbacks.
func (c *CallbackLoad) Calls() uint64 { return c.calls.Load() }
