package param

// Tween is an explicit linear fade: from, to, duration and elapsed. It is
// advanced once per tick by the owner and never suspends.
type Tween struct {
	From     float64
	To       float64
	Duration float64
	Elapsed  float64
}

// Start begins a fade from the current value to target over duration seconds.
// A non-positive duration jumps immediately.
func (t *Tween) Start(target, duration float64) {
	t.From = t.Value()
	t.To = target
	t.Duration = duration
	t.Elapsed = 0
	if duration <= 0 {
		t.From = target
		t.Duration = 0
	}
}

// Set jumps to v with no fade.
func (t *Tween) Set(v float64) {
	*t = Tween{From: v, To: v}
}

// Advance moves the fade forward by dt seconds and returns the new value.
func (t *Tween) Advance(dt float64) float64 {
	if dt > 0 {
		t.Elapsed += dt
		if t.Elapsed > t.Duration {
			t.Elapsed = t.Duration
		}
	}
	return t.Value()
}

// Value returns the current value.
func (t *Tween) Value() float64 {
	if t.Duration <= 0 || t.Elapsed >= t.Duration {
		return t.To
	}
	return t.From + (t.To-t.From)*t.Elapsed/t.Duration
}

// Progress returns the fraction of the fade completed in [0, 1].
func (t *Tween) Progress() float64 {
	if t.Duration <= 0 {
		return 1
	}
	return t.Elapsed / t.Duration
}

// Done reports whether the fade has reached its target.
func (t *Tween) Done() bool {
	return t.Duration <= 0 || t.Elapsed >= t.Duration
}
