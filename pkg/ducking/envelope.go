// Package ducking lowers bus gains while higher-priority material plays.
// Each trigger-to-bus pair owns an attack/hold/release envelope in dB; the
// envelopes on one bus combine by taking the deepest value.
package ducking

import "math"

// Stage is the envelope state.
type Stage int

const (
	Idle Stage = iota
	Attacking
	Holding
	Releasing
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attacking:
		return "attacking"
	case Holding:
		return "holding"
	case Releasing:
		return "releasing"
	}
	return "unknown"
}

// HoldUntilReleased holds the duck until Release is called.
const HoldUntilReleased = -1

// Envelope ramps linearly in dB from 0 toward TargetDB over Attack seconds,
// holds, then ramps back to 0 over Release seconds. Release is always
// longer than Attack.
type Envelope struct {
	targetDB float64
	attack   float64
	release  float64

	stage   Stage
	current float64 // dB, in [targetDB, 0]
	hold    float64 // seconds left, counted from the trigger; <0 waits for Release
}

// NewEnvelope creates an idle envelope.
func NewEnvelope(targetDB, attack, release float64) *Envelope {
	e := &Envelope{}
	e.Configure(targetDB, attack, release)
	return e
}

// epsilon absorbs rounding when a ramp or hold ends on a tick boundary.
const epsilon = 1e-9

// minAttack keeps ramps finite so a zero attack never clicks.
const minAttack = 0.001

// Configure sets the depth and times. A release that is not longer than the
// attack is stretched to twice the attack.
func (e *Envelope) Configure(targetDB, attack, release float64) {
	if math.IsNaN(targetDB) || targetDB > 0 {
		targetDB = 0
	}
	if math.IsNaN(attack) || attack < minAttack {
		attack = minAttack
	}
	if math.IsNaN(release) || release <= attack {
		release = 2 * attack
	}
	e.targetDB, e.attack, e.release = targetDB, attack, release
	if e.current < targetDB {
		e.current = targetDB
	}
}

// TargetDB returns the full duck depth.
func (e *Envelope) TargetDB() float64 { return e.targetDB }

// Attack returns the attack time in seconds.
func (e *Envelope) Attack() float64 { return e.attack }

// ReleaseTime returns the release time in seconds.
func (e *Envelope) ReleaseTime() float64 { return e.release }

// Stage returns the current stage.
func (e *Envelope) Stage() Stage { return e.stage }

// DB returns the current attenuation (0 or negative).
func (e *Envelope) DB() float64 { return e.current }

// Trigger starts or extends the duck for hold seconds (HoldUntilReleased
// for an open-ended hold). During attack or hold the hold is extended;
// during release the envelope re-attacks from its current value.
func (e *Envelope) Trigger(hold float64) {
	if math.IsNaN(hold) {
		hold = 0
	}
	switch e.stage {
	case Attacking, Holding:
		if hold < 0 || e.hold < 0 {
			e.hold = HoldUntilReleased
		} else if hold > e.hold {
			e.hold = hold
		}
		return
	}
	e.hold = hold
	e.stage = Attacking
}

// Release ends the hold so the envelope ramps back after reaching target.
func (e *Envelope) Release() {
	switch e.stage {
	case Holding:
		e.stage = Releasing
		e.hold = 0
	case Attacking:
		e.hold = 0
	}
}

// Advance moves the envelope forward by dt seconds.
func (e *Envelope) Advance(dt float64) {
	if dt <= 0 || math.IsNaN(dt) {
		return
	}
	if e.hold > 0 {
		if e.hold -= dt; e.hold < epsilon {
			e.hold = 0
		}
	}
	for dt > 0 {
		switch e.stage {
		case Idle:
			return
		case Attacking:
			if e.targetDB == 0 {
				e.stage = Holding
				continue
			}
			rate := -e.targetDB / e.attack
			need := (e.current - e.targetDB) / rate
			if need > dt+epsilon {
				e.current -= rate * dt
				return
			}
			e.current = e.targetDB
			dt -= need
			e.stage = Holding
		case Holding:
			if e.hold != 0 {
				return
			}
			e.stage = Releasing
		case Releasing:
			if e.targetDB == 0 || e.current >= 0 {
				e.current = 0
				e.stage = Idle
				return
			}
			rate := -e.targetDB / e.release
			need := -e.current / rate
			if need > dt+epsilon {
				e.current += rate * dt
				return
			}
			e.current = 0
			e.stage = Idle
			return
		}
	}
}

// Reset returns the envelope to idle at 0 dB.
func (e *Envelope) Reset() {
	e.stage = Idle
	e.current = 0
	e.hold = 0
}
