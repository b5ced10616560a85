// Package arbiter implements set dueling between SHiP++ and Hawkeye with a
// hysteresis walk for the follower sets.
package arbiter

import (
	"log"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/satcounter"
)

// Heuristic names one of the two competing policies.
type Heuristic int

// The competing policies.
const (
	SHiPPP Heuristic = iota
	Hawkeye
)

func (h Heuristic) String() string {
	switch h {
	case SHiPPP:
		return "SHiP++"
	case Hawkeye:
		return "Hawkeye"
	default:
		return "Unknown"
	}
}

// State is the position of the hysteresis walk.
type State int

// The states, ordered from fully committed to SHiP++ to fully committed to
// Hawkeye.
const (
	StrongSHiP State = iota
	WeakSHiP
	WeakHawkeye
	StrongHawkeye
)

func (s State) String() string {
	switch s {
	case StrongSHiP:
		return "StrongSHiP"
	case WeakSHiP:
		return "WeakSHiP"
	case WeakHawkeye:
		return "WeakHawkeye"
	case StrongHawkeye:
		return "StrongHawkeye"
	default:
		return "Unknown"
	}
}

// Arbiter holds the policy selector (PSEL) and the follower state.
type Arbiter struct {
	psel  satcounter.Counter
	state State

	switches uint64
	pingPong uint64
}

// New creates an arbiter with PSEL at its midpoint and the followers weakly
// committed to SHiP++.
func New(maxPSEL uint32) *Arbiter {
	if maxPSEL < 2 {
		log.Panicf("max PSEL must be at least 2, got %d", maxPSEL)
	}

	return &Arbiter{
		psel:  satcounter.NewCounter(maxPSEL, maxPSEL/2),
		state: WeakSHiP,
	}
}

// LeaderMiss records a miss in a leader set of h. Misses of SHiP++ leaders
// push PSEL up, misses of Hawkeye leaders push it down.
func (a *Arbiter) LeaderMiss(h Heuristic) {
	switch h {
	case SHiPPP:
		a.psel.Inc()
	case Hawkeye:
		a.psel.Dec()
	default:
		log.Panicf("unknown heuristic %d", int(h))
	}
}

// Governing returns the heuristic that the current state assigns to follower
// sets.
func (a *Arbiter) Governing() Heuristic {
	switch a.state {
	case StrongSHiP, WeakSHiP:
		return SHiPPP
	case WeakHawkeye, StrongHawkeye:
		return Hawkeye
	default:
		log.Panicf("unknown arbiter state %d", int(a.state))
	}

	return SHiPPP
}

// Step moves the walk one position towards Hawkeye if PSEL is above its
// midpoint and one position towards SHiP++ otherwise. It returns the states
// before and after the step.
func (a *Arbiter) Step() (prev, next State) {
	prev = a.state
	above := a.psel.Above()

	switch prev {
	case StrongSHiP:
		next = StrongSHiP
		if above {
			next = WeakSHiP
		}
	case WeakSHiP:
		next = StrongSHiP
		if above {
			next = WeakHawkeye
		}
	case WeakHawkeye:
		next = WeakSHiP
		if above {
			next = StrongHawkeye
		}
	case StrongHawkeye:
		next = WeakHawkeye
		if above {
			next = StrongHawkeye
		}
	default:
		log.Panicf("unknown arbiter state %d", int(prev))
	}

	if prev == WeakSHiP && next == WeakHawkeye {
		a.switches++
	}

	if prev == WeakHawkeye && next == WeakSHiP {
		a.pingPong++
	}

	a.state = next

	return prev, next
}

// State returns the current state.
func (a *Arbiter) State() State {
	return a.state
}

// PSEL returns the policy selector value.
func (a *Arbiter) PSEL() uint32 {
	return a.psel.Value()
}

// MaxPSEL returns the saturation value of the policy selector.
func (a *Arbiter) MaxPSEL() uint32 {
	return a.psel.Max()
}

// Switches returns how many times the followers crossed from SHiP++ to
// Hawkeye.
func (a *Arbiter) Switches() uint64 {
	return a.switches
}

// PingPong returns how many times the followers crossed back from Hawkeye to
// SHiP++.
func (a *Arbiter) PingPong() uint64 {
	return a.pingPong
}

// ResetStats clears the switch counters.
func (a *Arbiter) ResetStats() {
	a.switches = 0
	a.pingPong = 0
}
