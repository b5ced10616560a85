// Package linetable holds the per-line replacement metadata shared by the
// policies of the last-level cache.
package linetable

import "log"

// A Line is the replacement metadata of one cache line.
type Line struct {
	RRPV uint8

	// Hawkeye state.
	Signature  uint64
	Prefetched bool

	// SHiP++ state.
	SHiPSignature  uint32
	SHiPPrefetched bool
	Reused         bool
	FillCore       int
}

// A Table stores the lines of all the sets in one flat slice.
type Table struct {
	numSets int
	numWays int
	maxRRPV uint8
	lines   []Line
}

// New creates a table where every line starts at maxRRPV.
func New(numSets, numWays int, maxRRPV uint8) *Table {
	if numSets <= 0 || numWays <= 0 {
		log.Panicf("invalid line table geometry %d x %d", numSets, numWays)
	}

	t := &Table{
		numSets: numSets,
		numWays: numWays,
		maxRRPV: maxRRPV,
		lines:   make([]Line, numSets*numWays),
	}

	for i := range t.lines {
		t.lines[i].RRPV = maxRRPV
	}

	return t
}

// NumSets returns the number of sets.
func (t *Table) NumSets() int {
	return t.numSets
}

// NumWays returns the associativity.
func (t *Table) NumWays() int {
	return t.numWays
}

// MaxRRPV returns the largest legal RRPV.
func (t *Table) MaxRRPV() uint8 {
	return t.maxRRPV
}

// Set returns the lines of a set. The returned slice aliases the table.
func (t *Table) Set(set int) []Line {
	t.mustBeValidSet(set)

	start := set * t.numWays

	return t.lines[start : start+t.numWays : start+t.numWays]
}

// At returns the line at (set, way).
func (t *Table) At(set, way int) *Line {
	t.mustBeValidSet(set)
	t.mustBeValidWay(way)

	return &t.lines[set*t.numWays+way]
}

// Age increments the RRPV of every line in the set, saturating at maxRRPV.
func (t *Table) Age(set int) {
	lines := t.Set(set)
	for i := range lines {
		if lines[i].RRPV < t.maxRRPV {
			lines[i].RRPV++
		}
	}
}

// FindMaxRRPV returns the first way whose RRPV equals maxRRPV.
func (t *Table) FindMaxRRPV(set int) (int, bool) {
	lines := t.Set(set)
	for i := range lines {
		if lines[i].RRPV == t.maxRRPV {
			return i, true
		}
	}

	return 0, false
}

func (t *Table) mustBeValidSet(set int) {
	if set < 0 || set >= t.numSets {
		log.Panicf("set %d out of range [0, %d)", set, t.numSets)
	}
}

func (t *Table) mustBeValidWay(way int) {
	if way < 0 || way >= t.numWays {
		log.Panicf("way %d out of range [0, %d)", way, t.numWays)
	}
}
