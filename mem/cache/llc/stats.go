package llc

import (
	"fmt"
	"io"

	"github.com/sarchlab/rocketship/mem/cache/replacement"
)

var typeLabels = [replacement.NumAccessTypes]string{
	"LOAD", "RFO", "PREFETCH", "WRITEBACK",
}

// Stats counts the outcome of accesses per access type.
type Stats struct {
	Accesses [replacement.NumAccessTypes]uint64
	Hits     [replacement.NumAccessTypes]uint64
	Misses   [replacement.NumAccessTypes]uint64

	Evictions      uint64
	DirtyEvictions uint64
}

// TotalAccesses sums the accesses of all types.
func (s Stats) TotalAccesses() uint64 {
	return sum(s.Accesses)
}

// TotalHits sums the hits of all types.
func (s Stats) TotalHits() uint64 {
	return sum(s.Hits)
}

// TotalMisses sums the misses of all types.
func (s Stats) TotalMisses() uint64 {
	return sum(s.Misses)
}

// MissRate returns the fraction of accesses that missed.
func (s Stats) MissRate() float64 {
	total := s.TotalAccesses()
	if total == 0 {
		return 0
	}

	return float64(s.TotalMisses()) / float64(total)
}

// DemandMissRate returns the miss rate of loads and RFOs.
func (s Stats) DemandMissRate() float64 {
	accesses := s.Accesses[replacement.AccessLoad] +
		s.Accesses[replacement.AccessRFO]
	if accesses == 0 {
		return 0
	}

	misses := s.Misses[replacement.AccessLoad] +
		s.Misses[replacement.AccessRFO]

	return float64(misses) / float64(accesses)
}

// Fprint writes one line per access type, prefixed by name.
func (s Stats) Fprint(w io.Writer, name string) {
	printLine(w, name, "TOTAL",
		s.TotalAccesses(), s.TotalHits(), s.TotalMisses())

	for t, label := range typeLabels {
		printLine(w, name, label, s.Accesses[t], s.Hits[t], s.Misses[t])
	}
}

func printLine(w io.Writer, name, label string, access, hit, miss uint64) {
	fmt.Fprintf(w, "%s %-9s ACCESS: %10d  HIT: %10d  MISS: %10d\n",
		name, label, access, hit, miss)
}

func sum(counts [replacement.NumAccessTypes]uint64) uint64 {
	var total uint64
	for _, c := range counts {
		total += c
	}

	return total
}
