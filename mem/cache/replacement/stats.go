package replacement

import (
	"fmt"
	"io"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/access"
)

// Stats are the counters an engine accumulates between two reports.
type Stats struct {
	PolicySwitches uint64
	PolicyPingPong uint64

	SHiPSamplerHits      uint64
	SHiPSamplerMisses    uint64
	HawkeyeSamplerHits   uint64
	HawkeyeSamplerMisses uint64

	// InsertionDistribution[t][v] counts SHiP++ fills of access type t
	// inserted at RRPV v.
	InsertionDistribution [access.NumTypes][]uint64
	PrefetchDowngrades    uint64

	OptGenAccesses uint64
	OptGenHits     uint64

	PSEL         uint32
	ArbiterState ArbiterState
}

// OptGenHitRate returns the fraction of OptGen accesses that OPT would have
// hit, in percent.
func (s Stats) OptGenHitRate() float64 {
	if s.OptGenAccesses == 0 {
		return 0
	}

	return 100 * float64(s.OptGenHits) / float64(s.OptGenAccesses)
}

// Fprint writes the end-of-run report.
func (s Stats) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Policy switches:%d\n", s.PolicySwitches)
	fmt.Fprintf(w, "Policy ping-pong:%d\n", s.PolicyPingPong)
	fmt.Fprintf(w, "Ship++ sampler hits:%d misses:%d\n",
		s.SHiPSamplerHits, s.SHiPSamplerMisses)
	fmt.Fprintf(w, "Hawkeye sampler hits:%d misses:%d\n",
		s.HawkeyeSamplerHits, s.HawkeyeSamplerMisses)
	fmt.Fprintf(w, "PSEL:%d state:%s\n", s.PSEL, s.ArbiterState)
	fmt.Fprintf(w, "OPTgen accesses: %d\n", s.OptGenAccesses)
	fmt.Fprintf(w, "OPTgen hits: %d\n", s.OptGenHits)
	fmt.Fprintf(w, "OPTgen hit rate: %g\n", s.OptGenHitRate())
	fmt.Fprintf(w, "Insertion Distribution:\n")

	for t, counts := range s.InsertionDistribution {
		fmt.Fprintf(w, "\t%s", access.Type(t))

		for _, c := range counts {
			fmt.Fprintf(w, " %d", c)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Prefetch Downgrades: %d\n", s.PrefetchDowngrades)
}

// Stats returns the current counters without clearing them.
func (e *Engine) Stats() Stats {
	e.mustBeInitialized()

	s := Stats{
		PolicySwitches:       e.arbiter.Switches(),
		PolicyPingPong:       e.arbiter.PingPong(),
		SHiPSamplerHits:      e.shipHits,
		SHiPSamplerMisses:    e.shipMisses,
		HawkeyeSamplerHits:   e.hawkeyeHits,
		HawkeyeSamplerMisses: e.hawkeyeMisses,
		PrefetchDowngrades:   e.ship.PrefetchDowngrades(),
		PSEL:                 e.arbiter.PSEL(),
		ArbiterState:         e.arbiter.State(),
	}

	for t := range s.InsertionDistribution {
		s.InsertionDistribution[t] = e.ship.Insertions(access.Type(t))
	}

	s.OptGenAccesses, s.OptGenHits = e.hawkeye.OptGenStats()

	return s
}

// ReportAndResetStats returns the counters accumulated since the last report
// and clears them. Decision state such as PSEL, the predictors and the SHCT
// is left untouched.
func (e *Engine) ReportAndResetStats() Stats {
	s := e.Stats()

	e.arbiter.ResetStats()
	e.ship.ResetStats()
	e.hawkeye.ResetStats()
	e.shipHits = 0
	e.shipMisses = 0
	e.hawkeyeHits = 0
	e.hawkeyeMisses = 0

	return s
}
