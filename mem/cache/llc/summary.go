package llc

import "github.com/sarchlab/rocketship/mem/cache/replacement"

// Summary is the flat record of one run, as stored in the
// replacement_stats table.
type Summary struct {
	ID       string
	Name     string
	Trace    string
	Policy   string
	NumSets  int
	NumWays  int
	NumCores int
	MaxPSEL  int
	Seed     int64

	Accesses        uint64
	Hits            uint64
	Misses          uint64
	LoadMisses      uint64
	RFOMisses       uint64
	PrefetchMisses  uint64
	WritebackMisses uint64
	MissRate        float64
	DemandMissRate  float64

	PolicySwitches     uint64
	PolicyPingPong     uint64
	PrefetchDowngrades uint64
	OptGenAccesses     uint64
	OptGenHits         uint64
	FinalPSEL          int
	FinalState         string
}

// Summarize fills the cache and engine columns of a summary. The run
// description columns are left to the caller.
func (c *Cache) Summarize(s Summary) Summary {
	st := c.stats

	s.Name = c.name
	s.Policy = c.strategy
	s.NumSets = c.NumSets()
	s.NumWays = c.NumWays()
	s.NumCores = c.numCores
	s.Accesses = st.TotalAccesses()
	s.Hits = st.TotalHits()
	s.Misses = st.TotalMisses()
	s.LoadMisses = st.Misses[replacement.AccessLoad]
	s.RFOMisses = st.Misses[replacement.AccessRFO]
	s.PrefetchMisses = st.Misses[replacement.AccessPrefetch]
	s.WritebackMisses = st.Misses[replacement.AccessWriteback]
	s.MissRate = st.MissRate()
	s.DemandMissRate = st.DemandMissRate()

	if c.engine == nil {
		return s
	}

	es := c.engine.Stats()
	s.PolicySwitches = es.PolicySwitches
	s.PolicyPingPong = es.PolicyPingPong
	s.PrefetchDowngrades = es.PrefetchDowngrades
	s.OptGenAccesses = es.OptGenAccesses
	s.OptGenHits = es.OptGenHits
	s.FinalPSEL = int(es.PSEL)
	s.FinalState = es.ArbiterState.String()

	return s
}
