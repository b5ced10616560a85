// Package optgen reconstructs, after the fact, the decisions Belady's
// optimal policy would have made on a sampled cache set.
//
// Time is divided into quanta, one per access to the set. The liveness vector
// remembers, for each recent quantum, how many lines OPT would have kept
// cached across it. A usage interval [last, curr) fits in the cache if no
// quantum it spans is already at capacity.
package optgen

import "log"

// OptGen is the occupancy vector of one sampled set.
type OptGen struct {
	liveness []uint32
	capacity uint32

	numAccesses  uint64
	numCache     uint64
	numDontCache uint64
}

// New creates an OptGen with a circular window of vectorSize quanta that
// simulates a cache holding capacity lines.
func New(vectorSize, capacity int) *OptGen {
	g := &OptGen{}
	g.Init(vectorSize, capacity)

	return g
}

// Init resets g in place. It allows OptGens to live in a flat slice.
func (g *OptGen) Init(vectorSize, capacity int) {
	if vectorSize <= 0 {
		log.Panicf("optgen vector size must be positive, got %d", vectorSize)
	}

	if capacity <= 0 {
		log.Panicf("optgen capacity must be positive, got %d", capacity)
	}

	g.liveness = make([]uint32, vectorSize)
	g.capacity = uint32(capacity)
	g.numAccesses = 0
	g.numCache = 0
	g.numDontCache = 0
}

// VectorSize returns the length of the window.
func (g *OptGen) VectorSize() int {
	return len(g.liveness)
}

// Capacity returns the number of lines the simulated cache holds.
func (g *OptGen) Capacity() int {
	return int(g.capacity)
}

// AddAccess starts a new demand quantum. The slot is overwritten, which is the
// only way old history leaves the window.
func (g *OptGen) AddAccess(quanta uint64) {
	g.numAccesses++
	g.liveness[g.slot(quanta)] = 0
}

// AddPrefetch starts a new quantum for a prefetch. Prefetches are not counted
// as accesses.
func (g *OptGen) AddPrefetch(quanta uint64) {
	g.liveness[g.slot(quanta)] = 0
}

// ShouldCache tells whether OPT would have kept a line live from quantum last
// up to (but not including) quantum curr. When the answer is yes the interval
// is committed, raising the occupancy of every quantum it spans.
func (g *OptGen) ShouldCache(curr, last uint64) bool {
	c := g.slot(curr)
	l := g.slot(last)

	isCache := true

	for i := l; i != c; i = g.next(i) {
		if g.liveness[i] >= g.capacity {
			isCache = false
			break
		}
	}

	if isCache {
		for i := l; i != c; i = g.next(i) {
			g.liveness[i]++
		}

		g.numCache++
	} else {
		g.numDontCache++
	}

	return isCache
}

// Occupancy returns the liveness count recorded for a quantum.
func (g *OptGen) Occupancy(quanta uint64) uint32 {
	return g.liveness[g.slot(quanta)]
}

// NumAccesses returns the number of demand quanta seen.
func (g *OptGen) NumAccesses() uint64 {
	return g.numAccesses
}

// NumOptHits returns the number of intervals OPT would have cached.
func (g *OptGen) NumOptHits() uint64 {
	return g.numCache
}

// NumOptMisses returns the number of intervals OPT would have dropped.
func (g *OptGen) NumOptMisses() uint64 {
	return g.numDontCache
}

// ResetStats clears the counters without touching the liveness vector.
func (g *OptGen) ResetStats() {
	g.numAccesses = 0
	g.numCache = 0
	g.numDontCache = 0
}

func (g *OptGen) slot(quanta uint64) int {
	return int(quanta % uint64(len(g.liveness)))
}

func (g *OptGen) next(i int) int {
	i++
	if i == len(g.liveness) {
		i = 0
	}

	return i
}
