package tagging

import "github.com/sarchlab/rocketship/mem/cache/replacement"

// Request is what a victim finder knows about the access that caused a miss.
type Request struct {
	ID         uint64
	CPU        int
	PC         uint64
	Address    uint64
	AccessType replacement.AccessType
}

// A VictimFinder decides which block should be evicted.
type VictimFinder interface {
	FindVictim(set *Set, setID int, req Request) int
}

// LRUVictimFinder evicts the least recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the least recently used way of a set, preferring ways
// that hold no valid block.
func (e *LRUVictimFinder) FindVictim(set *Set, _ int, _ Request) int {
	for _, way := range set.LRUQueue {
		if !set.Blocks[way].IsValid {
			return way
		}
	}

	return set.LRUQueue[0]
}
