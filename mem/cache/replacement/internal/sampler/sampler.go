// Package sampler implements the history sampler, a small set-associative
// record of recently seen line addresses in the sampled sets.
package sampler

import (
	"log"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/signature"
)

const (
	lineOffsetBits = 6
	pageOffsetBits = 12
	tagSpace       = 256
)

// An Entry records the last usage of one sampled line.
type Entry struct {
	Valid      bool
	Tag        uint64
	LastQuanta uint64
	PC         uint64
	Prefetched bool
	Predicted  bool
	LRU        int
}

// Sampler is a set-associative table of entries with true LRU replacement
// inside each sampler set.
type Sampler struct {
	numSets int
	numWays int
	entries []Entry
}

// New creates a sampler with numSets sets of numWays entries.
func New(numSets, numWays int) *Sampler {
	if numSets <= 0 || numWays <= 0 {
		log.Panicf("invalid sampler geometry %d x %d", numSets, numWays)
	}

	return &Sampler{
		numSets: numSets,
		numWays: numWays,
		entries: make([]Entry, numSets*numWays),
	}
}

// NumSets returns the number of sampler sets.
func (s *Sampler) NumSets() int {
	return s.numSets
}

// NumWays returns the associativity of a sampler set.
func (s *Sampler) NumWays() int {
	return s.numWays
}

// Index maps a physical address to its sampler set and reduced tag.
func (s *Sampler) Index(paddr uint64) (set int, tag uint64) {
	set = int((paddr >> lineOffsetBits) % uint64(s.numSets))
	tag = signature.CRC(paddr>>pageOffsetBits) % tagSpace

	return set, tag
}

// Lookup returns the entry holding tag, or nil.
func (s *Sampler) Lookup(set int, tag uint64) *Entry {
	ways := s.ways(set)
	for i := range ways {
		if ways[i].Valid && ways[i].Tag == tag {
			return &ways[i]
		}
	}

	return nil
}

// Insert places a new entry for tag into the set and makes it the most
// recently used one. If the set is full, the least recently used entry is
// evicted first. The caller must have checked that tag is absent.
func (s *Sampler) Insert(set int, tag uint64, quanta uint64) *Entry {
	ways := s.ways(set)

	slot := s.freeSlot(ways)
	if slot < 0 {
		slot = s.lruSlot(ways)
		ways[slot].Valid = false
	}

	for i := range ways {
		if ways[i].Valid {
			ways[i].LRU++
			s.mustBeValidRank(ways[i].LRU)
		}
	}

	ways[slot] = Entry{
		Valid:      true,
		Tag:        tag,
		LastQuanta: quanta,
	}

	return &ways[slot]
}

// Touch makes e the most recently used entry of its set.
func (s *Sampler) Touch(set int, e *Entry) {
	ways := s.ways(set)
	for i := range ways {
		if ways[i].Valid && ways[i].LRU < e.LRU {
			ways[i].LRU++
			s.mustBeValidRank(ways[i].LRU)
		}
	}

	e.LRU = 0
}

// Occupancy returns the number of valid entries in a set.
func (s *Sampler) Occupancy(set int) int {
	n := 0

	for _, e := range s.ways(set) {
		if e.Valid {
			n++
		}
	}

	return n
}

// Entries returns a copy of the valid entries of a set.
func (s *Sampler) Entries(set int) []Entry {
	var out []Entry

	for _, e := range s.ways(set) {
		if e.Valid {
			out = append(out, e)
		}
	}

	return out
}

func (s *Sampler) ways(set int) []Entry {
	if set < 0 || set >= s.numSets {
		log.Panicf("sampler set %d out of range [0, %d)", set, s.numSets)
	}

	start := set * s.numWays

	return s.entries[start : start+s.numWays]
}

func (s *Sampler) freeSlot(ways []Entry) int {
	for i := range ways {
		if !ways[i].Valid {
			return i
		}
	}

	return -1
}

func (s *Sampler) lruSlot(ways []Entry) int {
	for i := range ways {
		if ways[i].LRU == s.numWays-1 {
			return i
		}
	}

	log.Panicf("full sampler set has no entry of rank %d", s.numWays-1)

	return -1
}

func (s *Sampler) mustBeValidRank(rank int) {
	if rank >= s.numWays {
		log.Panicf("sampler LRU rank %d exceeds %d", rank, s.numWays-1)
	}
}
