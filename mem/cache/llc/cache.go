// Package llc models a last-level cache that replays access traces.
//
// The cache only keeps tags. Every access is either a hit or a fill, after
// which the replacement policy is told about the outcome.
package llc

import (
	"fmt"

	"github.com/sarchlab/rocketship/mem/cache/internal/tagging"
	"github.com/sarchlab/rocketship/mem/cache/replacement"
	"github.com/sarchlab/rocketship/mem/trace"
)

// Cache is a trace-driven last-level cache.
type Cache struct {
	name      string
	strategy  string
	numCores  int
	blockSize uint64

	tags   tagging.TagArray
	policy Policy
	engine *replacement.Engine

	nextID uint64
	stats  Stats
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Strategy returns the replacement strategy the cache was built with.
func (c *Cache) Strategy() string {
	return c.strategy
}

// Engine returns the rocketship engine, or nil for other strategies.
func (c *Cache) Engine() *replacement.Engine {
	return c.engine
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.tags.NumSets()
}

// NumWays returns the associativity.
func (c *Cache) NumWays() int {
	return c.tags.NumWays()
}

// Validate returns an error if the cache cannot serve a.
func (c *Cache) Validate(a trace.Access) error {
	if a.CPU < 0 || a.CPU >= c.numCores {
		return fmt.Errorf("%s: core %d out of range [0, %d)",
			c.name, a.CPU, c.numCores)
	}

	if !a.Type.Valid() {
		return fmt.Errorf("%s: unknown access type %d", c.name, int(a.Type))
	}

	return nil
}

// Access serves one access and tells if it hit. The access must be valid.
func (c *Cache) Access(a trace.Access) bool {
	req := tagging.Request{
		ID:         c.nextID,
		CPU:        a.CPU,
		PC:         a.PC,
		Address:    a.Address,
		AccessType: a.Type,
	}
	c.nextID++

	c.stats.Accesses[a.Type]++

	block, hit := c.tags.Lookup(a.Address)
	if hit {
		c.stats.Hits[a.Type]++

		if a.Type == replacement.AccessWriteback {
			block.IsDirty = true
			c.tags.Update(block)
		}

		c.policy.Touch(block, req, 0, true)

		return true
	}

	c.stats.Misses[a.Type]++

	set, setID := c.tags.GetSet(a.Address)
	way := c.policy.FindVictim(set, setID, req)
	victim := set.Blocks[way]

	var victimAddr uint64
	if victim.IsValid {
		victimAddr = victim.Tag
		c.stats.Evictions++

		if victim.IsDirty {
			c.stats.DirtyEvictions++
		}
	}

	block = tagging.Block{
		Tag:     a.Address / c.blockSize * c.blockSize,
		SetID:   setID,
		WayID:   way,
		IsValid: true,
		IsDirty: a.Type == replacement.AccessWriteback,
		FillCPU: a.CPU,
	}
	c.tags.Update(block)
	c.policy.Touch(block, req, victimAddr, false)

	return false
}

// Stats returns the hit and miss counts since the last reset.
func (c *Cache) Stats() Stats {
	return c.stats
}

// ResetStats clears the hit and miss counts. The cache content is kept.
func (c *Cache) ResetStats() {
	c.stats = Stats{}
}
