package llc

import (
	"log"

	"github.com/sarchlab/rocketship/mem/cache/internal/tagging"
	"github.com/sarchlab/rocketship/mem/cache/replacement"
)

// The replacement strategies a cache can be built with.
const (
	StrategyLRU        = "lru"
	StrategyRocketship = "rocketship"
)

// Builder can build last-level caches.
type Builder struct {
	log2CacheLineSize  int
	wayAssociativity   int
	numSets            int
	numCores           int
	replaceStrategy    string
	replacementBuilder replacement.Builder
}

// MakeBuilder creates a builder for a 2 MB, 16-way, single-core cache
// managed by the rocketship engine.
func MakeBuilder() Builder {
	return Builder{
		log2CacheLineSize:  6,
		wayAssociativity:   16,
		numSets:            2048,
		numCores:           1,
		replaceStrategy:    StrategyRocketship,
		replacementBuilder: replacement.MakeBuilder(),
	}
}

// WithLog2CacheLineSize sets the log2 of the cache line size of the builder.
func (b Builder) WithLog2CacheLineSize(log2CacheLineSize int) Builder {
	b.log2CacheLineSize = log2CacheLineSize
	return b
}

// WithWayAssociativity sets the way associativity of the builder.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(numSets int) Builder {
	b.numSets = numSets
	return b
}

// WithNumCores sets the number of cores sharing the cache.
func (b Builder) WithNumCores(numCores int) Builder {
	b.numCores = numCores
	return b
}

// WithReplaceStrategy selects StrategyLRU or StrategyRocketship.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// WithReplacementBuilder sets the builder of the rocketship engine. The
// associativity, core count and set limit are overridden by the cache.
func (b Builder) WithReplacementBuilder(rb replacement.Builder) Builder {
	b.replacementBuilder = rb
	return b
}

// Build creates a cache.
func (b Builder) Build(name string) *Cache {
	if b.numSets < 1 || b.wayAssociativity < 1 || b.numCores < 1 {
		log.Panicf("invalid cache geometry %d sets x %d ways, %d cores",
			b.numSets, b.wayAssociativity, b.numCores)
	}

	blockSize := 1 << b.log2CacheLineSize

	c := &Cache{
		name:      name,
		strategy:  b.replaceStrategy,
		numCores:  b.numCores,
		blockSize: uint64(blockSize),
		tags:      tagging.NewTagArray(b.numSets, b.wayAssociativity, blockSize),
	}

	switch b.replaceStrategy {
	case StrategyLRU:
		c.policy = &lruPolicy{
			LRUVictimFinder: tagging.NewLRUVictimFinder(),
			tags:            c.tags,
		}
	case StrategyRocketship:
		c.engine = b.replacementBuilder.
			WithNumWays(b.wayAssociativity).
			WithNumCores(b.numCores).
			WithMaxSets(b.numSets).
			Build(name + ".Replacement")
		c.engine.Initialize(b.numSets)
		c.policy = newEnginePolicy(c.engine)
	default:
		log.Panicf("unknown replace strategy %q", b.replaceStrategy)
	}

	return c
}
