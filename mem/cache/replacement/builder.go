package replacement

import (
	"log"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/hawkeye"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/shippp"
)

// Builder can build replacement engines.
type Builder struct {
	numWays       int
	maxSets       int
	numCores      int
	maxRRPV       uint8
	numLeaderSets int
	maxPSEL       uint32
	seed          int64

	shctSize                 int
	maxSHCTR                 uint8
	prefetchHitSamplePercent int
	coldEscapePercent        int

	predictorSize         int
	predictorMax          uint8
	optGenVectorSize      int
	optGenCapacity        int
	timerSize             uint64
	samplerEntries        int
	samplerWays           int
	prefetchRecencyFactor int
}

// MakeBuilder creates a builder with the defaults of a 16-way, 2048-set,
// single-core last-level cache.
func MakeBuilder() Builder {
	return Builder{
		numWays:       16,
		maxSets:       2048,
		numCores:      1,
		maxRRPV:       3,
		numLeaderSets: 64,
		maxPSEL:       512,
		seed:          420,

		shctSize:                 1 << 13,
		maxSHCTR:                 7,
		prefetchHitSamplePercent: 5,
		coldEscapePercent:        0,

		predictorSize:         1 << 11,
		predictorMax:          31,
		optGenVectorSize:      32,
		timerSize:             1024,
		samplerEntries:        2800,
		samplerWays:           8,
		prefetchRecencyFactor: 5,
	}
}

// WithNumWays sets the associativity of the cache.
func (b Builder) WithNumWays(numWays int) Builder {
	b.numWays = numWays
	return b
}

// WithMaxSets sets the largest number of sets Initialize accepts.
func (b Builder) WithMaxSets(maxSets int) Builder {
	b.maxSets = maxSets
	return b
}

// WithNumCores sets the number of cores sharing the cache.
func (b Builder) WithNumCores(numCores int) Builder {
	b.numCores = numCores
	return b
}

// WithMaxRRPV sets the largest re-reference prediction value.
func (b Builder) WithMaxRRPV(maxRRPV uint8) Builder {
	b.maxRRPV = maxRRPV
	return b
}

// WithNumLeaderSets sets how many leader sets each policy gets.
func (b Builder) WithNumLeaderSets(n int) Builder {
	b.numLeaderSets = n
	return b
}

// WithMaxPSEL sets the saturation value of the policy selector.
func (b Builder) WithMaxPSEL(maxPSEL uint32) Builder {
	b.maxPSEL = maxPSEL
	return b
}

// WithSeed sets the seed of the random stream.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithSHCTSize sets the number of SHiP++ counters per core.
func (b Builder) WithSHCTSize(size int) Builder {
	b.shctSize = size
	return b
}

// WithMaxSHCTR sets the saturation value of the SHiP++ counters.
func (b Builder) WithMaxSHCTR(maxSHCTR uint8) Builder {
	b.maxSHCTR = maxSHCTR
	return b
}

// WithPrefetchHitSamplePercent sets the chance that a prefetch hit on a
// prefetched line trains SHiP++.
func (b Builder) WithPrefetchHitSamplePercent(percent int) Builder {
	b.prefetchHitSamplePercent = percent
	return b
}

// WithColdEscapePercent sets the chance that a fill under a cold SHiP++
// signature is inserted at medium priority.
func (b Builder) WithColdEscapePercent(percent int) Builder {
	b.coldEscapePercent = percent
	return b
}

// WithPredictorSize sets the number of counters of each Hawkeye predictor.
func (b Builder) WithPredictorSize(size int) Builder {
	b.predictorSize = size
	return b
}

// WithPredictorMax sets the saturation value of the Hawkeye predictors.
func (b Builder) WithPredictorMax(maxValue uint8) Builder {
	b.predictorMax = maxValue
	return b
}

// WithOptGenVectorSize sets the length of the OptGen window.
func (b Builder) WithOptGenVectorSize(size int) Builder {
	b.optGenVectorSize = size
	return b
}

// WithOptGenCapacity sets the number of lines OptGen assumes fit in a set.
// By default it is the associativity minus two.
func (b Builder) WithOptGenCapacity(capacity int) Builder {
	b.optGenCapacity = capacity
	return b
}

// WithTimerSize sets the period of the sampled-set clocks.
func (b Builder) WithTimerSize(size uint64) Builder {
	b.timerSize = size
	return b
}

// WithSampler sets the total number of history sampler entries and the
// associativity of the sampler.
func (b Builder) WithSampler(entries, ways int) Builder {
	b.samplerEntries = entries
	b.samplerWays = ways

	return b
}

// WithPrefetchRecencyFactor sets, per core, how many quanta a prefetch
// re-sighting may be apart from the previous touch to train positively.
func (b Builder) WithPrefetchRecencyFactor(factor int) Builder {
	b.prefetchRecencyFactor = factor
	return b
}

// Build creates an engine. The engine must be initialized before use.
func (b Builder) Build(name string) *Engine {
	b.mustBeValid()

	return &Engine{
		name:    name,
		builder: b,
	}
}

func (b Builder) mustBeValid() {
	switch {
	case b.numWays < 1:
		log.Panicf("associativity must be at least 1, got %d", b.numWays)
	case b.maxSets < 1:
		log.Panicf("max sets must be at least 1, got %d", b.maxSets)
	case b.numCores < 1:
		log.Panicf("number of cores must be at least 1, got %d", b.numCores)
	case b.maxRRPV < 1:
		log.Panicf("max RRPV must be at least 1, got %d", b.maxRRPV)
	case b.numLeaderSets < 1:
		log.Panicf("leader sets must be at least 1, got %d", b.numLeaderSets)
	case b.samplerWays < 1 || b.samplerEntries < b.samplerWays:
		log.Panicf("invalid sampler %d entries / %d ways",
			b.samplerEntries, b.samplerWays)
	case b.prefetchHitSamplePercent < 0 || b.prefetchHitSamplePercent > 100:
		log.Panicf("invalid prefetch hit sample percent %d",
			b.prefetchHitSamplePercent)
	case b.coldEscapePercent < 0 || b.coldEscapePercent > 100:
		log.Panicf("invalid cold escape percent %d", b.coldEscapePercent)
	}
}

func (b Builder) shipConfig() shippp.Config {
	return shippp.Config{
		NumCores:                 b.numCores,
		SHCTSize:                 b.shctSize,
		MaxSHCTR:                 b.maxSHCTR,
		PrefetchHitSamplePercent: b.prefetchHitSamplePercent,
		ColdEscapePercent:        b.coldEscapePercent,
	}
}

func (b Builder) hawkeyeConfig() hawkeye.Config {
	capacity := b.optGenCapacity
	if capacity == 0 {
		capacity = b.numWays - 2
	}

	if capacity < 1 {
		capacity = 1
	}

	return hawkeye.Config{
		NumCores:              b.numCores,
		OptGenVectorSize:      b.optGenVectorSize,
		OptGenCapacity:        capacity,
		TimerSize:             b.timerSize,
		SamplerSets:           b.samplerEntries / b.samplerWays,
		SamplerWays:           b.samplerWays,
		PredictorSize:         b.predictorSize,
		PredictorMax:          b.predictorMax,
		PrefetchRecencyFactor: b.prefetchRecencyFactor,
	}
}
