// Package hawkeye implements Hawkeye, a replacement policy that learns from
// Belady's optimal decisions.
//
// On a few sampled sets, OptGen replays the recent access history and decides
// which usage intervals OPT would have cached. Those verdicts train two PC
// indexed predictors, one for demand and one for prefetch requests. Every set
// then inserts lines as cache friendly or cache averse based on the
// prediction for the PC that brought them in.
package hawkeye

import (
	"log"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/access"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/linetable"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/optgen"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/predictor"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/sampler"
)

// Config holds the tunables of Hawkeye.
type Config struct {
	NumCores int

	OptGenVectorSize int
	OptGenCapacity   int
	TimerSize        uint64

	SamplerSets int
	SamplerWays int

	PredictorSize int
	PredictorMax  uint8

	// A prefetch that re-touches a sampled line within
	// PrefetchRecencyFactor*NumCores quanta may train its PC positively.
	PrefetchRecencyFactor int
}

// Policy is the Hawkeye replacement policy.
type Policy struct {
	cfg   Config
	lines *linetable.Table

	demand   *predictor.Predictor
	prefetch *predictor.Predictor
	sampler  *sampler.Sampler

	sampleIndex []int
	optgens     []optgen.OptGen
	timers      []uint64
}

// New creates Hawkeye over a shared line table. Only the sets listed in
// sampledSets run OptGen and train the predictors.
func New(cfg Config, lines *linetable.Table, sampledSets []int) *Policy {
	if cfg.TimerSize == 0 || cfg.NumCores <= 0 {
		log.Panicf("invalid Hawkeye config %+v", cfg)
	}

	p := &Policy{
		cfg:         cfg,
		lines:       lines,
		demand:      predictor.New(cfg.PredictorSize, cfg.PredictorMax),
		prefetch:    predictor.New(cfg.PredictorSize, cfg.PredictorMax),
		sampler:     sampler.New(cfg.SamplerSets, cfg.SamplerWays),
		sampleIndex: make([]int, lines.NumSets()),
		optgens:     make([]optgen.OptGen, len(sampledSets)),
		timers:      make([]uint64, len(sampledSets)),
	}

	for i := range p.sampleIndex {
		p.sampleIndex[i] = -1
	}

	for i, set := range sampledSets {
		if set < 0 || set >= lines.NumSets() {
			log.Panicf("sampled set %d out of range", set)
		}

		p.sampleIndex[set] = i
		p.optgens[i].Init(cfg.OptGenVectorSize, cfg.OptGenCapacity)
	}

	return p
}

// IsSampled tells if the set trains the predictors.
func (p *Policy) IsSampled(set int) bool {
	return p.sampleIndex[set] >= 0
}

// FindVictim returns a cache-averse line if one exists. Otherwise it evicts
// the oldest cache-friendly line, which on a sampled set is also evidence that
// the line's PC was over-trusted.
func (p *Policy) FindVictim(set int) int {
	if way, found := p.lines.FindMaxRRPV(set); found {
		return way
	}

	lines := p.lines.Set(set)
	victim := 0

	for i := 1; i < len(lines); i++ {
		if lines[i].RRPV > lines[victim].RRPV {
			victim = i
		}
	}

	if p.IsSampled(set) {
		p.predictorFor(lines[victim].Prefetched).
			Decrement(lines[victim].Signature)
	}

	return victim
}

// Update records a hit or a fill at (set, way).
func (p *Policy) Update(
	set, way int,
	paddr, pc uint64,
	accessType access.Type,
	hit bool,
) {
	accessType.MustBeValid()

	if accessType == access.Writeback {
		return
	}

	line := p.lines.At(set, way)
	isPrefetch := accessType == access.Prefetch

	if !isPrefetch {
		line.Prefetched = false
	} else if !hit {
		line.Prefetched = true
	}

	if idx := p.sampleIndex[set]; idx >= 0 {
		p.sample(idx, paddr, pc, isPrefetch)
	}

	line.Signature = pc

	if !p.predictorFor(isPrefetch).Predict(pc) {
		line.RRPV = p.lines.MaxRRPV()
		return
	}

	if !hit {
		p.ageFriendlyLines(set)
	}

	line.RRPV = 0
}

// ageFriendlyLines pushes every cache-friendly line one step towards
// eviction, unless some line already waits on the last friendly step.
func (p *Policy) ageFriendlyLines(set int) {
	last := p.lines.MaxRRPV() - 1
	lines := p.lines.Set(set)

	for i := range lines {
		if lines[i].RRPV == last {
			return
		}
	}

	for i := range lines {
		if lines[i].RRPV < last {
			lines[i].RRPV++
		}
	}
}

func (p *Policy) sample(idx int, paddr, pc uint64, isPrefetch bool) {
	og := &p.optgens[idx]
	timer := p.timers[idx]
	vectorSize := uint64(og.VectorSize())
	currQuanta := timer % vectorSize

	samplerSet, tag := p.sampler.Index(paddr)
	entry := p.sampler.Lookup(samplerSet, tag)

	switch {
	case entry == nil:
		entry = p.sampler.Insert(samplerSet, tag, timer)

		if isPrefetch {
			entry.Prefetched = true
			og.AddPrefetch(currQuanta)
		} else {
			og.AddAccess(currQuanta)
		}
	case !isPrefetch:
		elapsed := p.elapsed(timer, entry.LastQuanta)
		if elapsed <= vectorSize {
			trained := p.predictorFor(entry.Prefetched)
			if og.ShouldCache(currQuanta, entry.LastQuanta%vectorSize) {
				trained.Increment(entry.PC)
			} else {
				trained.Decrement(entry.PC)
			}
		}

		og.AddAccess(currQuanta)
		p.sampler.Touch(samplerSet, entry)
		entry.Prefetched = false
	default:
		elapsed := p.elapsed(timer, entry.LastQuanta)
		recency := uint64(p.cfg.PrefetchRecencyFactor * p.cfg.NumCores)

		if elapsed < recency &&
			og.ShouldCache(currQuanta, entry.LastQuanta%vectorSize) {
			p.predictorFor(entry.Prefetched).Increment(entry.PC)
		}

		entry.Prefetched = true
		og.AddPrefetch(currQuanta)
		p.sampler.Touch(samplerSet, entry)
	}

	entry.LastQuanta = timer
	entry.PC = pc
	entry.Predicted = p.predictorFor(isPrefetch).Predict(pc)

	p.timers[idx] = (timer + 1) % p.cfg.TimerSize
}

func (p *Policy) elapsed(now, then uint64) uint64 {
	if now < then {
		now += p.cfg.TimerSize
	}

	return now - then
}

func (p *Policy) predictorFor(isPrefetch bool) *predictor.Predictor {
	if isPrefetch {
		return p.prefetch
	}

	return p.demand
}

// DemandPredictor returns the predictor trained by demand intervals.
func (p *Policy) DemandPredictor() *predictor.Predictor {
	return p.demand
}

// PrefetchPredictor returns the predictor trained by prefetch intervals.
func (p *Policy) PrefetchPredictor() *predictor.Predictor {
	return p.prefetch
}

// Sampler returns the history sampler.
func (p *Policy) Sampler() *sampler.Sampler {
	return p.sampler
}

// Timer returns the logical clock of a sampled set.
func (p *Policy) Timer(set int) uint64 {
	idx := p.sampleIndex[set]
	if idx < 0 {
		log.Panicf("set %d is not sampled", set)
	}

	return p.timers[idx]
}

// OptGenStats sums the OptGen counters of all sampled sets.
func (p *Policy) OptGenStats() (accesses, hits uint64) {
	for i := range p.optgens {
		accesses += p.optgens[i].NumAccesses()
		hits += p.optgens[i].NumOptHits()
	}

	return accesses, hits
}

// ResetStats clears the OptGen counters.
func (p *Policy) ResetStats() {
	for i := range p.optgens {
		p.optgens[i].ResetStats()
	}
}
