// Package shippp implements SHiP++, a signature-based re-reference interval
// prediction policy.
//
// Each fill is tagged with a signature derived from the PC and the request
// kind. In training sets, the signature history counter table (SHCT) learns
// whether lines filled under a signature are re-referenced before eviction.
// Every set uses the SHCT to choose the insertion RRPV.
package shippp

import (
	"log"
	"math/rand"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/access"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/linetable"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/satcounter"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/signature"
)

// Config holds the tunables of SHiP++.
type Config struct {
	NumCores int
	SHCTSize int
	MaxSHCTR uint8

	// PrefetchHitSamplePercent is the chance that a prefetch hit on a line
	// that was itself prefetched trains the SHCT.
	PrefetchHitSamplePercent int

	// ColdEscapePercent is the chance that a fill under a zero-valued
	// signature is inserted at medium instead of distant priority.
	ColdEscapePercent int
}

// Policy is the SHiP++ replacement policy.
type Policy struct {
	cfg   Config
	lines *linetable.Table
	rng   *rand.Rand

	shct []uint8

	insertions         [access.NumTypes][]uint64
	prefetchDowngrades uint64
}

// New creates SHiP++ over a shared line table. All SHCT entries start at 1,
// weakly predicting reuse.
func New(cfg Config, lines *linetable.Table, rng *rand.Rand) *Policy {
	if cfg.NumCores <= 0 || cfg.SHCTSize <= 0 {
		log.Panicf("invalid SHiP++ config %+v", cfg)
	}

	p := &Policy{
		cfg:   cfg,
		lines: lines,
		rng:   rng,
		shct:  make([]uint8, cfg.NumCores*cfg.SHCTSize),
	}

	for i := range p.shct {
		p.shct[i] = 1
	}

	p.ResetStats()

	return p
}

// FindVictim returns the first line predicted for distant re-reference,
// aging the whole set until one exists.
func (p *Policy) FindVictim(set int) int {
	for {
		way, found := p.lines.FindMaxRRPV(set)
		if found {
			return way
		}

		p.lines.Age(set)
	}
}

// Update records a hit or a fill at (set, way). Only training sets modify the
// SHCT.
func (p *Policy) Update(
	cpu, set, way int,
	pc uint64,
	accessType access.Type,
	hit bool,
	training bool,
) {
	accessType.MustBeValid()
	p.mustBeValidCore(cpu)

	line := p.lines.At(set, way)

	if hit {
		p.updateOnHit(line, accessType, training)
		return
	}

	p.updateOnFill(cpu, line, pc, accessType, training)
}

func (p *Policy) updateOnHit(
	line *linetable.Line,
	accessType access.Type,
	training bool,
) {
	if accessType == access.Writeback {
		return
	}

	if accessType == access.Prefetch && line.SHiPPrefetched {
		if training && p.rng.Intn(100) < p.cfg.PrefetchHitSamplePercent {
			p.train(line, true)
		}

		return
	}

	line.RRPV = 0

	if line.SHiPPrefetched {
		line.RRPV = p.lines.MaxRRPV()
		line.SHiPPrefetched = false
		p.prefetchDowngrades++
	}

	if training && !line.Reused {
		p.train(line, true)
	}
}

func (p *Policy) updateOnFill(
	cpu int,
	line *linetable.Line,
	pc uint64,
	accessType access.Type,
	training bool,
) {
	isPrefetch := accessType == access.Prefetch
	newSig := signature.SHiP(pc, isPrefetch, p.cfg.SHCTSize)

	if training {
		p.train(line, line.Reused)

		line.Reused = false
		line.SHiPSignature = newSig
		line.FillCore = cpu
	}

	line.SHiPPrefetched = isPrefetch
	line.RRPV = p.insertionRRPV(cpu, newSig, accessType)

	p.insertions[accessType][line.RRPV]++
}

func (p *Policy) insertionRRPV(
	cpu int,
	sig uint32,
	accessType access.Type,
) uint8 {
	maxRRPV := p.lines.MaxRRPV()
	mediumRRPV := maxRRPV - 1
	counter := p.shct[p.shctIndex(cpu, sig)]

	switch {
	case accessType == access.Writeback:
		return maxRRPV
	case counter == 0:
		if p.rng.Intn(100) < p.cfg.ColdEscapePercent {
			return mediumRRPV
		}

		return maxRRPV
	case counter == p.cfg.MaxSHCTR:
		if accessType == access.Prefetch {
			return 1
		}

		return 0
	default:
		return mediumRRPV
	}
}

// train moves the SHCT entry of the signature stored in the line. A reused
// line strengthens its signature and is marked so that it is only counted
// once.
func (p *Policy) train(line *linetable.Line, reused bool) {
	i := p.shctIndex(line.FillCore, line.SHiPSignature)

	if reused {
		p.shct[i] = satcounter.Inc(p.shct[i], p.cfg.MaxSHCTR)
		line.Reused = true

		return
	}

	p.shct[i] = satcounter.Dec(p.shct[i])
}

// SHCT returns the counter of a signature for a core.
func (p *Policy) SHCT(cpu int, sig uint32) uint8 {
	p.mustBeValidCore(cpu)
	return p.shct[p.shctIndex(cpu, sig)]
}

// Insertions returns how many fills of a type were inserted at each RRPV.
func (p *Policy) Insertions(accessType access.Type) []uint64 {
	accessType.MustBeValid()

	out := make([]uint64, len(p.insertions[accessType]))
	copy(out, p.insertions[accessType])

	return out
}

// PrefetchDowngrades returns how many prefetched lines were demoted when a
// demand first touched them.
func (p *Policy) PrefetchDowngrades() uint64 {
	return p.prefetchDowngrades
}

// ResetStats clears the statistics.
func (p *Policy) ResetStats() {
	for t := range p.insertions {
		p.insertions[t] = make([]uint64, int(p.lines.MaxRRPV())+1)
	}

	p.prefetchDowngrades = 0
}

func (p *Policy) shctIndex(cpu int, sig uint32) int {
	return cpu*p.cfg.SHCTSize + int(sig)%p.cfg.SHCTSize
}

func (p *Policy) mustBeValidCore(cpu int) {
	if cpu < 0 || cpu >= p.cfg.NumCores {
		log.Panicf("core %d out of range [0, %d)", cpu, p.cfg.NumCores)
	}
}
