// Package predictor implements the PC-indexed reuse predictor that Hawkeye
// trains with OptGen outcomes.
package predictor

import (
	"log"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/satcounter"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/signature"
)

// A Predictor maps hashed PCs to saturating confidence counters. A counter at
// or above half scale predicts that lines brought in by the PC are cache
// friendly.
type Predictor struct {
	counters  []uint8
	max       uint8
	threshold uint8
}

// New creates a predictor with size counters of range [0, maxValue].
// Counters start at the threshold, so unseen PCs are weakly cache friendly.
func New(size int, maxValue uint8) *Predictor {
	if size <= 0 {
		log.Panicf("predictor size must be positive, got %d", size)
	}

	p := &Predictor{
		counters:  make([]uint8, size),
		max:       maxValue,
		threshold: uint8((uint16(maxValue) + 1) / 2),
	}

	for i := range p.counters {
		p.counters[i] = p.threshold
	}

	return p
}

// Increment trains the PC positively.
func (p *Predictor) Increment(pc uint64) {
	i := p.index(pc)
	p.counters[i] = satcounter.Inc(p.counters[i], p.max)
}

// Decrement trains the PC negatively.
func (p *Predictor) Decrement(pc uint64) {
	i := p.index(pc)
	p.counters[i] = satcounter.Dec(p.counters[i])
}

// Predict tells if lines inserted by the PC are expected to be reused.
func (p *Predictor) Predict(pc uint64) bool {
	return p.counters[p.index(pc)] >= p.threshold
}

// Confidence returns the raw counter of the PC.
func (p *Predictor) Confidence(pc uint64) uint8 {
	return p.counters[p.index(pc)]
}

// Max returns the saturation value of the counters.
func (p *Predictor) Max() uint8 {
	return p.max
}

func (p *Predictor) index(pc uint64) int {
	return int(signature.CRC(pc) % uint64(len(p.counters)))
}
