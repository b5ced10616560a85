package llc

import (
	"github.com/sarchlab/rocketship/mem/cache/internal/tagging"
	"github.com/sarchlab/rocketship/mem/cache/replacement"
)

// A Policy chooses victims and learns from the outcome of every access.
type Policy interface {
	tagging.VictimFinder

	// Touch is called once per access, after a hit or after the missing
	// line was installed in block.
	Touch(block tagging.Block, req tagging.Request, victimAddr uint64, hit bool)
}

type lruPolicy struct {
	*tagging.LRUVictimFinder

	tags tagging.TagArray
}

func (p *lruPolicy) Touch(
	block tagging.Block,
	_ tagging.Request,
	_ uint64,
	_ bool,
) {
	p.tags.Visit(block)
}

// enginePolicy lets the rocketship engine manage the cache.
type enginePolicy struct {
	engine *replacement.Engine
	lines  []replacement.Line
}

func newEnginePolicy(engine *replacement.Engine) *enginePolicy {
	return &enginePolicy{
		engine: engine,
		lines:  make([]replacement.Line, engine.NumWays()),
	}
}

func (p *enginePolicy) FindVictim(
	set *tagging.Set,
	setID int,
	req tagging.Request,
) int {
	for i, block := range set.Blocks {
		p.lines[i] = replacement.Line{
			Valid:   block.IsValid,
			Dirty:   block.IsDirty,
			Address: block.Tag,
		}
	}

	return p.engine.FindVictim(req.CPU, req.ID, setID, p.lines,
		req.PC, req.Address, req.AccessType)
}

func (p *enginePolicy) Touch(
	block tagging.Block,
	req tagging.Request,
	victimAddr uint64,
	hit bool,
) {
	p.engine.UpdateState(req.CPU, block.SetID, block.WayID, req.Address,
		req.PC, victimAddr, req.AccessType, hit)
}
