package replacement

import (
	"log"
	"math/rand"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/arbiter"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/hawkeye"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/linetable"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/shippp"
	"github.com/sarchlab/rocketship/sim/hooking"
)

// Engine decides victims and insertion priorities for a last-level cache.
type Engine struct {
	hooking.HookableBase

	name    string
	builder Builder

	initialized bool
	numSets     int
	roles       []Role

	rng     *rand.Rand
	lines   *linetable.Table
	ship    *shippp.Policy
	hawkeye *hawkeye.Policy
	arbiter *arbiter.Arbiter

	shipHits      uint64
	shipMisses    uint64
	hawkeyeHits   uint64
	hawkeyeMisses uint64
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// Initialize allocates the tables for numSets sets and assigns the leader
// sets. It must be called exactly once, before any other call.
func (e *Engine) Initialize(numSets int) {
	b := e.builder

	if e.initialized {
		log.Panicf("%s: already initialized", e.name)
	}

	if numSets < 1 || numSets > b.maxSets {
		log.Panicf("%s: %d sets out of range [1, %d]",
			e.name, numSets, b.maxSets)
	}

	if numSets < 2*b.numLeaderSets {
		log.Panicf("%s: %d sets cannot hold 2 x %d leader sets",
			e.name, numSets, b.numLeaderSets)
	}

	e.numSets = numSets
	e.rng = rand.New(rand.NewSource(b.seed))
	e.lines = linetable.New(numSets, b.numWays, b.maxRRPV)

	shipLeaders, hawkeyeLeaders := leaderSets(numSets, b.numLeaderSets)

	e.roles = make([]Role, numSets)
	for _, s := range shipLeaders {
		e.roles[s] = RoleSHiPLeader
	}

	for _, s := range hawkeyeLeaders {
		e.roles[s] = RoleHawkeyeLeader
	}

	e.ship = shippp.New(b.shipConfig(), e.lines, e.rng)
	e.hawkeye = hawkeye.New(b.hawkeyeConfig(), e.lines, hawkeyeLeaders)
	e.arbiter = arbiter.New(b.maxPSEL)
	e.initialized = true
}

// leaderSets stripes the leader sets over the cache. Leader i sits at the
// start of the i-th interval; SHiP++ and Hawkeye alternate between the first
// and the second set of the interval.
func leaderSets(numSets, numLeaders int) (ship, hawk []int) {
	interval := numSets / numLeaders

	for i := 0; i < numLeaders; i++ {
		base := i * interval

		if i%2 == 0 {
			ship = append(ship, base)
			hawk = append(hawk, base+1)
		} else {
			ship = append(ship, base+1)
			hawk = append(hawk, base)
		}
	}

	return ship, hawk
}

// FindVictim returns the way to evict from the set. It never bypasses.
func (e *Engine) FindVictim(
	cpu int,
	accessID uint64,
	set int,
	currentLines []Line,
	pc, paddr uint64,
	accessType AccessType,
) int {
	e.mustBeValidAccess(cpu, set, accessType)

	if currentLines != nil && len(currentLines) != e.builder.numWays {
		log.Panicf("%s: %d lines passed for a %d-way set",
			e.name, len(currentLines), e.builder.numWays)
	}

	h := e.heuristicFor(set)

	var way int

	switch h {
	case HeuristicSHiPPP:
		way = e.ship.FindVictim(set)
	case HeuristicHawkeye:
		way = e.hawkeye.FindVictim(set)
	default:
		log.Panicf("%s: unknown heuristic %d", e.name, int(h))
	}

	if way < 0 || way >= e.builder.numWays {
		log.Panicf("%s: victim way %d out of range", e.name, way)
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    HookPosVictim,
			Item:   accessID,
			Detail: VictimDetail{
				CPU:        cpu,
				AccessID:   accessID,
				Set:        set,
				Way:        way,
				PC:         pc,
				Address:    paddr,
				AccessType: accessType,
				Role:       e.roles[set],
				Heuristic:  h,
			},
		})
	}

	return way
}

// UpdateState records the outcome of an access after the host installed or
// touched the line at (set, way). It must be called once per access.
func (e *Engine) UpdateState(
	cpu, set, way int,
	paddr, pc, victimAddr uint64,
	accessType AccessType,
	hit bool,
) {
	e.mustBeValidAccess(cpu, set, accessType)

	if way < 0 || way >= e.builder.numWays {
		log.Panicf("%s: way %d out of range [0, %d)",
			e.name, way, e.builder.numWays)
	}

	switch e.roles[set] {
	case RoleHawkeyeLeader:
		e.update(HeuristicHawkeye, cpu, set, way, paddr, pc, victimAddr,
			accessType, hit)
		e.countLeader(HeuristicHawkeye, accessType, hit)
	case RoleSHiPLeader:
		e.update(HeuristicSHiPPP, cpu, set, way, paddr, pc, victimAddr,
			accessType, hit)
		e.countLeader(HeuristicSHiPPP, accessType, hit)
	case RoleFollower:
		h := e.arbiter.Governing()
		e.update(h, cpu, set, way, paddr, pc, victimAddr, accessType, hit)
		e.stepArbiter()
	default:
		log.Panicf("%s: set %d has unknown role %d",
			e.name, set, int(e.roles[set]))
	}
}

func (e *Engine) update(
	h Heuristic,
	cpu, set, way int,
	paddr, pc, victimAddr uint64,
	accessType AccessType,
	hit bool,
) {
	switch h {
	case HeuristicSHiPPP:
		training := e.roles[set] == RoleSHiPLeader
		e.ship.Update(cpu, set, way, pc, accessType, hit, training)
	case HeuristicHawkeye:
		e.hawkeye.Update(set, way, paddr, pc, accessType, hit)
	default:
		log.Panicf("%s: unknown heuristic %d", e.name, int(h))
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    HookPosUpdate,
			Item:   paddr,
			Detail: UpdateDetail{
				CPU:            cpu,
				Set:            set,
				Way:            way,
				PC:             pc,
				Address:        paddr,
				VictimAddress:  victimAddr,
				AccessType:     accessType,
				Hit:            hit,
				Role:           e.roles[set],
				Heuristic:      h,
				InsertionRRPV:  e.lines.At(set, way).RRPV,
				PSEL:           e.arbiter.PSEL(),
				FollowerPolicy: e.arbiter.State(),
			},
		})
	}
}

// countLeader feeds a leader-set outcome into PSEL. Writebacks do not count.
func (e *Engine) countLeader(h Heuristic, accessType AccessType, hit bool) {
	if accessType == AccessWriteback {
		return
	}

	switch {
	case h == HeuristicSHiPPP && hit:
		e.shipHits++
	case h == HeuristicSHiPPP:
		e.shipMisses++
		e.arbiter.LeaderMiss(h)
	case hit:
		e.hawkeyeHits++
	default:
		e.hawkeyeMisses++
		e.arbiter.LeaderMiss(h)
	}
}

func (e *Engine) stepArbiter() {
	prev, next := e.arbiter.Step()

	if prev == next || e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosPolicySwitch,
		Item:   next,
		Detail: SwitchDetail{
			From: prev,
			To:   next,
			PSEL: e.arbiter.PSEL(),
		},
	})
}

func (e *Engine) heuristicFor(set int) Heuristic {
	switch e.roles[set] {
	case RoleSHiPLeader:
		return HeuristicSHiPPP
	case RoleHawkeyeLeader:
		return HeuristicHawkeye
	default:
		return e.arbiter.Governing()
	}
}

func (e *Engine) mustBeInitialized() {
	if !e.initialized {
		log.Panicf("%s: used before Initialize", e.name)
	}
}

func (e *Engine) mustBeValidAccess(cpu, set int, accessType AccessType) {
	e.mustBeInitialized()
	accessType.MustBeValid()

	if set < 0 || set >= e.numSets {
		log.Panicf("%s: set %d out of range [0, %d)", e.name, set, e.numSets)
	}

	if cpu < 0 || cpu >= e.builder.numCores {
		log.Panicf("%s: core %d out of range [0, %d)",
			e.name, cpu, e.builder.numCores)
	}
}

// NumSets returns the number of sets given to Initialize.
func (e *Engine) NumSets() int {
	return e.numSets
}

// NumWays returns the associativity.
func (e *Engine) NumWays() int {
	return e.builder.numWays
}

// MaxRRPV returns the largest re-reference prediction value.
func (e *Engine) MaxRRPV() uint8 {
	return e.builder.maxRRPV
}

// Role returns the dueling role of a set.
func (e *Engine) Role(set int) Role {
	e.mustBeInitialized()
	return e.roles[set]
}

// Governing returns the heuristic that currently handles a set.
func (e *Engine) Governing(set int) Heuristic {
	e.mustBeInitialized()
	return e.heuristicFor(set)
}

// RRPV returns the re-reference prediction value of a line.
func (e *Engine) RRPV(set, way int) uint8 {
	e.mustBeInitialized()
	return e.lines.At(set, way).RRPV
}

// PSEL returns the policy selector.
func (e *Engine) PSEL() uint32 {
	e.mustBeInitialized()
	return e.arbiter.PSEL()
}

// ArbiterState returns the position of the follower hysteresis walk.
func (e *Engine) ArbiterState() ArbiterState {
	e.mustBeInitialized()
	return e.arbiter.State()
}

// SHCT returns the SHiP++ counter of the signature that a fill from pc with
// the given access type would use.
func (e *Engine) SHCT(cpu int, pc uint64, accessType AccessType) uint8 {
	e.mustBeInitialized()
	return e.ship.SHCT(cpu, shipSignature(pc, accessType, e.builder.shctSize))
}

// HawkeyeConfidence returns the Hawkeye predictor counter for pc.
func (e *Engine) HawkeyeConfidence(pc uint64, accessType AccessType) uint8 {
	e.mustBeInitialized()

	if accessType == AccessPrefetch {
		return e.hawkeye.PrefetchPredictor().Confidence(pc)
	}

	return e.hawkeye.DemandPredictor().Confidence(pc)
}
