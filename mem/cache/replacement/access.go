package replacement

import (
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/access"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/arbiter"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/signature"
)

// AccessType is the kind of request that reaches the cache.
type AccessType = access.Type

// The access types.
const (
	AccessLoad      = access.Load
	AccessRFO       = access.RFO
	AccessPrefetch  = access.Prefetch
	AccessWriteback = access.Writeback

	NumAccessTypes = int(access.NumTypes)
)

// ParseAccessType converts a name such as "LOAD", "RFO", "PREF" or
// "WRITEBACK" to an AccessType.
func ParseAccessType(name string) (AccessType, bool) {
	return access.Parse(name)
}

func shipSignature(pc uint64, accessType AccessType, size int) uint32 {
	return signature.SHiP(pc, accessType == AccessPrefetch, size)
}

// Heuristic identifies one of the two policies of the engine.
type Heuristic = arbiter.Heuristic

// The policies.
const (
	HeuristicSHiPPP  = arbiter.SHiPPP
	HeuristicHawkeye = arbiter.Hawkeye
)

// ArbiterState is the position of the follower hysteresis walk.
type ArbiterState = arbiter.State

// The arbiter states.
const (
	StrongSHiP    = arbiter.StrongSHiP
	WeakSHiP      = arbiter.WeakSHiP
	WeakHawkeye   = arbiter.WeakHawkeye
	StrongHawkeye = arbiter.StrongHawkeye
)

// Role is the fixed role of a set in set dueling.
type Role int

// The set roles.
const (
	RoleFollower Role = iota
	RoleSHiPLeader
	RoleHawkeyeLeader
)

func (r Role) String() string {
	switch r {
	case RoleFollower:
		return "Follower"
	case RoleSHiPLeader:
		return "SHiPLeader"
	case RoleHawkeyeLeader:
		return "HawkeyeLeader"
	default:
		return "Unknown"
	}
}

// Line describes a resident line of the host cache. The engine only checks
// that the host passes one Line per way.
type Line struct {
	Valid   bool
	Dirty   bool
	Address uint64
}
