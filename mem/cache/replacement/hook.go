package replacement

import "github.com/sarchlab/rocketship/sim/hooking"

// HookPosVictim is invoked after a victim is chosen.
var HookPosVictim = &hooking.HookPos{Name: "Replacement.Victim"}

// HookPosUpdate is invoked after the state of an accessed line is updated.
var HookPosUpdate = &hooking.HookPos{Name: "Replacement.Update"}

// HookPosPolicySwitch is invoked when the follower hysteresis walk changes
// state.
var HookPosPolicySwitch = &hooking.HookPos{Name: "Replacement.PolicySwitch"}

// VictimDetail describes a victim decision.
type VictimDetail struct {
	CPU        int
	AccessID   uint64
	Set        int
	Way        int
	PC         uint64
	Address    uint64
	AccessType AccessType
	Role       Role
	Heuristic  Heuristic
}

// UpdateDetail describes a state update. InsertionRRPV is the RRPV the line
// holds after the update.
type UpdateDetail struct {
	CPU            int
	Set            int
	Way            int
	PC             uint64
	Address        uint64
	VictimAddress  uint64
	AccessType     AccessType
	Hit            bool
	Role           Role
	Heuristic      Heuristic
	InsertionRRPV  uint8
	PSEL           uint32
	FollowerPolicy ArbiterState
}

// SwitchDetail describes a step of the follower hysteresis walk.
type SwitchDetail struct {
	From ArbiterState
	To   ArbiterState
	PSEL uint32
}
