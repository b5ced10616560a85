// Package replacement provides the replacement engine of a last-level cache.
//
// The engine combines two policies. SHiP++ learns, per PC signature, whether
// lines are re-referenced before they are evicted. Hawkeye replays the access
// history of a few sampled sets through OptGen to learn which PCs Belady's
// optimal policy would have kept. A small group of leader sets is dedicated
// to each policy. Misses in the leader sets move a shared policy selector
// (PSEL), and a four-state hysteresis walk decides which policy governs the
// remaining follower sets.
//
// The engine is driven by the host cache through four calls:
//
//	e := replacement.MakeBuilder().WithNumWays(16).Build("LLC.Replacement")
//	e.Initialize(numSets)
//	way := e.FindVictim(cpu, accessID, set, lines, pc, addr, replacement.AccessLoad)
//	e.UpdateState(cpu, set, way, addr, pc, victimAddr, replacement.AccessLoad, false)
//	stats := e.ReportAndResetStats()
//
// An Engine is not safe for concurrent use. The host must serialize accesses.
package replacement
