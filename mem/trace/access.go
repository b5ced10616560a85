// Package trace reads, writes and generates last-level cache access traces
// and traces the decisions of the replacement engine.
//
// A text trace has one access per line:
//
//	<cpu> <type> <pc> <address>
//
// The type is LOAD, RFO, PREF or WRITEBACK (or 0 to 3). Numbers may be
// decimal or 0x-prefixed hexadecimal. Blank lines and lines starting with #
// are skipped.
package trace

import (
	"fmt"

	"github.com/sarchlab/rocketship/mem/cache/replacement"
)

// Access is one request that reaches the last-level cache.
type Access struct {
	CPU     int
	Type    replacement.AccessType
	PC      uint64
	Address uint64
}

func (a Access) String() string {
	return fmt.Sprintf("%d %s 0x%x 0x%x", a.CPU, a.Type, a.PC, a.Address)
}
