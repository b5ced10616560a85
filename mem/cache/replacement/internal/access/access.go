// Package access defines the kinds of requests that reach the last-level
// cache.
package access

import "log"

// Type is the kind of an access.
type Type int

// The access types, in the order used by the insertion statistics.
const (
	Load Type = iota
	RFO
	Prefetch
	Writeback
	NumTypes
)

var typeNames = [NumTypes]string{"LOAD", "RFO", "PREF", "WRITEBACK"}

func (t Type) String() string {
	if !t.Valid() {
		return "UNKNOWN"
	}

	return typeNames[t]
}

// Valid tells if t is one of the declared access types.
func (t Type) Valid() bool {
	return t >= Load && t < NumTypes
}

// MustBeValid panics if t is not a declared access type.
func (t Type) MustBeValid() {
	if !t.Valid() {
		log.Panicf("unknown access type %d", int(t))
	}
}

// Parse converts a name such as "LOAD" or "PREF" back to a Type.
func Parse(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}

	switch name {
	case "PREFETCH":
		return Prefetch, true
	case "WB":
		return Writeback, true
	}

	return 0, false
}
