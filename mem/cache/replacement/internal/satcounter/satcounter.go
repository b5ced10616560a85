// Package satcounter provides saturating counters.
package satcounter

// Unsigned lists the integer types that can be stored in a counter table.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Inc returns v+1, or limit if v is already at or above limit.
func Inc[T Unsigned](v, limit T) T {
	if v < limit {
		return v + 1
	}

	return limit
}

// Dec returns v-1, or 0 if v is already 0.
func Dec[T Unsigned](v T) T {
	if v > 0 {
		return v - 1
	}

	return 0
}

// A Counter is a single saturating counter in the range [0, Max].
type Counter struct {
	value uint32
	max   uint32
}

// NewCounter creates a counter with the given maximum and initial value. The
// initial value is clamped to the maximum.
func NewCounter(limit, initial uint32) Counter {
	if initial > limit {
		initial = limit
	}

	return Counter{value: initial, max: limit}
}

// Value returns the current value.
func (c Counter) Value() uint32 {
	return c.value
}

// Max returns the upper bound.
func (c Counter) Max() uint32 {
	return c.max
}

// Inc increments the counter, saturating at Max.
func (c *Counter) Inc() {
	c.value = Inc(c.value, c.max)
}

// Dec decrements the counter, saturating at 0.
func (c *Counter) Dec() {
	c.value = Dec(c.value)
}

// Midpoint returns Max/2, the threshold used to read a counter as a binary
// decision.
func (c Counter) Midpoint() uint32 {
	return c.max >> 1
}

// Above tells if the counter is strictly above its midpoint.
func (c Counter) Above() bool {
	return c.value > c.Midpoint()
}
