// Package vclock implements the fixed-size vector clocks carried by every
// verification call of an order.
package vclock

import (
	"fmt"
	"strings"
)

// Ordering describes the causal relation between two clocks.
type Ordering int

const (
	Equal Ordering = iota
	Before
	After
	Concurrent
)

func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "concurrent"
	}
}

// Clock holds one counter per verifying service slot.
type Clock []uint64

// New returns a zero clock with size slots.
func New(size int) Clock {
	if size < 0 {
		size = 0
	}
	return make(Clock, size)
}

// At returns the counter of slot i, treating missing slots as zero.
func (c Clock) At(i int) uint64 {
	if i < 0 || i >= len(c) {
		return 0
	}
	return c[i]
}

// Copy returns an independent copy of the clock.
func (c Clock) Copy() Clock {
	if c == nil {
		return nil
	}
	out := make(Clock, len(c))
	copy(out, c)
	return out
}

func (c Clock) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// MergeAndIncrement takes the pointwise maximum of local and incoming and then
// bumps the self slot. local is updated in place when it is large enough; the
// returned clock must be used in any case.
func MergeAndIncrement(local, incoming Clock, self int) Clock {
	size := len(local)
	if len(incoming) > size {
		size = len(incoming)
	}
	if self >= size {
		size = self + 1
	}
	if size > len(local) {
		grown := make(Clock, size)
		copy(grown, local)
		local = grown
	}
	for i, v := range incoming {
		if v > local[i] {
			local[i] = v
		}
	}
	if self >= 0 {
		local[self]++
	}
	return local
}

// Compare reports whether a happened before b, after b, equals b, or neither.
func Compare(a, b Clock) Ordering {
	size := len(a)
	if len(b) > size {
		size = len(b)
	}
	less, greater := false, false
	for i := 0; i < size; i++ {
		av, bv := a.At(i), b.At(i)
		switch {
		case av < bv:
			less = true
		case av > bv:
			greater = true
		}
	}
	switch {
	case less && greater:
		return Concurrent
	case less:
		return Before
	case greater:
		return After
	default:
		return Equal
	}
}

// HappenedBefore reports whether a causally precedes b.
func HappenedBefore(a, b Clock) bool {
	return Compare(a, b) == Before
}

// Merge returns the pointwise maximum of a and b without touching either.
func Merge(a, b Clock) Clock {
	return MergeAndIncrement(a.Copy(), b, -1)
}
