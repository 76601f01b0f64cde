package ecs

import "math/bits"

// Mask is a set of marker bits. Markers carry no data; an entity either has
// a marker or it does not.
type Mask uint64

// Has reports whether every bit of other is set in m.
func (m Mask) Has(other Mask) bool { return m&other == other }

// Any reports whether m and other share at least one bit.
func (m Mask) Any(other Mask) bool { return m&other != 0 }

// Count returns the number of markers in m.
func (m Mask) Count() int { return bits.OnesCount64(uint64(m)) }
