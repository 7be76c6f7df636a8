// Package field provides range-bounded scalar values used for every
// simulation parameter and state variable.
package field

import (
	"cmp"
	"fmt"
)

// Kind classifies who may write a field.
type Kind int

const (
	// Mutable fields may be written by external callers and the simulation.
	Mutable Kind = iota
	// Derived fields are only written by the simulation stages.
	Derived
)

func (k Kind) String() string {
	switch k {
	case Mutable:
		return "Mutable"
	case Derived:
		return "Derived"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Mutable":
		*k = Mutable
	case "Derived":
		*k = Derived
	default:
		return fmt.Errorf("field: unknown kind %q", string(b))
	}
	return nil
}

// Clamp limits v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Bounded is a scalar with an inclusive valid range. The value always lies
// within [Min, Max].
type Bounded struct {
	value float32
	min   float32
	max   float32
	kind  Kind
}

// New builds a field, clamping value into [lo, hi].
func New(value, lo, hi float32, kind Kind) Bounded {
	return Bounded{
		value: Clamp(value, lo, hi),
		min:   lo,
		max:   hi,
		kind:  kind,
	}
}

// Percentile builds a mutable field ranged [0, 1].
func Percentile(value float32) Bounded {
	return New(value, 0, 1, Mutable)
}

func (b *Bounded) Value() float32 { return b.value }
func (b *Bounded) Min() float32   { return b.min }
func (b *Bounded) Max() float32   { return b.max }
func (b *Bounded) Kind() Kind     { return b.kind }

// Assign clamps v into range, stores it and returns the previous value.
func (b *Bounded) Assign(v float32) (old float32) {
	old = b.value
	b.value = Clamp(v, b.min, b.max)
	return old
}

// SetMax replaces the upper bound. A value above the new bound is pulled
// down to it; the value is never raised.
func (b *Bounded) SetMax(hi float32) {
	b.max = hi
	if b.value > hi {
		b.value = hi
	}
}

// String renders the value with two decimals.
func (b Bounded) String() string {
	return fmt.Sprintf("%.2f", b.value)
}
