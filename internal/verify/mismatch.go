package verify

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Op names the property a Mismatch violates.
type Op string

const (
	// OpDiv: Div disagrees with the / operator.
	OpDiv Op = "div"
	// OpDivisor: Divisor does not return the constructing divisor.
	OpDivisor Op = "divisor"
	// OpIdempotence: two constructions from one divisor differ.
	OpIdempotence Op = "idempotence"
	// OpSentinel: the power-of-two or sign encoding is wrong.
	OpSentinel Op = "sentinel"
)

// Mismatch reports a divider that disagrees with the expected result.
type Mismatch[T constraints.Integer] struct {
	Op        Op
	Divisor   T
	Numerator T
	Want      T
	Got       T
	// Detail describes failures of the non-numeric checks.
	Detail string
}

func (m *Mismatch[T]) Error() string {
	name := TypeName[T]()
	switch m.Op {
	case OpDiv:
		return fmt.Sprintf("%s: %v / %v: got %v, want %v", name, m.Numerator, m.Divisor, m.Got, m.Want)
	case OpDivisor:
		return fmt.Sprintf("%s: New(%v).Divisor(): got %v, want %v", name, m.Divisor, m.Got, m.Want)
	default:
		return fmt.Sprintf("%s: divisor %v: %s check failed: %s", name, m.Divisor, m.Op, m.Detail)
	}
}
