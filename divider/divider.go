// Package divider replaces division by a runtime-invariant integer with a
// multiplication and shifts.
//
// A Divider is built once per divisor with New, after which Div computes
// truncating quotients (rounded toward zero, like the Go / operator) without
// a hardware divide:
//
//	d := divider.New[int32](7)
//	q := d.Div(22) // 3
//
// The construction is the Granlund–Montgomery magic number method: the
// divisor is described by a multiplier ("magic"), a shift, and two flags. A
// divisor whose magnitude is a power of two needs no multiplier and is
// encoded with magic == 0.
//
// Dividers are immutable values. They may be copied freely and shared
// between goroutines without synchronization.
package divider

import (
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ErrZeroDivisor is the panic value of New when called with a zero divisor.
var ErrZeroDivisor = errors.New("divider: zero divisor")

// Divider is a precomputed descriptor of a nonzero divisor of type T.
//
// The zero value is not a valid Divider; use New.
type Divider[T constraints.Integer] struct {
	// magic is the multiplier. Zero means the divisor's magnitude is a power
	// of two and division is a plain shift.
	magic T
	// shift is the final right shift, 0 ≤ shift < Width[T]().
	shift uint8
	// add requests the correction term in Div, used when the ideal
	// multiplier needs one bit more than T has.
	add bool
	// negative is set iff the divisor was negative.
	negative bool
}

// Width returns the size of T in bits.
func Width[T constraints.Integer]() uint {
	var zero T
	return uint(unsafe.Sizeof(zero)) * 8
}

// IsSigned reports whether T is a signed integer type.
func IsSigned[T constraints.Integer]() bool {
	return ^T(0) < 0
}

// New computes the Divider for d.
//
// d must not be zero: New panics with ErrZeroDivisor if it is. This is a
// contract violation, in the same sense as a division by a zero constant.
func New[T constraints.Integer](d T) Divider[T] {
	if d == 0 {
		panic(ErrZeroDivisor)
	}
	w := Width[T]()
	negative := d < 0

	// |d| as the unsigned counterpart. Negation wraps, so the minimum signed
	// value maps onto its own magnitude 2^(w-1).
	abs := uint64(d) & mask(w)
	if negative {
		abs = -abs & mask(w)
	}
	floorLog2 := uint(63 - bits.LeadingZeros64(abs))

	if abs&(abs-1) == 0 {
		return Divider[T]{shift: uint8(floorLog2), negative: negative}
	}

	shift := floorLog2
	if IsSigned[T]() {
		// ±1 is a power of two, so a signed general divisor has |d| ≥ 3.
		if floorLog2 < 1 {
			panic(fmt.Sprintf("divider: floor(log2(%d)) = %d for a signed non-power-of-two divisor", d, floorLog2))
		}
		shift--
	}

	m, rem := divWide(uint64(1)<<shift, 0, abs, w)
	add := false
	if e := abs - rem; e >= uint64(1)<<floorLog2 {
		// The proposed power is too small. Use the next one, which makes the
		// multiplier one bit wider than T; Div compensates through add.
		m = (m + m) & mask(w)
		twice := (rem + rem) & mask(w)
		if twice >= abs || twice < rem {
			m++
		}
		shift = floorLog2
		add = true
	}
	m = (m + 1) & mask(w)

	magic := T(m)
	if negative {
		magic = -magic
	}
	return Divider[T]{magic: magic, shift: uint8(shift), add: add, negative: negative}
}

// Magic returns the multiplier, or zero for power-of-two divisors.
func (d Divider[T]) Magic() T { return d.magic }

// Shift returns the final right shift amount.
func (d Divider[T]) Shift() uint { return uint(d.shift) }

// Add reports whether division needs the correction term.
func (d Divider[T]) Add() bool { return d.add }

// Negative reports whether the divisor is negative.
func (d Divider[T]) Negative() bool { return d.negative }

func (d Divider[T]) String() string {
	return fmt.Sprintf("Divider[%T]{magic: %#x, shift: %d, add: %t, negative: %t}",
		d.magic, uint64(d.magic)&mask(Width[T]()), d.shift, d.add, d.negative)
}
