package divider

// Divisor reconstructs the divisor d was built from.
//
// It inverts New and is meant for validating descriptors; division itself
// never needs it.
func (d Divider[T]) Divisor() T {
	w := Width[T]()
	if d.magic == 0 {
		abs := T(1) << d.shift
		if d.negative {
			return -abs
		}
		return abs
	}

	if IsSigned[T]() {
		m := d.magic
		if d.negative {
			m = -m
		}
		q, _ := divWide(uint64(1)<<d.shift, 0, uint64(m)&mask(w), w)
		abs := T(q + 1)
		if d.negative {
			return -abs
		}
		return abs
	}

	// New rounds the multiplier down before adding one, so the divisor is
	// one more than the floor of the inverted quotient.
	m := uint64(d.magic)
	if !d.add {
		q, _ := divWide(uint64(1)<<d.shift, 0, m, w)
		return T(q + 1)
	}
	return T(divPow2Wide(uint(d.shift), m, w) + 1)
}
