package divider

// Div returns n / divisor, truncated toward zero.
//
// For signed T the quotient of the minimum value by -1 overflows; the result
// for that pair is unspecified.
func (d Divider[T]) Div(n T) T {
	if IsSigned[T]() {
		return d.divSigned(n)
	}
	return d.divUnsigned(n)
}

func (d Divider[T]) divUnsigned(n T) T {
	if d.magic == 0 {
		return n >> d.shift
	}
	q := T(mulhiUnsigned(uint64(d.magic), uint64(n), Width[T]()))
	if d.add {
		// floor((n+q)/2) without overflowing n+q.
		t := (n-q)>>1 + q
		return t >> d.shift
	}
	return q >> d.shift
}

func (d Divider[T]) divSigned(n T) T {
	w := Width[T]()
	if d.magic == 0 {
		// Bias negative numerators by 2^shift-1 so that the arithmetic shift
		// rounds toward zero instead of toward negative infinity.
		bias := (n >> (w - 1)) & (T(1)<<d.shift - 1)
		q := (n + bias) >> d.shift
		if d.negative {
			q = -q
		}
		return q
	}
	q := T(mulhiSigned(int64(d.magic), int64(n), w))
	if d.add {
		if d.negative {
			q -= n
		} else {
			q += n
		}
	}
	q >>= d.shift
	if q < 0 {
		q++
	}
	return q
}
