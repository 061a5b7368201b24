package divider

import "math/bits"

// Double-width arithmetic on values of an arbitrary width w ∈ {8,16,32,64}.
//
// Operands are carried in uint64/int64 and are expected to be already
// truncated (or sign-extended, for signed helpers) to w bits. For w < 64 the
// double-width intermediate fits into a single 64-bit word; for w == 64 the
// math/bits primitives provide the 128-bit half.

// mask returns a value with the low w bits set.
func mask(w uint) uint64 {
	return ^uint64(0) >> (64 - w)
}

// divWide divides the 2w-bit value hi·2^w + lo by d and returns the w-bit
// quotient and remainder.
//
// The caller must guarantee hi < d, so the quotient fits into w bits.
func divWide(hi, lo, d uint64, w uint) (q, r uint64) {
	if w == 64 {
		return bits.Div64(hi, lo, d)
	}
	n := hi<<w | lo
	return n / d, n % d
}

// mulhiUnsigned returns the upper w bits of the 2w-bit product x·y.
func mulhiUnsigned(x, y uint64, w uint) uint64 {
	if w == 64 {
		hi, _ := bits.Mul64(x, y)
		return hi
	}
	return (x * y) >> w
}

// mulhiSigned returns the upper w bits of the 2w-bit signed product x·y,
// sign-extended to 64 bits.
func mulhiSigned(x, y int64, w uint) int64 {
	if w == 64 {
		// The unsigned high word overcounts by y for negative x and by x for
		// negative y.
		hi, _ := bits.Mul64(uint64(x), uint64(y))
		hi -= uint64(x>>63) & uint64(y)
		hi -= uint64(y>>63) & uint64(x)
		return int64(hi)
	}
	return (x * y) >> w
}

// divPow2Wide returns floor(2^(w+s+1) / (2^w + m)) for s < w.
//
// The divisor is a (w+1)-bit value, so the computation goes through the
// half-size dividend 2^(w+s) and doubles the quotient afterwards, rounding
// up by one when the doubled remainder reaches the divisor.
func divPow2Wide(s uint, m uint64, w uint) uint64 {
	if w < 64 {
		n := uint64(1) << (w + s)
		d := uint64(1)<<w | m
		q, r := n/d, n%d
		if r<<1 >= d {
			return q<<1 + 1
		}
		return q << 1
	}

	// 128-bit dividend {nHi, 0} and 65-bit divisor {1, m}. Estimate the
	// quotient with both halved, which makes the divisor fit a single
	// normalized word; the estimate is at most one too large.
	nHi := uint64(1) << s
	q, _ := bits.Div64(nHi>>1, nHi<<63, 1<<63|m>>1)

	pHi, pLo := bits.Mul64(q, m)
	pHi += q
	if pHi > nHi || (pHi == nHi && pLo > 0) {
		q--
		var borrow uint64
		pLo, borrow = bits.Sub64(pLo, m, 0)
		pHi = pHi - 1 - borrow
	}

	// The remainder is below the 65-bit divisor, so doubling it cannot
	// overflow 128 bits.
	rLo, borrow := bits.Sub64(0, pLo, 0)
	rHi := nHi - pHi - borrow
	dHi, dLo := rHi<<1|rLo>>63, rLo<<1
	if dHi > 1 || (dHi == 1 && dLo >= m) {
		return q<<1 + 1
	}
	return q << 1
}
