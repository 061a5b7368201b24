package verify

import (
	"fmt"
	"math/rand"

	"github.com/intdiv/intdiv/divider"
	"golang.org/x/exp/constraints"
)

// smallPrimeLimit bounds the primes included in every divisor corpus.
const smallPrimeLimit = 1 << 10

// Limits returns the smallest and the largest value of T.
func Limits[T constraints.Integer]() (lo, hi T) {
	if divider.IsSigned[T]() {
		hi = T(1)<<(divider.Width[T]()-1) - 1
		return -hi - 1, hi
	}
	return 0, ^T(0)
}

// TypeName returns the Go name of T, e.g. "int32".
func TypeName[T constraints.Integer]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

// corpus accumulates values in insertion order, dropping duplicates and,
// optionally, zero.
type corpus[T constraints.Integer] struct {
	seen     map[T]bool
	values   []T
	keepZero bool
}

func newCorpus[T constraints.Integer](keepZero bool) *corpus[T] {
	return &corpus[T]{seen: map[T]bool{}, keepZero: keepZero}
}

func (c *corpus[T]) add(vs ...T) {
	for _, v := range vs {
		if (v == 0 && !c.keepZero) || c.seen[v] {
			continue
		}
		c.seen[v] = true
		c.values = append(c.values, v)
	}
}

// addPowersOfTwo adds every power of two representable in T together with
// its neighbours, and their negations for signed T.
func (c *corpus[T]) addPowersOfTwo() {
	for i := uint(0); i < divider.Width[T](); i++ {
		p := T(1) << i
		c.add(p, p-1, p+1)
		if divider.IsSigned[T]() {
			c.add(-p, -p-1, -p+1)
		}
	}
}

// primes returns the primes below n.
func primes(n int) []int {
	composite := make([]bool, n)
	var ps []int
	for i := 2; i < n; i++ {
		if composite[i] {
			continue
		}
		ps = append(ps, i)
		for j := i * i; j < n; j += i {
			composite[j] = true
		}
	}
	return ps
}

// Divisors returns the divisor corpus for T: small primes, the extremal
// values, powers of two and their neighbours, and cfg.Random values drawn
// from a source seeded with cfg.Seed. Zero is never included.
func Divisors[T constraints.Integer](cfg Config) []T {
	lo, hi := Limits[T]()
	signed := divider.IsSigned[T]()
	c := newCorpus[T](false)

	one := T(1)
	c.add(one, one+1)
	if signed {
		c.add(-one, -one-1)
	}
	for _, p := range primes(smallPrimeLimit) {
		if uint64(p) > uint64(hi) {
			break
		}
		c.add(T(p))
		if signed {
			c.add(-T(p))
		}
	}
	c.add(lo, lo+1, lo+2, hi, hi-1, hi-2)
	c.addPowersOfTwo()

	r := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Random; i++ {
		c.add(T(r.Uint64()))
	}
	return c.values
}

// Numerators returns the numerator corpus for divisor d: values at the type
// limits and around multiples of d, every value in the window
// [-window, window) (or [0, 2·window) for unsigned T) clamped to T, and
// powers of two with their neighbours.
func Numerators[T constraints.Integer](d T, window int) []T {
	lo, hi := Limits[T]()
	signed := divider.IsSigned[T]()
	c := newCorpus[T](true)

	one := T(1)
	c.add(0, one, one+1, lo, lo+1, hi, hi-1)
	c.add(d, d-1, d+1, d+d, hi/d*d, hi/d*d-1, lo/d*d, lo/d*d+1)
	if signed {
		c.add(-one, -one-1, -d, -d-1, -d+1)
	}

	if signed {
		for i := -int64(window); i < int64(window); i++ {
			if i >= int64(lo) && i <= int64(hi) {
				c.add(T(i))
			}
		}
	} else {
		for i := uint64(0); i < 2*uint64(window) && i <= uint64(hi); i++ {
			c.add(T(i))
		}
	}

	c.addPowersOfTwo()
	return c.values
}

// allValues returns every value of T, in increasing order. Only sensible for
// types of at most 16 bits.
func allValues[T constraints.Integer]() []T {
	lo, hi := Limits[T]()
	vs := make([]T, 0, 1<<divider.Width[T]())
	for v := lo; ; v++ {
		vs = append(vs, v)
		if v == hi {
			return vs
		}
	}
}
