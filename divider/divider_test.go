package divider_test

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/intdiv/intdiv/divider"
	"github.com/intdiv/intdiv/internal/testingx"
	"golang.org/x/exp/constraints"
)

type testCaseI interface {
	Run(t *testing.T)
	String() string
}

type divCase[T constraints.Integer] struct {
	numerator T
	divisor   T
	want      T
}

func (tc *divCase[T]) Run(t *testing.T) {
	got := divider.New(tc.divisor).Div(tc.numerator)
	if got != tc.want {
		t.Errorf("Got: %v / %v = %v. Want: %v.", tc.numerator, tc.divisor, got, tc.want)
	}
}

func (tc *divCase[T]) String() string {
	return fmt.Sprintf("%T/%v÷%v", tc.numerator, tc.numerator, tc.divisor)
}

func divTC[T constraints.Integer](numerator, divisor, want T) *divCase[T] {
	return &divCase[T]{numerator: numerator, divisor: divisor, want: want}
}

func TestDiv(t *testing.T) {
	tests := []testCaseI{
		divTC[int32](22, 7, 3),
		divTC[int32](22, -7, -3),
		divTC[int32](-22, 7, -3),
		divTC[int32](-22, -7, 3),
		divTC[int32](-17, 8, -2), // Truncation, not floor.
		divTC[int32](-17, -8, 2),
		divTC[int32](math.MaxInt32, math.MaxInt32, 1),
		divTC[int32](math.MinInt32, math.MinInt32, 1),
		divTC[int32](math.MaxInt32, math.MinInt32, 0),
		divTC[int32](math.MinInt32, 3, -715827882),
		divTC[uint32](22, 7, 3),
		divTC[uint32](math.MaxUint32, 7, 613566756),
		divTC[uint32](math.MaxUint32, math.MaxUint32, 1),
		divTC[int16](-32768, 10, -3276),
		divTC[uint16](65535, 641, 102),
		divTC[int64](math.MinInt64, 7, -1317624576693539401),
		divTC[int64](math.MaxInt64, -3, -3074457345618258602),
		divTC[uint64](math.MaxUint64, 3, 6148914691236517205),
		divTC[uint64](math.MaxUint64, math.MaxUint64-1, 1),
		divTC[int8](-128, 3, -42),
		divTC[uint8](255, 13, 19),
		divTC[int](-1000, 9, -111),
		divTC[uint](1000, 9, 111),
	}

	for _, test := range tests {
		t.Run(test.String(), test.Run)
	}
}

type fields[T constraints.Integer] struct {
	Magic    T
	Shift    uint
	Add      bool
	Negative bool
}

func fieldsOf[T constraints.Integer](d divider.Divider[T]) fields[T] {
	return fields[T]{Magic: d.Magic(), Shift: d.Shift(), Add: d.Add(), Negative: d.Negative()}
}

func TestNewDescriptor(t *testing.T) {
	t.Run("int32", func(t *testing.T) {
		tests := []struct {
			divisor int32
			want    fields[int32]
		}{
			{divisor: 1, want: fields[int32]{}},
			{divisor: -1, want: fields[int32]{Negative: true}},
			{divisor: 3, want: fields[int32]{Magic: -1431655765, Shift: 1, Add: true}},
			{divisor: 7, want: fields[int32]{Magic: -1840700269, Shift: 2, Add: true}},
			{divisor: -7, want: fields[int32]{Magic: 1840700269, Shift: 2, Add: true, Negative: true}},
			{divisor: 8, want: fields[int32]{Shift: 3}},
			{divisor: -8, want: fields[int32]{Shift: 3, Negative: true}},
			{divisor: math.MaxInt32, want: fields[int32]{Magic: 1073741825, Shift: 29}},
			{divisor: math.MinInt32, want: fields[int32]{Shift: 31, Negative: true}},
		}
		for _, test := range tests {
			got := fieldsOf(divider.New(test.divisor))
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("New(%d) returned diff (-want,+got):\n%s", test.divisor, diff)
			}
		}
	})

	t.Run("uint32", func(t *testing.T) {
		tests := []struct {
			divisor uint32
			want    fields[uint32]
		}{
			{divisor: 1, want: fields[uint32]{}},
			{divisor: 3, want: fields[uint32]{Magic: 0xaaaaaaab, Shift: 1}},
			{divisor: 7, want: fields[uint32]{Magic: 0x24924925, Shift: 2, Add: true}},
			{divisor: 1 << 31, want: fields[uint32]{Shift: 31}},
		}
		for _, test := range tests {
			got := fieldsOf(divider.New(test.divisor))
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("New(%d) returned diff (-want,+got):\n%s", test.divisor, diff)
			}
		}
	})

	t.Run("64 bit", func(t *testing.T) {
		if diff := cmp.Diff(fields[int64]{Magic: 0x4924924924924925, Shift: 1}, fieldsOf(divider.New[int64](7))); diff != "" {
			t.Errorf("New[int64](7) returned diff (-want,+got):\n%s", diff)
		}
		if diff := cmp.Diff(fields[uint64]{Magic: 0x2492492492492493, Shift: 2, Add: true}, fieldsOf(divider.New[uint64](7))); diff != "" {
			t.Errorf("New[uint64](7) returned diff (-want,+got):\n%s", diff)
		}
	})
}

func TestNewZeroDivisor(t *testing.T) {
	testingx.MustPanic(t, divider.ErrZeroDivisor, func() { divider.New[int32](0) })
	testingx.MustPanic(t, divider.ErrZeroDivisor, func() { divider.New[uint64](0) })
}

// limits returns the smallest and the largest value of T.
func limits[T constraints.Integer]() (lo, hi T) {
	if divider.IsSigned[T]() {
		hi = T(1)<<(divider.Width[T]()-1) - 1
		return -hi - 1, hi
	}
	return 0, ^T(0)
}

// all calls f for every nonzero value of T. Only sensible for narrow types.
func all[T constraints.Integer](f func(v T)) {
	lo, hi := limits[T]()
	for v := lo; ; v++ {
		if v != 0 {
			f(v)
		}
		if v == hi {
			return
		}
	}
}

// interesting returns divisors around powers of two and the type limits.
func interesting[T constraints.Integer]() []T {
	lo, hi := limits[T]()
	ds := []T{lo, lo + 1, lo + 2, hi, hi - 1, hi - 2}
	for _, v := range []int64{3, 5, 6, 7, 10, 641, 1000} {
		ds = append(ds, T(v))
	}
	for i := uint(1); i < divider.Width[T](); i++ {
		p := T(1) << i
		ds = append(ds, p, p-1, p+1)
		if divider.IsSigned[T]() {
			ds = append(ds, -p, -p-1, -p+1)
		}
	}
	out := ds[:0]
	for _, d := range ds {
		if d != 0 {
			out = append(out, d)
		}
	}
	return out
}

func testRoundTrip[T constraints.Integer](t *testing.T, divisors []T) {
	t.Run(fmt.Sprintf("%T", T(0)), func(t *testing.T) {
		for _, d := range divisors {
			if got := divider.New(d).Divisor(); got != d {
				t.Fatalf("Got: New(%v).Divisor() = %v. Want: %v.", d, got, d)
			}
		}
	})
}

func TestDivisorRoundTrip(t *testing.T) {
	var (
		i8  []int8
		u8  []uint8
		i16 []int16
		u16 []uint16
	)
	all(func(v int8) { i8 = append(i8, v) })
	all(func(v uint8) { u8 = append(u8, v) })
	all(func(v int16) { i16 = append(i16, v) })
	all(func(v uint16) { u16 = append(u16, v) })

	testRoundTrip(t, i8)
	testRoundTrip(t, u8)
	testRoundTrip(t, i16)
	testRoundTrip(t, u16)
	testRoundTrip(t, interesting[int32]())
	testRoundTrip(t, interesting[uint32]())
	testRoundTrip(t, interesting[int64]())
	testRoundTrip(t, interesting[uint64]())
	testRoundTrip(t, interesting[int]())
	testRoundTrip(t, interesting[uintptr]())
}

func testExhaustive[T constraints.Integer](t *testing.T) {
	t.Run(fmt.Sprintf("%T", T(0)), func(t *testing.T) {
		lo, _ := limits[T]()
		all(func(d T) {
			div := divider.New(d)
			all(func(n T) {
				if divider.IsSigned[T]() && n == lo && d == -T(1) {
					return // Overflows.
				}
				if got, want := div.Div(n), n/d; got != want {
					t.Fatalf("Got: %v / %v = %v. Want: %v.", n, d, got, want)
				}
			})
			if got, want := div.Div(0), T(0); got != want {
				t.Fatalf("Got: 0 / %v = %v. Want: %v.", d, got, want)
			}
		})
	})
}

func TestDivExhaustive8(t *testing.T) {
	testExhaustive[int8](t)
	testExhaustive[uint8](t)
}

func TestDivWindow(t *testing.T) {
	div := divider.New[int32](3)
	for n := int32(-16384); n < 16384; n++ {
		if got, want := div.Div(n), n/3; got != want {
			t.Fatalf("Got: %d / 3 = %d. Want: %d.", n, got, want)
		}
	}
}

func testEdges[T constraints.Integer](t *testing.T) {
	t.Run(fmt.Sprintf("%T", T(0)), func(t *testing.T) {
		lo, hi := limits[T]()
		numerators := append(interesting[T](), 0, 1, 2)
		if divider.IsSigned[T]() {
			numerators = append(numerators, -T(1), -T(2))
		}
		for _, d := range interesting[T]() {
			div := divider.New(d)
			for _, n := range numerators {
				if divider.IsSigned[T]() && n == lo && d == -T(1) {
					continue
				}
				if got, want := div.Div(n), n/d; got != want {
					t.Fatalf("Got: %v / %v = %v. Want: %v (lo=%v, hi=%v).", n, d, got, want, lo, hi)
				}
			}
		}
	})
}

func TestDivEdges(t *testing.T) {
	testEdges[int16](t)
	testEdges[uint16](t)
	testEdges[int32](t)
	testEdges[uint32](t)
	testEdges[int64](t)
	testEdges[uint64](t)
	testEdges[int](t)
	testEdges[uint](t)
}

func testPowerOfTwo[T constraints.Integer](t *testing.T) {
	t.Run(fmt.Sprintf("%T", T(0)), func(t *testing.T) {
		for i := uint(0); i < divider.Width[T](); i++ {
			p := T(1) << i
			ds := []T{p}
			if divider.IsSigned[T]() {
				ds = append(ds, -p)
			}
			for _, d := range ds {
				div := divider.New(d)
				if div.Magic() != 0 || div.Add() || div.Shift() != i {
					t.Errorf("Got: New(%v) = %v. Want: magic 0, shift %d, no add.", d, div, i)
				}
				if div.Negative() != (d < 0) {
					t.Errorf("Got: New(%v).Negative() = %t. Want: %t.", d, div.Negative(), d < 0)
				}
			}
			if p > 2 {
				if div := divider.New(p + 1); div.Magic() == 0 {
					t.Errorf("Got: New(%v).Magic() = 0. Want: nonzero multiplier.", p+1)
				}
			}
		}
	})
}

func TestPowerOfTwoSentinel(t *testing.T) {
	testPowerOfTwo[int8](t)
	testPowerOfTwo[uint8](t)
	testPowerOfTwo[int16](t)
	testPowerOfTwo[uint16](t)
	testPowerOfTwo[int32](t)
	testPowerOfTwo[uint32](t)
	testPowerOfTwo[int64](t)
	testPowerOfTwo[uint64](t)
}

func TestNewIdempotent(t *testing.T) {
	for _, d := range interesting[int64]() {
		if a, b := divider.New(d), divider.New(d); a != b {
			t.Errorf("Got: New(%d) = %v, then %v. Want: identical descriptors.", d, a, b)
		}
	}
	for _, d := range interesting[uint16]() {
		if a, b := divider.New(d), divider.New(d); a != b {
			t.Errorf("Got: New(%d) = %v, then %v. Want: identical descriptors.", d, a, b)
		}
	}
}

func TestUnsignedNeverNegative(t *testing.T) {
	all(func(d uint16) {
		if divider.New(d).Negative() {
			t.Fatalf("Got: New[uint16](%d).Negative() = true. Want: false.", d)
		}
	})
}

func TestShiftRange(t *testing.T) {
	all(func(d int16) {
		if s := divider.New(d).Shift(); s > 15 {
			t.Fatalf("Got: New[int16](%d).Shift() = %d. Want: at most 15.", d, s)
		}
	})
}

func TestSharedAcrossGoroutines(t *testing.T) {
	div := divider.New[int64](-1000003)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := int64(g) * 100000; n < int64(g+1)*100000; n += 7 {
				if got, want := div.Div(n*1009), n*1009/-1000003; got != want {
					errs <- fmt.Errorf("Got: %d / -1000003 = %d. Want: %d.", n*1009, got, want)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{{
		got:  divider.New[int32](7).String(),
		want: "Divider[int32]{magic: 0x92492493, shift: 2, add: true, negative: false}",
	}, {
		got:  divider.New[int16](-4).String(),
		want: "Divider[int16]{magic: 0x0, shift: 2, add: false, negative: true}",
	}, {
		got:  divider.New[uint64](3).String(),
		want: "Divider[uint64]{magic: 0xaaaaaaaaaaaaaaab, shift: 1, add: false, negative: false}",
	}}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("Got: %q. Want: %q.", test.got, test.want)
		}
	}
}
