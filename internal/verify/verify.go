// Package verify checks dividers against native Go division.
//
// For every divisor of a corpus it builds a divider and checks that the
// divider reconstructs its divisor, that construction is deterministic, that
// the power-of-two sentinel is set exactly for powers of two, and that Div
// agrees with the / operator over a corpus of numerators. Checking a divisor
// stops at its first divergence.
package verify

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/intdiv/intdiv/divider"
	"github.com/intdiv/intdiv/internal/errorList"
	"github.com/intdiv/intdiv/internal/experiments"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

// ErrTooWide is returned by Exhaustive for types too wide to enumerate.
var ErrTooWide = errors.New("type too wide for an exhaustive check")

// Config controls a verification run.
type Config struct {
	// Random is the number of random divisors added to the corpus.
	Random int
	// Seed seeds the random divisor source. Runs with equal seeds check the
	// same divisors.
	Seed int64
	// Window is the half-width of the exhaustive numerator range.
	Window int
	// Parallelism bounds the number of divisors checked concurrently.
	Parallelism int
	// MaxErrors trims the returned error list. Zero keeps every error.
	MaxErrors int
	// KeepGoing continues with the remaining divisors after a mismatch
	// instead of halting the run.
	KeepGoing bool
	// Exhaustive16 allows Exhaustive on 16-bit types.
	Exhaustive16 bool
}

// DefaultConfig returns the configuration used by tests and the command line
// tool, adjusted by the INTDIV_EXPERIMENT flags.
func DefaultConfig() Config {
	cfg := Config{
		Random:       1000,
		Window:       1 << 10,
		Parallelism:  runtime.GOMAXPROCS(0),
		MaxErrors:    10,
		Exhaustive16: experiments.Env.Exhaustive16,
	}
	if experiments.Env.Random > 0 {
		cfg.Random = experiments.Env.Random
	}
	return cfg
}

// Report summarizes a verification run.
type Report struct {
	Type string
	// Divisors is the number of divisors checked.
	Divisors int
	// Numerators is the number of quotients compared with native division.
	Numerators int
	Elapsed    time.Duration
}

func (r Report) String() string {
	return fmt.Sprintf("%s: %d divisors, %d quotients checked in %v",
		r.Type, r.Divisors, r.Numerators, r.Elapsed.Round(time.Millisecond))
}

// Check verifies the divider for d against every numerator in numerators
// and returns the number of quotients compared. The first divergence is
// returned as a *Mismatch[T].
func Check[T constraints.Integer](d T, numerators []T) (int, error) {
	div := divider.New(d)
	if err := checkDescriptor(d, div); err != nil {
		return 0, err
	}
	return checkQuotients(d, numerators, div.Div)
}

func checkDescriptor[T constraints.Integer](d T, div divider.Divider[T]) error {
	if got := div.Divisor(); got != d {
		return &Mismatch[T]{Op: OpDivisor, Divisor: d, Want: d, Got: got}
	}
	if again := divider.New(d); again != div {
		return &Mismatch[T]{Op: OpIdempotence, Divisor: d,
			Detail: fmt.Sprintf("New returned %v, then %v", div, again)}
	}
	if pow2 := isPowerOfTwo(d); pow2 != (div.Magic() == 0) {
		return &Mismatch[T]{Op: OpSentinel, Divisor: d,
			Detail: fmt.Sprintf("power of two: %t, descriptor %v", pow2, div)}
	}
	if !divider.IsSigned[T]() && div.Negative() {
		return &Mismatch[T]{Op: OpSentinel, Divisor: d,
			Detail: fmt.Sprintf("unsigned divisor marked negative: %v", div)}
	}
	return nil
}

// checkQuotients compares quo(n) with n / d. The pair (min, -1) overflows
// and is skipped.
func checkQuotients[T constraints.Integer](d T, numerators []T, quo func(T) T) (int, error) {
	lo, _ := Limits[T]()
	skipMin := divider.IsSigned[T]() && d == -T(1)
	checked := 0
	for _, n := range numerators {
		if skipMin && n == lo {
			continue
		}
		if got, want := quo(n), n/d; got != want {
			return checked, &Mismatch[T]{Op: OpDiv, Divisor: d, Numerator: n, Want: want, Got: got}
		}
		checked++
	}
	return checked, nil
}

func isPowerOfTwo[T constraints.Integer](d T) bool {
	w := divider.Width[T]()
	abs := uint64(d) << (64 - w) >> (64 - w)
	if d < 0 {
		abs = (-abs) << (64 - w) >> (64 - w)
	}
	return abs != 0 && abs&(abs-1) == 0
}

// Run checks every divisor of Divisors[T](cfg) against its Numerators.
//
// Divisors are checked concurrently. Unless cfg.KeepGoing is set, the first
// mismatch halts the run; mismatches found by divisors already in flight are
// reported as well. The returned error is an errorList.ErrorList of
// *Mismatch[T], or the context error if ctx ended first.
func Run[T constraints.Integer](ctx context.Context, cfg Config) (Report, error) {
	divisors := Divisors[T](cfg)
	return run(ctx, cfg, divisors, func(d T) []T { return Numerators(d, cfg.Window) }, Check[T])
}

// Exhaustive checks every nonzero divisor of T against every numerator of
// T. It accepts 8-bit types, and 16-bit types when cfg.Exhaustive16 is set.
func Exhaustive[T constraints.Integer](ctx context.Context, cfg Config) (Report, error) {
	w := divider.Width[T]()
	if w > 16 || (w == 16 && !cfg.Exhaustive16) {
		return Report{Type: TypeName[T]()}, fmt.Errorf("%w: %s", ErrTooWide, TypeName[T]())
	}
	values := allValues[T]()
	divisors := make([]T, 0, len(values)-1)
	for _, v := range values {
		if v != 0 {
			divisors = append(divisors, v)
		}
	}
	return run(ctx, cfg, divisors, func(T) []T { return values }, Check[T])
}

// checkFunc is the signature of Check.
type checkFunc[T constraints.Integer] func(d T, numerators []T) (int, error)

func run[T constraints.Integer](ctx context.Context, cfg Config, divisors []T, numerators func(T) []T, check checkFunc[T]) (Report, error) {
	start := time.Now()
	report := Report{Type: TypeName[T]()}
	logger := log.WithField("type", report.Type)
	logger.Infof("Checking %d divisors.", len(divisors))

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	var (
		mu   sync.Mutex
		errs errorList.ErrorList
	)
	for _, d := range divisors {
		d := d
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil // Halted by a mismatch or by the caller.
			}
			n, err := check(d, numerators(d))

			mu.Lock()
			defer mu.Unlock()
			report.Divisors++
			report.Numerators += n
			if err == nil {
				logger.Debugf("Divisor %v: %d quotients match.", d, n)
				return nil
			}
			logger.Warningf("Mismatch: %v", err)
			errs = errs.Append(err)
			if cfg.KeepGoing {
				return nil
			}
			return err
		})
	}
	_ = g.Wait() // Mismatches are collected in errs.
	report.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if len(errs) > 0 {
		logger.Errorf("%d mismatches; %v.", len(errs), report)
	} else {
		logger.Infof("%v.", report)
	}
	return report, errs.Trim(cfg.MaxErrors).ErrOrNil()
}
