package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/intdiv/intdiv/divider"
	"github.com/intdiv/intdiv/internal/errorList"
	"github.com/intdiv/intdiv/internal/verify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/exp/constraints"
)

// version of the intdiv tool.
const version = "0.1.0"

var (
	errUnknownType        = errors.New("unknown integer type")
	errOutOfDomain        = errors.New("quotient not representable")
	errVerificationFailed = errors.New("verification failed")
)

// intType bundles the commands' operations for one integer type.
type intType struct {
	name     string
	describe func(out io.Writer, d string) error
	div      func(out io.Writer, n, d string) error
	verify   func(ctx context.Context, cfg verify.Config, exhaustive bool) (verify.Report, error)
	// bench returns nanoseconds per division.
	bench func(d string) (native, divided float64, err error)
}

func parseValue[T constraints.Integer](s string) (T, error) {
	bitSize := int(divider.Width[T]())
	if divider.IsSigned[T]() {
		v, err := strconv.ParseInt(s, 0, bitSize)
		return T(v), err
	}
	v, err := strconv.ParseUint(s, 0, bitSize)
	return T(v), err
}

func parseDivisor[T constraints.Integer](s string) (T, error) {
	d, err := parseValue[T](s)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("%s: %w", verify.TypeName[T](), divider.ErrZeroDivisor)
	}
	return d, nil
}

// benchWindow is the numerator window of one bench iteration.
const benchWindow = 1 << 9

func newIntType[T constraints.Integer]() *intType {
	name := verify.TypeName[T]()
	return &intType{
		name: name,
		describe: func(out io.Writer, s string) error {
			d, err := parseDivisor[T](s)
			if err != nil {
				return err
			}
			div := divider.New(d)
			fmt.Fprintf(out, "%v\n", div)
			fmt.Fprintf(out, "  divisor: %v\n", div.Divisor())
			return nil
		},
		div: func(out io.Writer, ns, ds string) error {
			n, err := parseValue[T](ns)
			if err != nil {
				return err
			}
			d, err := parseDivisor[T](ds)
			if err != nil {
				return err
			}
			if lo, _ := verify.Limits[T](); divider.IsSigned[T]() && n == lo && d == -T(1) {
				return fmt.Errorf("%s: %v / %v: %w", name, n, d, errOutOfDomain)
			}
			fmt.Fprintln(out, divider.New(d).Div(n))
			return nil
		},
		verify: func(ctx context.Context, cfg verify.Config, exhaustive bool) (verify.Report, error) {
			if exhaustive {
				return verify.Exhaustive[T](ctx, cfg)
			}
			return verify.Run[T](ctx, cfg)
		},
		bench: func(s string) (native, divided float64, err error) {
			d, err := parseDivisor[T](s)
			if err != nil {
				return 0, 0, err
			}
			nums := verify.Numerators(d, benchWindow)
			var sink T
			nativeResult := testing.Benchmark(func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					for _, n := range nums {
						if d != -T(1) {
							sink += n / d
						}
					}
				}
			})
			div := divider.New(d)
			dividedResult := testing.Benchmark(func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					for _, n := range nums {
						sink += div.Div(n)
					}
				}
			})
			log.Debugf("Benchmark checksum: %v", sink)
			return perDivision(nativeResult, len(nums)), perDivision(dividedResult, len(nums)), nil
		},
	}
}

// intTypes lists the supported types in the order `--type=all` visits them.
var intTypes = []*intType{
	newIntType[int8](),
	newIntType[uint8](),
	newIntType[int16](),
	newIntType[uint16](),
	newIntType[int32](),
	newIntType[uint32](),
	newIntType[int64](),
	newIntType[uint64](),
	newIntType[int](),
	newIntType[uint](),
	newIntType[uintptr](),
}

func typeNames() string {
	names := make([]string, 0, len(intTypes))
	for _, t := range intTypes {
		names = append(names, t.name)
	}
	return strings.Join(names, ", ")
}

// lookupTypes resolves a --type value. "all" selects the fixed-width types.
func lookupTypes(name string) ([]*intType, error) {
	if name == "all" {
		return intTypes[:8], nil
	}
	for _, t := range intTypes {
		if t.name == name {
			return []*intType{t}, nil
		}
	}
	return nil, fmt.Errorf("%w %q, want one of: all, %s", errUnknownType, name, typeNames())
}

func lookupType(name string) (*intType, error) {
	if name == "all" {
		return nil, fmt.Errorf("%w %q: this command needs a single type", errUnknownType, name)
	}
	ts, err := lookupTypes(name)
	if err != nil {
		return nil, err
	}
	return ts[0], nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "intdiv",
		Short:         "Division by runtime-invariant integers using multiplication",
		Long:          "intdiv precomputes magic-number dividers and checks them against native division.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	logLevel := cmd.PersistentFlags().String("log_level", log.ErrorLevel.String(), "Log level (debug, info, warn, error, fatal, panic).")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := log.ParseLevel(*logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log_level value %q: %w", *logLevel, err)
		}
		log.SetLevel(lvl)
		return nil
	}

	typeFlags := pflag.NewFlagSet("type", pflag.ContinueOnError)
	typeName := typeFlags.StringP("type", "t", "int32", fmt.Sprintf("Integer type, one of: %s.", typeNames()))

	cmdDescribe := &cobra.Command{
		Use:   "describe [divisor]...",
		Short: "print the divider descriptor for each divisor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookupType(*typeName)
			if err != nil {
				return err
			}
			for _, d := range args {
				if err := t.describe(cmd.OutOrStdout(), d); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmdDescribe.Flags().AddFlagSet(typeFlags)
	cmd.AddCommand(cmdDescribe)

	cmdDiv := &cobra.Command{
		Use:   "div [numerator] [divisor]",
		Short: "divide using a precomputed divider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookupType(*typeName)
			if err != nil {
				return err
			}
			return t.div(cmd.OutOrStdout(), args[0], args[1])
		},
	}
	cmdDiv.Flags().AddFlagSet(typeFlags)
	cmd.AddCommand(cmdDiv)

	cfg := verify.DefaultConfig()
	var exhaustive bool
	cmdVerify := &cobra.Command{
		Use:   "verify",
		Short: "check dividers against native division",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := lookupTypes(verifyType(cmd, *typeName))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			var errs errorList.ErrorList
			for _, t := range types {
				if ctx.Err() != nil {
					break
				}
				report, err := t.verify(ctx, cfg, exhaustive)
				if errors.Is(err, verify.ErrTooWide) {
					if len(types) == 1 {
						return err
					}
					log.Infof("Skipping %s: %v", t.name, err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), report)
				errs = errs.Append(err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(errs) == 0 {
				return nil
			}
			for _, err := range errs.Trim(cfg.MaxErrors) {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", err)
			}
			return fmt.Errorf("%w: %v", errVerificationFailed, errs)
		},
	}
	cmdVerify.Flags().AddFlagSet(typeFlags)
	cmdVerify.Flags().IntVar(&cfg.Random, "random", cfg.Random, "Number of random divisors per type.")
	cmdVerify.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed of the random divisors.")
	cmdVerify.Flags().IntVar(&cfg.Window, "window", cfg.Window, "Half-width of the exhaustive numerator window around zero.")
	cmdVerify.Flags().IntVarP(&cfg.Parallelism, "parallelism", "j", cfg.Parallelism, "Number of divisors checked concurrently.")
	cmdVerify.Flags().IntVar(&cfg.MaxErrors, "max_errors", cfg.MaxErrors, "Maximum number of reported mismatches; 0 reports all.")
	cmdVerify.Flags().BoolVar(&cfg.KeepGoing, "keep_going", cfg.KeepGoing, "Keep checking after the first mismatch.")
	cmdVerify.Flags().BoolVar(&exhaustive, "exhaustive", false, "Check every divisor against every numerator. 8-bit types only, or 16-bit with INTDIV_EXPERIMENT=exhaustive16.")
	cmdVerify.Flags().BoolVar(&cfg.Exhaustive16, "exhaustive16", cfg.Exhaustive16, "Allow --exhaustive on 16-bit types.")
	cmd.AddCommand(cmdVerify)

	cmdBench := &cobra.Command{
		Use:   "bench [divisor]...",
		Short: "compare divider throughput with native division",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookupType(*typeName)
			if err != nil {
				return err
			}
			testing.Init()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %-22s %14s %14s\n", "type", "divisor", "native ns/op", "divider ns/op")
			for _, d := range args {
				native, divided, err := t.bench(d)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-8s %-22s %14.2f %14.2f\n", t.name, d, native, divided)
			}
			return nil
		},
	}
	cmdBench.Flags().AddFlagSet(typeFlags)
	cmd.AddCommand(cmdBench)

	cmdVersion := &cobra.Command{
		Use:   "version",
		Short: "print intdiv version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "intdiv %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
	cmd.AddCommand(cmdVersion)

	return cmd
}

// verifyType defaults the verify command to every type unless --type is set.
func verifyType(cmd *cobra.Command, name string) string {
	if !cmd.Flags().Changed("type") {
		return "all"
	}
	return name
}

func perDivision(r testing.BenchmarkResult, divisions int) float64 {
	if r.N == 0 || divisions == 0 {
		return 0
	}
	return float64(r.T.Nanoseconds()) / float64(r.N) / float64(divisions)
}

// exitCode maps a command error to the process exit status: 1 for failed
// verification, 2 for invalid input.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errVerificationFailed), errors.Is(err, context.Canceled):
		return 1
	default:
		return 2
	}
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "intdiv: %v\n", err)
		os.Exit(exitCode(err))
	}
}
