// Package experiments manages the experimental switches of the divider
// verification tooling.
//
// The INTDIV_EXPERIMENT environment variable controls them, for example:
//
//	INTDIV_EXPERIMENT=exhaustive16,random=100000 go test ./...
package experiments

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// EnvVar is the environment variable the flags are read from.
const EnvVar = "INTDIV_EXPERIMENT"

var (
	// ErrInvalidDest is returned by parseFlags() when the dest argument does
	// not meet the requirements.
	ErrInvalidDest = errors.New("invalid flag struct")
	// ErrInvalidFormat is returned by parseFlags() when the raw flag string
	// is malformed.
	ErrInvalidFormat = errors.New("invalid flag string format")
)

// Env contains the flag values parsed from INTDIV_EXPERIMENT.
var Env Flags

func init() {
	if err := parseFlags(os.Getenv(EnvVar), &Env); err != nil {
		panic(fmt.Errorf("failed to parse %s flags: %w", EnvVar, err))
	}
}

// Flags contains the currently supported experiments.
type Flags struct {
	// Exhaustive16 enables the every-divisor × every-numerator sweep over
	// 16-bit types, which takes minutes rather than milliseconds.
	Exhaustive16 bool `flag:"exhaustive16"`
	// Random overrides the number of random divisors per type used by the
	// verification harness. Zero keeps the default.
	Random int `flag:"random"`
}

// parseFlags parses a comma-separated list of `<name>` or `<name>=<value>`
// entries into the struct pointed to by dest.
//
// Fields are matched by their `flag` tag. A bare name means "true" and is
// only valid for boolean fields; integer fields need an explicit value.
// Spaces around names and values are ignored and the last repetition of a
// flag wins. Names without a matching field are skipped silently, so that a
// retired experiment left in someone's environment is harmless.
func parseFlags(raw string, dest any) error {
	ptr := reflect.ValueOf(dest)
	if ptr.Kind() != reflect.Pointer || ptr.Type().Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: must be a pointer to a struct", ErrInvalidDest)
	}
	if ptr.IsNil() {
		return fmt.Errorf("%w: must not be nil", ErrInvalidDest)
	}
	fields := fieldMap(ptr.Elem())

	if strings.TrimSpace(raw) == "" {
		return nil
	}
	for _, entry := range strings.Split(raw, ",") {
		key, val, hasVal := strings.Cut(entry, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if key == "" {
			return fmt.Errorf("%w: empty flag name", ErrInvalidFormat)
		}
		field, ok := fields[key]
		if !ok {
			continue
		}
		if err := setField(field, key, val, hasVal); err != nil {
			return err
		}
	}
	return nil
}

func setField(field reflect.Value, key, val string, hasVal bool) error {
	switch field.Kind() {
	case reflect.Bool:
		if !hasVal {
			field.SetBool(true)
			return nil
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%w: can't parse %q as boolean for flag %q", ErrInvalidFormat, val, key)
		}
		field.SetBool(b)
	case reflect.Int:
		if !hasVal {
			return fmt.Errorf("%w: flag %q needs a value", ErrInvalidFormat, key)
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: can't parse %q as integer for flag %q", ErrInvalidFormat, val, key)
		}
		field.SetInt(int64(i))
	default:
		return fmt.Errorf("%w: flag %q has unsupported type %s", ErrInvalidDest, key, field.Type())
	}
	return nil
}

// fieldMap returns the fields of struct s keyed by their "flag" tag.
func fieldMap(s reflect.Value) map[string]reflect.Value {
	typ := s.Type()
	result := map[string]reflect.Value{}
	for i := 0; i < typ.NumField(); i++ {
		if name, ok := typ.Field(i).Tag.Lookup("flag"); ok {
			result[name] = s.Field(i)
		}
	}
	return result
}
