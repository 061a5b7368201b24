// Package testingx provides helpers for use with the testing package.
package testingx

import (
	"errors"
	"testing"
)

// Must provides a concise way to handle a returned error in test setup that
// "should never happen".
//
// It MUST NOT be used to check the condition under test itself, because the
// failure message it produces is generic.
//
//	mustParse := testingx.Must[int32](t)
//	n := mustParse(parseValue[int32]("-7"))
func Must[T any](t *testing.T) func(v T, err error) T {
	return func(v T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("Got: unexpected error: %s. Want: no error.", err)
		}
		return v
	}
}

// MustPanic calls f and fails the test unless f panics with a value matching
// want under errors.Is.
func MustPanic(t *testing.T, want error, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("Got: no panic. Want: panic with %v.", want)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, want) {
			t.Fatalf("Got: panic with %v. Want: panic with %v.", r, want)
		}
	}()
	f()
}
