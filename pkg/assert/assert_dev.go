//go:build !release

// Package assert provides fail-fast checks for invariants that only break when the calling code is
// wrong. Release builds compile the checks away.
package assert

import "fmt"

// That panics with the formatted message when cond is false.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
