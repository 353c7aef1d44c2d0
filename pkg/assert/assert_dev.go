//go:build !release

// Package assert checks caller contracts. Violations panic in development builds and compile
// away when building with -tags release, where breaking a precondition is undefined behavior.
package assert

import "fmt"

// Enabled reports whether assertions are compiled in.
const Enabled = true

func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
