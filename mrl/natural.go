package mrl

import (
	"cmp"

	"github.com/mrl98/quantiles/common"
)

// Natural returns a CompareFn using T's built-in ordering, for any T
// that supports the standard comparison operators. It is a convenience
// for the common case of quantiles over plain numbers or strings, where
// a caller would otherwise have to write `func(a, b T) bool { return a
// < b }` themselves; callers needing a different order (descending,
// locale-aware, or over a type cmp.Ordered can't express) write their
// own CompareFn instead.
//
// This mirrors the zero-argument Top.Largest / Top.create entry points
// of the source this module is derived from, which default to natural
// ordering when the caller supplies no comparator.
func Natural[T cmp.Ordered]() common.CompareFn[T] {
	return func(a, b T) bool { return a < b }
}
