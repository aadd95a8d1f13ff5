//go:build go1.23

package xiter

import (
	"iter"

	"github.com/flier/tdmm/pkg/opt"
)

// Find searches for an element of an iterator that satisfies a predicate f.
func Find[T any](x iter.Seq[T], f func(T) bool) opt.Option[T] {
	for v := range x {
		if f(v) {
			return opt.Some(v)
		}
	}

	return opt.None[T]()
}
