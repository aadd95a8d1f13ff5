//go:build go1.20

package xunsafe

import (
	"fmt"
	"unsafe"

	"github.com/flier/tdmm/pkg/xunsafe/layout"
)

// Addr is a raw, typed address: a uintptr that remembers the type of the
// value it (conceptually) points at, so that arithmetic on it can be scaled
// or formatted without the caller re-deriving the element size each time.
//
// Unlike a Go pointer, an Addr carries no GC liveness guarantee; the memory
// it refers to must be kept alive by some other means (for tdmm, by the
// arena's own mmap'd region, which is never moved or collected).
type Addr[T any] uintptr

// AddrOf returns the address of p as an Addr.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](unsafe.Pointer(p))
}

// EndOf returns the address just past the end of the given slice.
func EndOf[S ~[]E, E any](s S) Addr[E] {
	return AddrOf(unsafe.SliceData(s)).Add(len(s))
}

// AssertValid converts this address back into a pointer.
//
// Returns nil if the address is zero.
func (a Addr[T]) AssertValid() *T {
	if a == 0 {
		return nil
	}

	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add adds n elements' worth of offset to a, scaled by the size of T.
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](n*layout.Size[T]())
}

// ByteAdd adds n bytes of offset to a, unscaled.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return a + Addr[T](n)
}

// Sub returns the number of elements of T between a and b.
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(a-b) / layout.Size[T]()
}

// Padding returns the number of bytes needed to round a up to align.
func (a Addr[T]) Padding(align int) int {
	return layout.Padding(int(a), align)
}

// RoundUpTo rounds a up to the given alignment.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](layout.RoundUp(int(a), align))
}

// SignBit returns true if the high bit of a is set.
func (a Addr[T]) SignBit() bool {
	return int(a) < 0
}

// SignBitMask returns all-ones if SignBit is set, all-zeros otherwise.
func (a Addr[T]) SignBitMask() Addr[T] {
	if a.SignBit() {
		return ^Addr[T](0)
	}

	return 0
}

// ClearSignBit clears the high bit of a.
func (a Addr[T]) ClearSignBit() Addr[T] {
	return a &^ (Addr[T](1) << (layout.Bits[uintptr]() - 1))
}

// Format implements [fmt.Formatter], printing the address in hexadecimal.
func (a Addr[T]) Format(s fmt.State, verb rune) {
	switch verb {
	case 'x':
		fmt.Fprintf(s, "%x", uintptr(a))
	default:
		fmt.Fprintf(s, "0x%x", uintptr(a))
	}
}
