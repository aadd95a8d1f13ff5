package arena

import (
	"github.com/flier/tdmm/internal/debug"
	"github.com/flier/tdmm/pkg/xunsafe"
	"github.com/flier/tdmm/pkg/xunsafe/layout"
)

// Allocate reserves n bytes of payload and returns a pointer to them,
// or nil on any failure. Failures are silent by design: a zero-size
// request, an uninitialized arena whose implicit init fails, or
// placement failing to find a sufficiently large free block all return
// nil without panicking or logging outside the debug build.
//
// The returned pointer is 4-byte aligned and lies within the arena
// until the matching [Arena.Release] or an [Arena.Reset].
func (a *Arena) Allocate(n int) *byte {
	t0 := now()

	if n == 0 {
		a.recordEvent(true, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.MallocZero++
		debug.Log(nil, "allocate", "n=0 -> nil")

		return nil
	}

	if !a.Ready() {
		a.Init(a.policy)
	}

	if !a.Ready() {
		a.recordEvent(true, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.MallocOOM++
		debug.Log(nil, "allocate", "n=%d -> nil (uninitialized)", n)

		return nil
	}

	need := layout.RoundUp(n, PayloadAlign)

	chosen := a.policy.find(blocks(a.head), need)
	if chosen.IsNone() {
		a.recordEvent(true, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.MallocOOM++
		debug.Log(nil, "allocate", "n=%d need=%d -> nil (no fit)", n, need)

		return nil
	}

	b := chosen.Unwrap()

	split(b, need)
	b.free = false

	p := b.Payload()
	if int(p)%PayloadAlign != 0 {
		// Cannot happen under invariant 5; guarded defensively anyway,
		// matching the allocator's failure-is-silent contract.
		b.free = true
		a.recordEvent(true, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.MallocOOM++

		return nil
	}

	a.recordEvent(true, need, elapsed(t0, now()))
	debug.Log(nil, "allocate", "n=%d need=%d -> %v", n, need, p)

	return p.AssertValid()
}

// Release returns the block at p back to the free list, coalescing it
// with any free neighbours. p must be a pointer previously returned by
// [Arena.Allocate] on this arena and not yet released.
//
// Release is always a no-op on invalid input: a nil pointer, a pointer
// outside the arena, a header that would fall outside the arena, or a
// block that is already free. No failure is ever surfaced to the
// caller.
func (a *Arena) Release(p *byte) {
	t0 := now()

	if p == nil {
		a.recordEvent(false, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.FreeNoop++
		debug.Log(nil, "release", "nil -> no-op")

		return
	}

	addr := xunsafe.AddrOf(p)
	if !a.contains(addr) {
		a.recordEvent(false, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.FreeNoop++
		debug.Log(nil, "release", "%v -> no-op (outside arena)", addr)

		return
	}

	headerAddr := blockFromPayload(addr)
	if !a.contains(xunsafe.Addr[byte](headerAddr)) {
		a.recordEvent(false, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.FreeNoop++
		debug.Log(nil, "release", "%v -> no-op (header outside arena)", addr)

		return
	}

	b := headerAddr.AssertValid()
	if b.Free() {
		a.recordEvent(false, 0, elapsed(t0, now()))
		a.metrics.FailureCounts.FreeNoop++
		debug.Log(nil, "release", "%v -> no-op (double free)", addr)

		return
	}

	freed := b.Size()
	b.free = true
	coalesce(b)

	a.recordEvent(false, freed, elapsed(t0, now()))
	debug.Log(nil, "release", "%v size=%d", addr, freed)
}
