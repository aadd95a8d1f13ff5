// Package arena implements a teaching heap allocator on top of a single
// anonymous memory mapping obtained from the operating system.
//
// # Design
//
// An [Arena] owns exactly one contiguous, page-aligned mapping, carved
// at init into a doubly-linked list of [Block] headers living inside
// that mapping itself: the header for a block of memory is written at
// the very address that block begins at, and the list is walked by
// address arithmetic rather than by following ordinary Go pointers.
// This intentionally mirrors how a systems-language allocator has no
// choice but to store bookkeeping alongside the memory it manages.
//
// Allocation chooses a free block via one of three placement policies
// (first/best/worst fit, see [Policy]), splits it down to the requested
// size if there is enough left over to form a new free block, and
// flips its free bit. Release flips the bit back and coalesces with
// any free neighbours.
//
// # Usage
//
//	var a arena.Arena
//	a.Init(arena.BestFit)
//
//	p := a.Allocate(128)
//	// ... use the 128 bytes at p ...
//	a.Release(p)
//
//	a.Reset() // unmaps the arena; only needed to tear down early
//
// # Memory safety
//
// The arena exclusively owns all block headers. A pointer returned by
// [Arena.Allocate] is a weak, non-owning view into the arena's payload
// region; it must not be read or written once [Arena.Release] or
// [Arena.Reset] has been called on it. The [H] bytes immediately
// preceding a returned pointer belong to the header and must never be
// touched by a caller.
//
// # Concurrency
//
// An Arena is single-threaded. There is no internal locking; concurrent
// calls from multiple goroutines are undefined behaviour.
package arena

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/flier/tdmm/internal/debug"
	"github.com/flier/tdmm/pkg/res"
	"github.com/flier/tdmm/pkg/xerrors"
	"github.com/flier/tdmm/pkg/xunsafe"
	"github.com/flier/tdmm/pkg/zc"
)

// PayloadAlign is the alignment, in bytes, guaranteed for every payload
// address returned by [Arena.Allocate].
const PayloadAlign = 4

// BaselineArenaBytes is the configured arena size before rounding up to
// the OS page size. [Arena.Init] requests this many bytes, rounded up.
const BaselineArenaBytes = 64 << 20 // 64 MiB

// Arena is a single OS-backed region of memory managed as a free-list
// heap.
//
// A zero Arena is uninitialized; the first call to [Arena.Allocate]
// implicitly initializes it with [DefaultPolicy]. Use [Arena.Init] to
// choose a different placement policy up front.
type Arena struct {
	_ xunsafe.NoCopy

	base   xunsafe.Addr[byte]
	size   int
	head   xunsafe.Addr[Block]
	policy Policy

	metrics Metrics
}

// Ready reports whether the arena currently owns a live mapping.
func (a *Arena) Ready() bool { return a.base != 0 }

// Init requests a fresh anonymous mapping of [BaselineArenaBytes],
// rounded up to the OS page size, and installs it as this Arena's
// backing region with a single free block covering it in full.
//
// If the arena already owns a mapping, it is unmapped first. On mapping
// failure, the arena is left uninitialized; the next [Arena.Allocate]
// with n > 0 retries the mapping and returns nil if that attempt fails
// too, per the allocator's silent-failure contract. The underlying error
// is only visible via the debug log.
func (a *Arena) Init(policy Policy) {
	if a.Ready() {
		a.Reset()
	}

	a.policy = policy

	size := pageRoundUp(BaselineArenaBytes)

	result := mmapArena(size)
	if result.IsErr() {
		if errno, ok := xerrors.AsA[unix.Errno](result.Err); ok {
			debug.Log(nil, "init", "mmap(%d) failed: errno=%d", size, int(errno))
		} else {
			debug.Log(nil, "init", "mmap(%d) failed: %v", size, result.Err)
		}

		return
	}

	base := result.Unwrap()

	a.base = xunsafe.AddrOf(base)
	a.size = size
	a.head = xunsafe.Addr[Block](a.base)

	head := a.head.AssertValid()
	*head = Block{
		size: uintptr(size - H),
		free: true,
	}

	// An init event samples utilization once at 0%, same as every other
	// metric event does; numUtil starts at 1 rather than 0 to reflect it.
	a.metrics = Metrics{bytesFromOS: size, numUtil: 1}

	debug.Log(nil, "init", "policy=%v base=%v size=%d", policy, a.base, size)
}

// Reset unmaps the arena's memory, zeroes its metrics and returns it to
// the uninitialized state. The placement policy of the last [Arena.Init]
// is kept and is used by the next implicit init. It exists
// primarily so tests can start each scenario from a clean arena; a long
// running process normally never calls it, and the mapping is simply
// held until the process exits.
func (a *Arena) Reset() {
	if !a.Ready() {
		return
	}

	if p := a.base.AssertValid(); p != nil {
		_ = unix.Munmap(unsafe.Slice(p, a.size))
	}

	a.base = 0
	a.size = 0
	a.head = 0
	a.metrics = Metrics{}
}

// Dump returns a live walk of the block list as packed (offset, length)
// views relative to the arena's base address, one per block including
// its header. It walks the same list [Arena.OverheadBytes] counts and is
// useful for asserting list topology in tests without exposing [Block]
// itself.
func (a *Arena) Dump() []zc.View {
	if !a.Ready() {
		return nil
	}

	var views []zc.View

	for b := range blocks(a.head) {
		offset := xunsafe.Addr[byte](xunsafe.AddrOf(b)).Sub(a.base)
		views = append(views, zc.Raw(offset, H+b.Size()))
	}

	return views
}

// OverheadBytes returns H times the number of live blocks in the list,
// recomputed by a fresh walk each call rather than cached, per the
// allocator's accounting rules.
func (a *Arena) OverheadBytes() int {
	if !a.Ready() {
		return 0
	}

	count := 0
	for range blocks(a.head) {
		count++
	}

	return count * H
}

// Metrics returns a snapshot of this arena's accumulated metrics.
func (a *Arena) Metrics() Metrics { return a.metrics }

// contains reports whether addr lies within [a.base, a.base+a.size).
func (a *Arena) contains(addr xunsafe.Addr[byte]) bool {
	if !a.Ready() {
		return false
	}

	return addr >= a.base && addr < a.base.Add(a.size)
}

func mmapArena(size int) res.Result[*byte] {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return res.Err[*byte](err)
	}

	return res.Ok(unsafe.SliceData(mem))
}

func pageRoundUp(n int) int {
	page := unix.Getpagesize()
	if page <= 0 {
		page = 4096
	}

	return (n + page - 1) / page * page
}

func now() time.Time { return time.Now() }

// elapsed returns the monotonic nanoseconds between t0 and t1, treating
// a negative delta (a clock that appeared to move backwards) as zero.
func elapsed(t0, t1 time.Time) int64 {
	d := t1.Sub(t0)
	if d < 0 {
		return 0
	}

	return d.Nanoseconds()
}
