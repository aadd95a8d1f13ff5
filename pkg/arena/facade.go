package arena

import "io"

// global is the default, process-wide instance used by the
// package-level facade functions below. Most callers should prefer
// constructing their own [Arena] value; the facade exists for callers
// that want init/allocate/release/reset to operate on implicit global
// state instead of threading an *Arena through their own code.
var global Arena

// Init initializes the default arena with the given placement policy.
// See [Arena.Init].
func Init(policy Policy) { global.Init(policy) }

// Allocate allocates n bytes from the default arena. See
// [Arena.Allocate].
func Allocate(n int) *byte { return global.Allocate(n) }

// Release returns p to the default arena. See [Arena.Release].
func Release(p *byte) { global.Release(p) }

// Reset tears down the default arena. See [Arena.Reset].
func Reset() { global.Reset() }

// Snapshot returns the default arena's current metrics. See
// [Arena.Metrics].
func Snapshot() Metrics { return global.Metrics() }

// OverheadBytes returns the default arena's structural overhead. See
// [Arena.OverheadBytes].
func OverheadBytes() int { return global.OverheadBytes() }

// PrintMetrics writes a human-readable report of the default arena's
// metrics to w. See [DisplayMetrics].
func PrintMetrics(w io.Writer) error { return DisplayMetrics(w, global.Metrics()) }
