package arena

import (
	"fmt"
	"io"
)

// Metrics is a read-only snapshot of an [Arena]'s accumulated
// counters, updated at every [Arena.Allocate] / [Arena.Release] call
// including failed ones. Metrics values are purely observational; they
// never influence an allocator decision.
type Metrics struct {
	bytesFromOS    int
	curInuseBytes  int
	peakInuseBytes int

	utilSum float64
	numUtil int64

	mallocNsTotal int64
	freeNsTotal   int64

	// FailureCounts breaks down the three silent-failure kinds the
	// allocator can hit, so a caller auditing behaviour does not have to
	// infer failures purely from the gap between call count and
	// successful-allocation deltas.
	FailureCounts FailureCounts
}

// FailureCounts tallies each distinct silent-failure branch in the
// allocator's error-handling design: a zero-size request, an
// out-of-memory placement miss, and a no-op release.
type FailureCounts struct {
	MallocZero int64 // allocate(0) calls
	MallocOOM  int64 // allocate(n>0) calls with no block found
	FreeNoop   int64 // release calls that did nothing
}

// BytesFromOS returns the arena's fixed size in bytes, as reported by
// the OS at init.
func (m Metrics) BytesFromOS() int { return m.bytesFromOS }

// CurInuseBytes returns the sum of payload capacity over all
// currently-allocated blocks.
func (m Metrics) CurInuseBytes() int { return m.curInuseBytes }

// PeakInuseBytes returns the running maximum of CurInuseBytes observed
// so far.
func (m Metrics) PeakInuseBytes() int { return m.peakInuseBytes }

// AverageUtilization returns the mean of cur_inuse_bytes/bytes_from_os
// sampled at every metric event, or 0 if no sample has been taken yet.
func (m Metrics) AverageUtilization() float64 {
	if m.numUtil == 0 {
		return 0
	}

	return m.utilSum / float64(m.numUtil)
}

// PeakUtilization returns PeakInuseBytes/BytesFromOS, or 0 if the arena
// has no backing bytes.
func (m Metrics) PeakUtilization() float64 {
	if m.bytesFromOS == 0 {
		return 0
	}

	return float64(m.peakInuseBytes) / float64(m.bytesFromOS)
}

// MallocNsTotal returns the summed monotonic nanoseconds spent inside
// every call to [Arena.Allocate], including failed calls.
func (m Metrics) MallocNsTotal() int64 { return m.mallocNsTotal }

// FreeNsTotal returns the summed monotonic nanoseconds spent inside
// every call to [Arena.Release], including no-op calls.
func (m Metrics) FreeNsTotal() int64 { return m.freeNsTotal }

// Samples returns the number of utilization samples accumulated.
func (m Metrics) Samples() int64 { return m.numUtil }

// recordEvent folds a malloc or free event into the running metrics,
// mirroring the accounting rules in the allocator's design: allocation
// adds the rounded request size (need); release subtracts the actual
// block payload size, saturating at zero. A sample of current
// utilization is appended whenever bytes_from_os is positive.
func (a *Arena) recordEvent(isMalloc bool, delta int, dt int64) {
	m := &a.metrics

	if isMalloc {
		m.mallocNsTotal += dt
		m.curInuseBytes += delta
		if m.curInuseBytes > m.peakInuseBytes {
			m.peakInuseBytes = m.curInuseBytes
		}
	} else {
		m.freeNsTotal += dt
		m.curInuseBytes -= delta
		if m.curInuseBytes < 0 {
			m.curInuseBytes = 0
		}
	}

	if m.bytesFromOS > 0 {
		m.utilSum += float64(m.curInuseBytes) / float64(m.bytesFromOS)
		m.numUtil++
	}
}

// DisplayMetrics writes a human-readable report of m to w. It is a
// thin formatter kept separate from the allocator's own code path: the
// allocator never prints anything itself, matching the silent-failure
// design of [Arena.Allocate] and [Arena.Release].
func DisplayMetrics(w io.Writer, m Metrics) error {
	lines := []string{
		"===== TDMM METRICS =====",
		fmt.Sprintf("OS bytes (mmap):        %d", m.BytesFromOS()),
		fmt.Sprintf("Current in-use bytes:   %d", m.CurInuseBytes()),
		fmt.Sprintf("Peak in-use bytes:      %d", m.PeakInuseBytes()),
		fmt.Sprintf("Peak utilization:       %.6f", m.PeakUtilization()),
		fmt.Sprintf("Average utilization:    %.6f", m.AverageUtilization()),
		fmt.Sprintf("Total malloc time (ns): %d", m.MallocNsTotal()),
		fmt.Sprintf("Total free time (ns):   %d", m.FreeNsTotal()),
	}

	if m.Samples() > 0 {
		lines = append(lines, fmt.Sprintf("Samples taken:          %d", m.Samples()))
	}

	lines = append(lines, "========================")

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
