package arena_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flier/tdmm/pkg/arena"
)

func TestMetricsAccounting(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	a.Init(arena.FirstFit)
	defer a.Reset()

	p := a.Allocate(100)
	assert.NotNil(t, p)
	assert.Equal(t, 100, a.Metrics().CurInuseBytes())
	assert.Equal(t, 100, a.Metrics().PeakInuseBytes())

	q := a.Allocate(50)
	assert.NotNil(t, q)
	assert.Equal(t, 152, a.Metrics().CurInuseBytes())
	assert.Equal(t, 152, a.Metrics().PeakInuseBytes())

	a.Release(p)
	assert.Equal(t, 52, a.Metrics().CurInuseBytes())
	assert.Equal(t, 152, a.Metrics().PeakInuseBytes(), "peak must not regress after a release")

	a.Release(q)
	assert.Equal(t, 0, a.Metrics().CurInuseBytes())
}

func TestMetricsFailureCounts(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	a.Init(arena.FirstFit)
	defer a.Reset()

	a.Allocate(0)
	assert.EqualValues(t, 1, a.Metrics().FailureCounts.MallocZero)

	a.Allocate(a.Metrics().BytesFromOS())
	assert.EqualValues(t, 1, a.Metrics().FailureCounts.MallocOOM)

	a.Release(nil)
	assert.EqualValues(t, 1, a.Metrics().FailureCounts.FreeNoop)
}

func TestDisplayMetrics(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	a.Init(arena.FirstFit)
	defer a.Reset()

	p := a.Allocate(64)
	a.Release(p)

	var buf bytes.Buffer
	err := arena.DisplayMetrics(&buf, a.Metrics())
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "TDMM METRICS")
	assert.Contains(t, out, "OS bytes (mmap):")
	assert.Contains(t, out, "Average utilization:")
}
