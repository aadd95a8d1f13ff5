package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderSizeIsAligned(t *testing.T) {
	t.Parallel()

	assert.Greater(t, H, 0)
	assert.Zero(t, H%PayloadAlign)
}

func TestSplitLeavesWholeBlockWhenRemainderTooSmall(t *testing.T) {
	t.Parallel()

	var a Arena
	a.Init(FirstFit)
	defer a.Reset()

	head := a.head.AssertValid()
	whole := head.Size()

	split(head, whole-1) // remainder of 1 byte cannot hold H+4

	assert.Equal(t, whole, head.Size())
	assert.Nil(t, head.Next())
}

func TestSplitCarvesAFreeRemainder(t *testing.T) {
	t.Parallel()

	var a Arena
	a.Init(FirstFit)
	defer a.Reset()

	head := a.head.AssertValid()
	whole := head.Size()

	split(head, 64)

	assert.Equal(t, 64, head.Size())
	assert.NotNil(t, head.Next())
	assert.True(t, head.Next().Free())
	assert.Equal(t, whole-64-H, head.Next().Size())
	assert.Same(t, head, head.Next().Prev())
}

func TestCoalesceMergesFreeNeighbours(t *testing.T) {
	t.Parallel()

	var a Arena
	a.Init(FirstFit)
	defer a.Reset()

	head := a.head.AssertValid()
	whole := head.Size()

	split(head, 64)
	tail := head.Next()
	head.free = false

	split(tail, 64)
	middle := tail
	last := middle.Next()

	head.free = true
	middle.free = true
	last.free = true

	coalesce(last)

	reunited := a.head.AssertValid()
	assert.True(t, reunited.Free())
	assert.Nil(t, reunited.Next())
	assert.Equal(t, whole, reunited.Size())
}
