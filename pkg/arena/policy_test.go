package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flier/tdmm/pkg/arena"
)

func TestPolicyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "first-fit", arena.FirstFit.String())
	assert.Equal(t, "best-fit", arena.BestFit.String())
	assert.Equal(t, "worst-fit", arena.WorstFit.String())
	assert.Equal(t, "Policy(99)", arena.Policy(99).String())
}

func TestDefaultPolicyIsFirstFit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, arena.FirstFit, arena.DefaultPolicy)
}

// TestPlacementPolicies exercises scenarios 5 and 6 from the allocator's
// testable properties: with three blocks of size 64, 256, 64 allocated
// and the middle one released, best-fit must choose the tight middle
// hole and worst-fit must choose the larger trailing free region.
func TestPlacementPolicies(t *testing.T) {
	t.Parallel()

	t.Run("best-fit selects the tightest hole", func(t *testing.T) {
		t.Parallel()

		var a arena.Arena
		a.Init(arena.BestFit)
		defer a.Reset()

		first := a.Allocate(64)
		middle := a.Allocate(256)
		_ = a.Allocate(64)

		a.Release(middle)

		got := a.Allocate(200)
		assert.Equal(t, middle, got, "best-fit should reuse the freed middle hole, not the trailing remainder")
		assert.NotEqual(t, first, got)
	})

	t.Run("worst-fit selects the largest region", func(t *testing.T) {
		t.Parallel()

		var a arena.Arena
		a.Init(arena.WorstFit)
		defer a.Reset()

		_ = a.Allocate(64)
		middle := a.Allocate(256)
		_ = a.Allocate(64)

		a.Release(middle)

		got := a.Allocate(64)
		assert.NotEqual(t, middle, got, "worst-fit should place in the large trailing free region, not the smaller middle hole")
	})
}
