package arena

import (
	"fmt"
	"iter"

	"github.com/flier/tdmm/pkg/opt"
	"github.com/flier/tdmm/pkg/xiter"
)

// Policy is a placement strategy: the rule used to pick which free block
// satisfies an allocation request.
//
// All three strategies are O(n) linear scans over the block list by
// design; there is deliberately no supporting index (tree, hash map) to
// speed them up; see [DefaultPolicy] for what is used before the first
// call to [Arena.Init].
type Policy int

const (
	// FirstFit returns the first free block, in address order, with
	// enough capacity.
	FirstFit Policy = iota
	// BestFit returns the smallest free block with enough capacity,
	// breaking ties by address order.
	BestFit
	// WorstFit returns the largest free block with enough capacity,
	// breaking ties by address order.
	WorstFit
)

// DefaultPolicy is used by an [Arena] that is implicitly initialized by
// its first [Arena.Allocate] call without an explicit [Arena.Init].
const DefaultPolicy = FirstFit

func (p Policy) String() string {
	switch p {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	case WorstFit:
		return "worst-fit"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// find selects a free block of capacity at least need from the list, or
// returns [opt.None] if no such block exists.
func (p Policy) find(list iter.Seq[*Block], need int) opt.Option[*Block] {
	switch p {
	case FirstFit:
		return xiter.Find(list, func(b *Block) bool {
			return b.Free() && b.Size() >= need
		})
	case BestFit:
		return scanForExtreme(list, need, func(candidate, chosen int) bool {
			return candidate < chosen
		})
	case WorstFit:
		return scanForExtreme(list, need, func(candidate, chosen int) bool {
			return candidate > chosen
		})
	default:
		return opt.None[*Block]()
	}
}

// scanForExtreme walks the whole list, keeping the first block for which
// better(candidate.Size(), chosen.Size()) holds against the running
// choice, tie-breaking in favor of the earlier (lower address) block.
func scanForExtreme(list iter.Seq[*Block], need int, better func(candidate, chosen int) bool) opt.Option[*Block] {
	var chosen *Block

	for b := range list {
		if !b.Free() || b.Size() < need {
			continue
		}

		if chosen == nil || better(b.Size(), chosen.Size()) {
			chosen = b
		}
	}

	if chosen == nil {
		return opt.None[*Block]()
	}

	return opt.Some(chosen)
}
