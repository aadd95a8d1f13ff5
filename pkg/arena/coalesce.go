package arena

import "github.com/flier/tdmm/pkg/xunsafe"

// coalesce merges b with any address-adjacent free neighbours, walking
// left first and then absorbing free blocks to the right. It
// re-establishes invariant 4 (no two adjacent free blocks) after a
// release.
func coalesce(b *Block) {
	for prev := b.Prev(); prev != nil && prev.Free(); prev = b.Prev() {
		b = prev
	}

	for next := b.Next(); next != nil && next.Free(); next = b.Next() {
		b.size += uintptr(H) + next.size
		b.next = next.next

		if after := b.Next(); after != nil {
			after.prev = xunsafe.AddrOf(b)
		}
	}
}
