package arena

import "github.com/flier/tdmm/pkg/xunsafe"

// split shrinks b to need bytes of payload, carving a new free block out
// of the remainder when there is enough room for one.
//
// If the remainder could not itself hold a header plus PayloadAlign
// bytes of payload, b is left untouched and the whole block is handed
// out; this is invariant 6 (minimum residue).
func split(b *Block, need int) {
	remaining := b.Size() - need
	if remaining < H+PayloadAlign {
		return
	}

	addr := xunsafe.Addr[Block](b.Payload().ByteAdd(need))
	next := addr.AssertValid()

	*next = Block{
		size: uintptr(remaining - H),
		free: true,
		prev: xunsafe.AddrOf(b),
		next: b.next,
	}

	if old := b.Next(); old != nil {
		old.prev = addr
	}

	b.next = addr
	b.size = uintptr(need)
}
