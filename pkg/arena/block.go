package arena

import (
	"iter"

	"github.com/flier/tdmm/pkg/xunsafe"
	"github.com/flier/tdmm/pkg/xunsafe/layout"
)

// Block is the header prefixing every block of arena memory.
//
// A Block is never allocated by Go; it is a view over bytes that live
// inside an [Arena]'s mmap'd region, constructed by casting a raw
// address. Its prev/next links are themselves addresses into that same
// region rather than ordinary Go pointers, so that the list can be
// walked by arithmetic alone, the way [Arena.Dump] and the split/coalesce
// machinery require.
type Block struct {
	size uintptr
	free bool
	_    [3]byte // pads size+free out to a 4-byte boundary ahead of the links
	prev xunsafe.Addr[Block]
	next xunsafe.Addr[Block]
}

// H is the block header size, rounded up to PayloadAlign. Every payload
// address is H bytes past its header's address.
var H = layout.RoundUp(layout.Size[Block](), PayloadAlign)

// Size returns the payload capacity of b in bytes.
func (b *Block) Size() int { return int(b.size) }

// Free reports whether b is currently unused.
func (b *Block) Free() bool { return b.free }

// Prev returns the address-adjacent block before b, or nil at the head.
func (b *Block) Prev() *Block { return b.prev.AssertValid() }

// Next returns the address-adjacent block after b, or nil at the tail.
func (b *Block) Next() *Block { return b.next.AssertValid() }

// Payload returns the address of b's payload, immediately following its
// header.
func (b *Block) Payload() xunsafe.Addr[byte] {
	return xunsafe.Addr[byte](xunsafe.AddrOf(b).ByteAdd(H))
}

// blockFromPayload recovers the header address for a payload address
// previously returned by [Arena.Allocate].
func blockFromPayload(p xunsafe.Addr[byte]) xunsafe.Addr[Block] {
	return xunsafe.Addr[Block](p.ByteAdd(-H))
}

// blocks walks the list starting at head in address order.
func blocks(head xunsafe.Addr[Block]) iter.Seq[*Block] {
	return func(yield func(*Block) bool) {
		for cur := head.AssertValid(); cur != nil; cur = cur.Next() {
			if !yield(cur) {
				return
			}
		}
	}
}
