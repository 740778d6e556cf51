package writer

import (
	"fmt"
	"sort"
)

// AllocatedBlock tracks one payload's position in the compressed stream's
// address space.
type AllocatedBlock struct {
	Offset uint64 // addr: byte offset within the compressed/padded stream
	Size   uint64 // bytes requested from Allocate
}

// Allocator hands out consecutive addr values: each Allocate call
// returns the current end and advances it by the requested size. It is
// sequential and never reuses space, so addrs strictly increase; they
// stay multiples of NData only if every request is NData bytes.
// SplitIntoChunks does not use it.
type Allocator struct {
	blocks     []AllocatedBlock
	nextOffset uint64
}

// NewAllocator starts allocation at initialOffset (normally 0).
func NewAllocator(initialOffset uint64) *Allocator {
	return &Allocator{
		blocks:     make([]AllocatedBlock, 0, 16),
		nextOffset: initialOffset,
	}
}

// Allocate reserves the next size bytes of stream address space and
// returns their starting addr.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("cannot allocate zero bytes")
	}

	addr := a.nextOffset
	a.blocks = append(a.blocks, AllocatedBlock{Offset: addr, Size: size})
	a.nextOffset = addr + size
	return addr, nil
}

// IsAllocated reports whether [offset, offset+size) overlaps an existing
// allocation.
func (a *Allocator) IsAllocated(offset, size uint64) bool {
	if size == 0 {
		return false
	}
	rangeEnd := offset + size
	for _, block := range a.blocks {
		blockEnd := block.Offset + block.Size
		if offset < blockEnd && block.Offset < rangeEnd {
			return true
		}
	}
	return false
}

// EndOfFile returns the address one past the last allocation, i.e. the
// final datasize once every payload chunk has been allocated.
func (a *Allocator) EndOfFile() uint64 {
	return a.nextOffset
}

// Blocks returns a copy of all allocations, sorted by offset.
func (a *Allocator) Blocks() []AllocatedBlock {
	blocks := make([]AllocatedBlock, len(a.blocks))
	copy(blocks, a.blocks)
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})
	return blocks
}

// ValidateNoOverlaps checks allocator-internal consistency; overlaps
// indicate a bug in the caller's allocation sequence, never user data.
func (a *Allocator) ValidateNoOverlaps() error {
	blocks := a.Blocks()
	for i := 0; i < len(blocks)-1; i++ {
		current, next := blocks[i], blocks[i+1]
		if current.Offset+current.Size > next.Offset {
			return fmt.Errorf("overlap detected: block at %d (size %d) overlaps block at %d",
				current.Offset, current.Size, next.Offset)
		}
	}
	return nil
}
