package writer

import (
	"fmt"
	"sort"
)

// StreamBuffer is an address-indexed byte buffer that grows to fit
// whatever offset is written to it. Allocate lays data out
// sequentially; WriteAt places data at an already-known addr, in any
// order. Neither the encoder nor the reassembler uses it; BuildStream
// splits with SplitIntoChunks and the reassembler keeps its own buffer.
type StreamBuffer struct {
	buf       []byte
	allocator *Allocator
}

// NewStreamBuffer creates an empty buffer. initialOffset shifts where
// Allocate starts handing out addresses; it is 0 for every paperback
// stream, since there is no leading superblock inside the stream itself.
func NewStreamBuffer(initialOffset uint64) *StreamBuffer {
	return &StreamBuffer{
		allocator: NewAllocator(initialOffset),
	}
}

// Allocate reserves size bytes at the next sequential address and grows
// the underlying buffer to cover it.
func (s *StreamBuffer) Allocate(size uint64) (uint64, error) {
	addr, err := s.allocator.Allocate(size)
	if err != nil {
		return 0, err
	}
	s.growTo(addr + size)
	return addr, nil
}

// WriteAt writes data at offset, growing the buffer if needed. It does
// not go through Allocate.
func (s *StreamBuffer) WriteAt(data []byte, offset uint64) {
	s.growTo(offset + uint64(len(data)))
	copy(s.buf[offset:], data)
}

// ReadAt copies len(buf) bytes starting at offset into buf. It returns
// an error if the buffer has not grown that far yet.
func (s *StreamBuffer) ReadAt(buf []byte, offset uint64) error {
	if offset+uint64(len(buf)) > uint64(len(s.buf)) {
		return fmt.Errorf("read past end of stream buffer: offset %d len %d size %d",
			offset, len(buf), len(s.buf))
	}
	copy(buf, s.buf[offset:])
	return nil
}

func (s *StreamBuffer) growTo(size uint64) {
	if uint64(len(s.buf)) >= size {
		return
	}
	grown := make([]byte, size)
	copy(grown, s.buf)
	s.buf = grown
}

// Bytes returns the buffer's current contents. Callers must not retain
// the slice across further writes.
func (s *StreamBuffer) Bytes() []byte {
	return s.buf
}

// Len reports the current buffer size.
func (s *StreamBuffer) Len() uint64 {
	return uint64(len(s.buf))
}

// EndOfFile returns the next address Allocate would hand out.
func (s *StreamBuffer) EndOfFile() uint64 {
	return s.allocator.EndOfFile()
}

// Allocator exposes the underlying allocator, mainly for tests that
// want to inspect allocation history directly.
func (s *StreamBuffer) Allocator() *Allocator {
	return s.allocator
}

// Chunk is one addr-tagged slice of a stream, ready to become a block
// payload.
type Chunk struct {
	Addr uint32
	Data []byte
}

// SplitIntoChunks partitions stream into chunkSize-byte pieces (the
// final piece zero-padded if short) and assigns each one its byte
// offset in stream as addr, starting at 0, matching the on-page
// convention that payload addr values are stream byte offsets.
func SplitIntoChunks(stream []byte, chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size: %d", chunkSize)
	}
	count := (len(stream) + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, count)
	for offset := 0; offset < len(stream); offset += chunkSize {
		end := offset + chunkSize
		payload := make([]byte, chunkSize)
		if end > len(stream) {
			copy(payload, stream[offset:])
		} else {
			copy(payload, stream[offset:end])
		}
		chunks = append(chunks, Chunk{Addr: uint32(offset), Data: payload})
	}
	return chunks, nil
}

// SortedAddrs returns the addr values of chunks in ascending order,
// primarily for tests asserting layout order.
func SortedAddrs(chunks []Chunk) []uint32 {
	addrs := make([]uint32, len(chunks))
	for i, c := range chunks {
		addrs[i] = c.Addr
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
