package imagefy

import (
	"errors"
	"io"
)

// ChunkIterator splits a header plus content stream into fixed-capacity
// chunks. Chunk 0 starts with the encoded header; the last chunk is zero
// padded. Every chunk returned is exactly capacity bytes long.
type ChunkIterator struct {
	r        io.Reader
	header   []byte
	capacity int
	count    int
	index    int
}

// NewChunkIterator prepares to split r, which must yield header.Size bytes.
func NewChunkIterator(r io.Reader, header *Header, capacity int64) (*ChunkIterator, error) {
	if err := CheckHeaderFits(header, capacity); err != nil {
		return nil, err
	}

	encoded, err := header.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &ChunkIterator{
		r:        r,
		header:   encoded,
		capacity: int(capacity),
		count:    int(ImageCount(capacity, header.Len(), int64(header.Size))),
	}, nil
}

// Count is the total number of chunks the iterator yields.
func (it *ChunkIterator) Count() int {
	return it.count
}

// Next returns the next chunk and its index, or io.EOF once all chunks
// have been produced. A source shorter than declared is padded with zeros.
func (it *ChunkIterator) Next() (int, []byte, error) {
	if it.index >= it.count {
		return 0, nil, io.EOF
	}

	buf := make([]byte, it.capacity)
	offset := 0
	if it.index == 0 {
		offset = copy(buf, it.header)
	}

	if _, err := io.ReadFull(it.r, buf[offset:]); err != nil &&
		!errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, nil, err
	}

	index := it.index
	it.index++
	return index, buf, nil
}
