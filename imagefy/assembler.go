package imagefy

import "io"

// Assembler appends image payloads to w until the declared file size has
// been written. Bytes beyond it are padding and are dropped.
type Assembler struct {
	w         io.Writer
	remaining uint64
	written   uint64
}

// NewAssembler returns an Assembler expecting size content bytes.
func NewAssembler(w io.Writer, size uint64) *Assembler {
	return &Assembler{w: w, remaining: size}
}

// Consume writes the content part of payload and returns how many bytes
// were kept.
func (a *Assembler) Consume(payload []byte) (int, error) {
	if uint64(len(payload)) > a.remaining {
		payload = payload[:a.remaining]
	}
	if len(payload) == 0 {
		return 0, nil
	}

	n, err := a.w.Write(payload)
	a.remaining -= uint64(n)
	a.written += uint64(n)
	if err != nil {
		return n, err
	}
	if n < len(payload) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Remaining is the number of content bytes still expected.
func (a *Assembler) Remaining() uint64 {
	return a.remaining
}

// Written is the number of content bytes written so far.
func (a *Assembler) Written() uint64 {
	return a.written
}

// Done reports whether the declared size has been reached.
func (a *Assembler) Done() bool {
	return a.remaining == 0
}
