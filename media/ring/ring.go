// Package ring is the circular audio buffer between the producer and the
// mixer.
//
// It is a lock-free single-producer/single-consumer ring. The consumer side
// runs at DMA cadence: every ReadChunk advances the read cursor by exactly one
// chunk, whether or not the producer kept up. Bytes the producer has not
// written yet are delivered as silence and counted as underrun. The producer
// never overwrites unread bytes; what does not fit is dropped and counted as
// overflow.
package ring

import (
	"errors"
	"fmt"
	"sync/atomic"
)

const minCapacity = 64

var (
	ErrCapacity = errors.New("ring: capacity must be a power of two above 64")
	ErrChunk    = errors.New("ring: chunk must divide capacity")
	ErrOverflow = errors.New("ring: overflow")
)

// Stats are running totals in bytes.
type Stats struct {
	Written  uint64
	Read     uint64
	Overflow uint64
	Underrun uint64
}

// Buffer is the ring. One goroutine may write and one may read.
type Buffer struct {
	buf  []byte
	mask uint64

	// Monotonic byte counters; positions are taken modulo capacity.
	r atomic.Uint64
	w atomic.Uint64

	written  atomic.Uint64
	overflow atomic.Uint64
	underrun atomic.Uint64
}

// New allocates a ring of capacity bytes.
func New(capacity int) (*Buffer, error) {
	if capacity <= minCapacity || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	return &Buffer{buf: make([]byte, capacity), mask: uint64(capacity - 1)}, nil
}

// ChunkFor returns capacity/divisor after checking it is a whole number of
// stereo 16-bit frames. The divisor must be at least 2: a chunk the size of
// the whole ring would have the mixer read the region the producer is
// writing.
func ChunkFor(capacity, divisor int) (int, error) {
	if divisor < 2 || capacity%divisor != 0 {
		return 0, fmt.Errorf("%w: %d/%d", ErrChunk, capacity, divisor)
	}
	chunk := capacity / divisor
	if chunk%4 != 0 {
		return 0, fmt.Errorf("%w: chunk %d is not a whole stereo frame", ErrChunk, chunk)
	}
	return chunk, nil
}

func (b *Buffer) Cap() int { return len(b.buf) }

// Available returns how many written bytes the reader has not consumed.
func (b *Buffer) Available() int {
	r, w := b.r.Load(), b.w.Load()
	if w <= r {
		return 0
	}
	return int(w - r)
}

// Free returns how many bytes Write can accept without dropping.
func (b *Buffer) Free() int {
	return len(b.buf) - b.Available()
}

// ReadOffset is the read cursor modulo capacity.
func (b *Buffer) ReadOffset() int {
	return int(b.r.Load() & b.mask)
}

// Write appends p. It writes at most Free bytes and reports ErrOverflow when
// the rest was dropped. A producer that fell behind the reader resumes at the
// read cursor.
func (b *Buffer) Write(p []byte) (int, error) {
	r := b.r.Load()
	w := b.w.Load()
	if w < r {
		w = r
	}
	free := uint64(len(b.buf)) - (w - r)

	n := uint64(len(p))
	if n > free {
		n = free
	}
	b.copyIn(w, p[:n])
	b.w.Store(w + n)
	b.written.Add(n)

	if int(n) < len(p) {
		b.overflow.Add(uint64(len(p)) - n)
		return int(n), ErrOverflow
	}
	return int(n), nil
}

func (b *Buffer) copyIn(pos uint64, p []byte) {
	off := int(pos & b.mask)
	k := copy(b.buf[off:], p)
	copy(b.buf, p[k:])
}

func (b *Buffer) copyOut(pos uint64, p []byte) {
	off := int(pos & b.mask)
	k := copy(p, b.buf[off:])
	copy(p[k:], b.buf)
}

// ReadChunk fills dst starting at the read cursor and advances the cursor by
// len(dst) modulo capacity. It returns the number of bytes that had not been
// written yet; those are zero in dst.
func (b *Buffer) ReadChunk(dst []byte) (underrun int) {
	if len(dst) > len(b.buf) {
		dst = dst[:len(b.buf)]
	}
	r := b.r.Load()
	w := b.w.Load()

	var avail uint64
	if w > r {
		avail = w - r
	}
	n := uint64(len(dst))
	if avail > n {
		avail = n
	}
	b.copyOut(r, dst[:avail])
	clear(dst[avail:])

	b.r.Store(r + n)
	if short := n - avail; short > 0 {
		b.underrun.Add(short)
		return int(short)
	}
	return 0
}

// Stats returns the running totals.
func (b *Buffer) Stats() Stats {
	under := b.underrun.Load()
	return Stats{
		Written:  b.written.Load(),
		Read:     b.r.Load() - under,
		Overflow: b.overflow.Load(),
		Underrun: under,
	}
}
