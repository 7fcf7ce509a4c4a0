//go:build !tinygo

package hal

import (
	"io"
	"sync"
)

// pcmPipe is a bounded byte queue between the mixer and a pull-based audio
// player. Write blocks while the queue is full; Read blocks while it is empty.
type pcmPipe struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf []byte
	r   int
	n   int

	closed bool
}

func newPCMPipe(size int) *pcmPipe {
	p := &pcmPipe{buf: make([]byte, size)}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Write queues all of b, waiting for room as needed.
func (p *pcmPipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	written := 0
	for written < len(b) {
		for !p.closed && p.n == len(p.buf) {
			p.cond.Wait()
		}
		if p.closed {
			return written, io.ErrClosedPipe
		}
		w := (p.r + p.n) % len(p.buf)
		end := len(p.buf)
		if w < p.r {
			end = p.r
		}
		c := copy(p.buf[w:end], b[written:])
		p.n += c
		written += c
		p.cond.Broadcast()
	}
	return written, nil
}

// Read returns at least one whole stereo frame once enough bytes are queued.
func (p *pcmPipe) Read(b []byte) (int, error) {
	b = b[:len(b)&^3]
	if len(b) == 0 {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for !p.closed && p.n < 4 {
		p.cond.Wait()
	}
	if p.closed {
		return 0, io.EOF
	}
	want := p.n &^ 3
	if want > len(b) {
		want = len(b)
	}
	read := 0
	for read < want {
		end := p.r + (want - read)
		if end > len(p.buf) {
			end = len(p.buf)
		}
		c := copy(b[read:], p.buf[p.r:end])
		p.r = (p.r + c) % len(p.buf)
		p.n -= c
		read += c
	}
	p.cond.Broadcast()
	return read, nil
}

func (p *pcmPipe) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// pipeSize sizes the queue to about 100ms of stereo s16le.
func pipeSize(sampleRate uint32) int {
	n := int(sampleRate/10) * 4
	if n < 8192 {
		n = 8192
	}
	if n > 65536 {
		n = 65536
	}
	return n
}
