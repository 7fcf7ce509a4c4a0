//go:build !tinygo

package hal

// hostTime ticks once per runner step: a window frame or a headless tick.
type hostTime struct {
	ch  chan uint64
	seq uint64
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 16)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// step publishes the next tick. A slow reader misses ticks rather than
// stalling the runner; the sequence number still tells it how far time moved.
func (t *hostTime) step() {
	t.seq++
	select {
	case t.ch <- t.seq:
	default:
	}
}
