package present

import (
	"math"
	"sync/atomic"
	"time"
)

// fpsMeter averages the frame rate over FPSWindow completed cycles.
type fpsMeter struct {
	start  time.Time
	frames int
	bits   atomic.Uint64
}

func (m *fpsMeter) reset(now time.Time) {
	m.start = now
	m.frames = 0
}

// tick counts one completed cycle and returns the average rate once a full
// window has elapsed.
func (m *fpsMeter) tick(now time.Time) (float64, bool) {
	m.frames++
	if m.frames < FPSWindow {
		return 0, false
	}
	el := now.Sub(m.start)
	frames := m.frames
	m.reset(now)
	if el <= 0 {
		return 0, false
	}
	fps := float64(frames) / el.Seconds()
	m.bits.Store(math.Float64bits(fps))
	return fps, true
}

func (m *fpsMeter) last() float64 { return math.Float64frombits(m.bits.Load()) }
