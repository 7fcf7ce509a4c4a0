package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"picoheld/media/frame"
	"picoheld/media/mix"
	"picoheld/media/palette"
	"picoheld/media/present"
	"picoheld/media/ring"
)

var ErrFrameSize = errors.New("app: frame buffer too small")

// Console is the producer-facing side of the system. Its methods are safe to
// call from the producer task while the presenter and mixer run.
type Console struct {
	width, height int

	presenter *present.Presenter
	palette   *palette.Palette
	ring      *ring.Buffer
	volume    *mix.Volume
	rate      uint32

	stageMu sync.Mutex
	stage   [2][]byte
	next    int
	seq     atomic.Uint64

	quitOnce sync.Once
	quit     chan struct{}
	endText  []byte
	endPath  string
}

func newConsole(w, h int, p *present.Presenter, pal *palette.Palette, r *ring.Buffer, v *mix.Volume, rate uint32, endPath string) *Console {
	return &Console{
		width:     w,
		height:    h,
		presenter: p,
		palette:   pal,
		ring:      r,
		volume:    v,
		rate:      rate,
		stage:     [2][]byte{make([]byte, w*h), make([]byte, w*h)},
		quit:      make(chan struct{}),
		endPath:   endPath,
	}
}

// FrameSize is the source resolution SubmitFrame expects.
func (c *Console) FrameSize() (w, h int) { return c.width, c.height }

// SubmitFrame hands one indexed-colour frame to the presenter and returns
// without waiting for it to be shown. pix is copied, so the caller may reuse
// it at once. A frame submitted before the previous one was picked up
// replaces it.
func (c *Console) SubmitFrame(pix []byte) error {
	n := c.width * c.height
	if len(pix) < n {
		return fmt.Errorf("%w: %d bytes, want %d", ErrFrameSize, len(pix), n)
	}
	c.stageMu.Lock()
	defer c.stageMu.Unlock()

	// The staging buffer not posted last is free: the presenter finished
	// reading it before the previous Submit returned.
	buf := c.stage[c.next]
	c.next ^= 1
	copy(buf, pix[:n])
	c.presenter.Submit(frame.Frame{
		Seq:    c.seq.Add(1),
		Width:  c.width,
		Height: c.height,
		Pix:    buf,
	})
	return nil
}

// Submitted is the sequence number of the last submitted frame.
func (c *Console) Submitted() uint64 { return c.seq.Load() }

// SetPalette installs 256 packed RGB24 colours. Frames converted afterwards
// use the new table.
func (c *Console) SetPalette(raw []byte) error {
	return c.palette.InstallRGB24(raw)
}

// Audio is the write side of the game audio ring: interleaved stereo s16le.
// A write that does not fit is cut short and reports ring.ErrOverflow.
func (c *Console) Audio() io.Writer { return c.ring }

// DMAPos is the mixer's read position in 16-bit samples, modulo
// BufferSamples. Producers paint ahead of it.
func (c *Console) DMAPos() int { return c.ring.ReadOffset() / 2 }

// BufferSamples is the ring capacity in 16-bit samples.
func (c *Console) BufferSamples() int { return c.ring.Cap() / 2 }

func (c *Console) SampleRate() uint32 { return c.rate }

// SetVolume sets the output and music gains, each 0..1. The mixer picks them
// up on its next cycle.
func (c *Console) SetVolume(main, music float64) {
	c.volume.SetMainFloat(main)
	c.volume.SetMusicFloat(music)
}

// Volume returns the gains in effect, each 0..1.
func (c *Console) Volume() (main, music float64) {
	return float64(c.volume.Main()) / 255, float64(c.volume.Music()) / mix.UnityMusic
}

// Quit asks the system to shut down and show textmem as the end screen. Only
// the first call counts. With nil textmem the configured end-screen file is
// shown, if any. Quit returns at once; shutdown runs outside the caller's
// task.
func (c *Console) Quit(textmem []byte) {
	c.quitOnce.Do(func() {
		if textmem != nil {
			c.endText = append([]byte(nil), textmem...)
		}
		close(c.quit)
	})
}

// Quitting is closed once Quit has been called.
func (c *Console) Quitting() <-chan struct{} { return c.quit }

func (c *Console) quitRequested() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// endScreen returns the text memory to draw at shutdown. Only valid after
// Quit.
func (c *Console) endScreen() ([]byte, error) {
	if c.endText != nil || c.endPath == "" {
		return c.endText, nil
	}
	b, err := os.ReadFile(c.endPath)
	if err != nil {
		return nil, fmt.Errorf("app: end screen: %w", err)
	}
	if len(b) > present.TextBytes {
		b = b[:present.TextBytes]
	}
	return b, nil
}
