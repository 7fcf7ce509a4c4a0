// Package demo is a stand-in producer: a palette-cycled plasma at the source
// resolution and a square-wave arpeggio painted ahead of the mixer.
package demo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"picoheld/hal"
	"picoheld/kernel"
	"picoheld/media/palette"
	"picoheld/media/ring"
	"picoheld/media/stream"
)

// Console is what the demo needs from the system.
type Console interface {
	FrameSize() (w, h int)
	SubmitFrame(pix []byte) error
	SetPalette(raw []byte) error
	Audio() io.Writer
	DMAPos() int
	BufferSamples() int
	SampleRate() uint32
}

type Config struct {
	Logger hal.Logger

	// MixAhead is how far past the mixer's read position audio is painted.
	// Zero means 100ms.
	MixAhead time.Duration

	// Note is the arpeggio step length. Zero means 125ms.
	Note time.Duration
}

// notes is an A minor arpeggio, in Hz.
var notes = [...]float64{220, 261.63, 329.63, 440, 329.63, 261.63}

const (
	toneAmp      = 3000
	paletteEvery = 2 // frames per palette step
)

// Task is the demo producer.
type Task struct {
	cfg Config

	w, h  int
	pix   []byte
	sin   [256]uint8
	base  [palette.Size * 3]byte
	raw   [palette.Size * 3]byte
	frame uint64

	tone     *stream.Tone
	note     int
	noteLeft int   // samples until the next note
	painted  int64 // samples handed to the ring
	lastPos  int
	wraps    int64
	samples  []int16
	bytes    []byte
	overflow uint64
}

func New(cfg Config) *Task {
	if cfg.MixAhead <= 0 {
		cfg.MixAhead = 100 * time.Millisecond
	}
	if cfg.Note <= 0 {
		cfg.Note = 125 * time.Millisecond
	}
	t := &Task{cfg: cfg}
	for i := range t.sin {
		t.sin[i] = uint8(42.5 + 42.5*math.Sin(2*math.Pi*float64(i)/256))
	}
	for i := 0; i < palette.Size; i++ {
		r, g, b := rainbow(i)
		t.base[i*3], t.base[i*3+1], t.base[i*3+2] = r, g, b
	}
	return t
}

// rainbow maps an index onto a smooth loop through the hue circle.
func rainbow(i int) (r, g, b uint8) {
	f := 2 * math.Pi * float64(i) / palette.Size
	c := func(phase float64) uint8 {
		return uint8(127.5 + 127.5*math.Sin(f+phase))
	}
	return c(0), c(2 * math.Pi / 3), c(4 * math.Pi / 3)
}

// Run renders one frame per kernel tick until the kernel stops.
func (t *Task) Run(ctx *kernel.Context, c Console) {
	t.logf("demo: started")
	last := ctx.NowTick()
	for !ctx.Quitting() {
		last = ctx.WaitTick(last)
		if ctx.Quitting() {
			break
		}
		if err := t.Frame(c); err != nil {
			t.logf("demo: %v", err)
			return
		}
		if _, err := t.PaintAudio(c); err != nil {
			t.logf("demo: audio: %v", err)
		}
	}
	t.logf("demo: stopped after %d frames", t.frame)
}

// Frame draws and submits the next frame, cycling the palette every other
// frame.
func (t *Task) Frame(c Console) error {
	w, h := c.FrameSize()
	if w != t.w || h != t.h || t.pix == nil {
		t.w, t.h = w, h
		t.pix = make([]byte, w*h)
	}
	if t.frame%paletteEvery == 0 {
		shift := int(t.frame/paletteEvery) % palette.Size
		for i := 0; i < palette.Size; i++ {
			src := ((i + shift) % palette.Size) * 3
			copy(t.raw[i*3:i*3+3], t.base[src:src+3])
		}
		if err := c.SetPalette(t.raw[:]); err != nil {
			return fmt.Errorf("palette: %w", err)
		}
	}
	t.plasma(int(t.frame))
	if err := c.SubmitFrame(t.pix); err != nil {
		return err
	}
	t.frame++
	return nil
}

func (t *Task) plasma(n int) {
	for y := 0; y < t.h; y++ {
		row := t.pix[y*t.w : (y+1)*t.w]
		a := t.sin[(y*2+n)&0xFF]
		for x := range row {
			row[x] = a + t.sin[(x+n*3)&0xFF] + t.sin[(x+y+n*2)&0xFF]
		}
	}
}

// PaintAudio tops the ring up to MixAhead past the mixer's read position and
// returns the number of bytes written.
func (t *Task) PaintAudio(c Console) (int, error) {
	rate := c.SampleRate()
	total := c.BufferSamples()
	if rate == 0 || total == 0 {
		return 0, nil
	}
	if t.tone == nil {
		t.tone = stream.NewTone(notes[0], rate, toneAmp)
		t.tone.Square = true
	}

	pos := c.DMAPos()
	if pos < t.lastPos {
		t.wraps++
	}
	t.lastPos = pos
	played := t.wraps*int64(total) + int64(pos)
	if t.painted < played || t.painted-played > int64(total) {
		// Fell behind, or missed a wrap: restart at the read position.
		t.painted = played
	}

	lead := int64(t.cfg.MixAhead.Seconds()*float64(rate)) * stream.Channels
	if limit := int64(total) / 2; lead > limit {
		lead = limit
	}
	want := int(played + lead - t.painted)
	want -= want % stream.Channels
	if want <= 0 {
		return 0, nil
	}

	if cap(t.samples) < want {
		t.samples = make([]int16, want)
		t.bytes = make([]byte, want*2)
	}
	s := t.samples[:want]
	t.arpeggio(s, rate)
	b := t.bytes[:want*2]
	for i, v := range s {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	n, err := c.Audio().Write(b)
	t.painted += int64(n / 2)
	if errors.Is(err, ring.ErrOverflow) {
		t.overflow++
		return n, nil
	}
	return n, err
}

// arpeggio fills dst from the tone, stepping notes on schedule.
func (t *Task) arpeggio(dst []int16, rate uint32) {
	step := max(int(t.cfg.Note.Seconds()*float64(rate)), 1) * stream.Channels
	for len(dst) > 0 {
		if t.noteLeft <= 0 {
			t.tone.Freq = notes[t.note%len(notes)]
			t.note++
			t.noteLeft = step
		}
		n := min(len(dst), t.noteLeft)
		t.tone.Sample(dst[:n])
		t.noteLeft -= n
		dst = dst[n:]
	}
}

// Frames is the number of frames submitted.
func (t *Task) Frames() uint64 { return t.frame }

// Painted is the number of 16-bit samples handed to the ring.
func (t *Task) Painted() int64 { return t.painted }

func (t *Task) logf(format string, args ...any) {
	if t.cfg.Logger == nil {
		return
	}
	t.cfg.Logger.WriteLineString(fmt.Sprintf(format, args...))
}
