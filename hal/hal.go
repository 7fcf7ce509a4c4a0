package hal

import (
	"errors"

	"picoheld/media/rgb565"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")

	// ErrQuit is returned by an app step function once the system has shut
	// down. Runners treat it as a clean exit.
	ErrQuit = errors.New("quit")
)

// Panel is a double-buffered RGB565 display.
//
// Surface 0 and 1 are owned by the caller except while Draw scans one of them
// out. Draw blocks until the panel has taken the surface; after it returns the
// surface is the front buffer until the other one is drawn.
type Panel interface {
	Width() int
	Height() int
	Surface(i int) *rgb565.Image
	Draw(i int) error
	Front() int
}

// AudioOut is a blocking PCM sink for interleaved stereo s16le chunks.
//
// Write returns once the chunk has been queued for playback, so a caller
// writing back to back is paced by the device.
type AudioOut interface {
	Start(sampleRate uint32) error
	Write(chunk []byte) error
	SetVolume(vol uint8)
	Close() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Code  KeyCode
	Press bool
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Time provides a base tick stream. Host runners tick once per frame. A HAL
// may return a nil Time, in which case the kernel ticks at 60 Hz on its own.
type Time interface {
	Ticks() <-chan uint64
}

// HAL provides the only contact point between the system and the outside world.
type HAL interface {
	Logger() Logger
	Panel() Panel
	Audio() AudioOut
	Keyboard() Keyboard
	Time() Time
}
