// Package present runs the double-buffered frame presentation task.
//
// A producer submits indexed-colour frames; the presenter converts the most
// recent one through the palette, scales it onto the panel surface that is not
// being shown, draws it, and flips. Frames submitted while a cycle is in
// flight replace each other; only the newest is ever converted.
package present

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"picoheld/hal"
	"picoheld/kernel"
	"picoheld/media/frame"
	"picoheld/media/palette"
	"picoheld/media/rgb565"
	"picoheld/media/scaler"

	"tinygo.org/x/drivers"
)

// State is the presenter's position in its cycle.
type State int32

const (
	Idle State = iota
	Converting
	Presenting
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Converting:
		return "converting"
	case Presenting:
		return "presenting"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FPSWindow is the number of completed cycles between frame rate reports.
const FPSWindow = 100

var ErrFinished = errors.New("present: end screen already drawn")

// Config wires a Presenter.
type Config struct {
	Panel    hal.Panel
	Palette  *palette.Palette
	Accel    scaler.Accelerator
	Rotation drivers.Rotation
	MirrorX  bool
	MirrorY  bool
	Logger   hal.Logger

	// Now is the clock for the frame rate meter. Nil uses time.Now.
	Now func() time.Time
}

// Stats are running presenter counters. ConvertErrors counts frames rejected
// before scaling: bad geometry or pixels outside the palette buffer.
type Stats struct {
	Presented     uint64
	Dropped       uint64
	ConvertErrors uint64
	ScaleErrors   uint64
	DrawErrors    uint64
	LastFPS       float64
}

// Presenter is the display task.
type Presenter struct {
	cfg  Config
	slot *kernel.Slot[frame.Frame]

	conv  *rgb565.Image
	flip  int // index of the surface last drawn
	state atomic.Int32
	fps   fpsMeter

	lastSeq       atomic.Uint64
	presented     atomic.Uint64
	convertErrors atomic.Uint64
	scaleErrors   atomic.Uint64
	drawErrors    atomic.Uint64
}

func New(cfg Config) (*Presenter, error) {
	if cfg.Panel == nil || cfg.Palette == nil || cfg.Accel == nil {
		return nil, errors.New("present: panel, palette and accelerator are required")
	}
	if cfg.Rotation > drivers.Rotation270 {
		return nil, fmt.Errorf("%w: %d", scaler.ErrInvalidRotation, cfg.Rotation)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	p := &Presenter{
		cfg:  cfg,
		slot: kernel.NewSlot[frame.Frame](),
		flip: cfg.Panel.Front(),
	}
	p.fps.reset(cfg.Now())
	return p, nil
}

// Submit queues f for presentation and returns without waiting for it to be
// shown. It only blocks while the presenter is reading the previous frame's
// pixels, so once it returns the presenter no longer touches older buffers.
func (p *Presenter) Submit(f frame.Frame) {
	p.slot.Post(f)
}

// Run presents frames until the kernel stops. The cycle in flight when the
// stop arrives completes first.
func (p *Presenter) Run(ctx *kernel.Context) {
	for p.slot.Wait(ctx) {
		p.Cycle()
	}
}

// Cycle presents the pending frame, if any. It reports whether a frame was
// drawn.
func (p *Presenter) Cycle() bool {
	f, ok := p.slot.Acquire()
	if !ok {
		p.slot.Release()
		return false
	}
	p.setState(Converting)
	back := 1 - p.flip
	err := p.convert(f)
	p.slot.Release()
	if err != nil {
		p.convertErrors.Add(1)
		return p.drop(f, err)
	}
	err = p.cfg.Accel.ScaleRotate(scaler.Op{
		Src:      p.conv,
		Dst:      p.cfg.Panel.Surface(back),
		Rotation: p.cfg.Rotation,
		MirrorX:  p.cfg.MirrorX,
		MirrorY:  p.cfg.MirrorY,
	})
	if err != nil {
		p.scaleErrors.Add(1)
		return p.drop(f, err)
	}

	p.setState(Presenting)
	if err := p.cfg.Panel.Draw(back); err != nil {
		p.drawErrors.Add(1)
		p.logf("present: draw frame %d: %v", f.Seq, err)
		p.setState(Idle)
		return false
	}
	p.flip = back
	p.lastSeq.Store(f.Seq)
	p.presented.Add(1)
	if fps, ok := p.fps.tick(p.cfg.Now()); ok {
		p.logf("present: fps: %.2f", fps)
	}
	p.setState(Idle)
	return true
}

func (p *Presenter) drop(f frame.Frame, err error) bool {
	p.logf("present: frame %d dropped: %v", f.Seq, err)
	p.setState(Idle)
	return false
}

func (p *Presenter) convert(f frame.Frame) error {
	if p.conv == nil || p.conv.Width() != f.Width || p.conv.Height() != f.Height {
		if err := f.Validate(); err != nil {
			return err
		}
		p.conv = rgb565.New(f.Width, f.Height)
	}
	return frame.Convert(p.conv, f, p.cfg.Palette.Snapshot())
}

// EndScreen draws the text-mode end screen onto the back surface with a single
// draw call. It must run after Run has returned; afterwards the presenter
// draws nothing else.
func (p *Presenter) EndScreen(textmem []byte) error {
	if State(p.state.Load()) == Finished {
		return ErrFinished
	}
	back := 1 - p.flip
	RenderText(p.cfg.Panel.Surface(back), textmem)
	p.setState(Finished)
	if err := p.cfg.Panel.Draw(back); err != nil {
		return fmt.Errorf("present: end screen: %w", err)
	}
	p.flip = back
	return nil
}

func (p *Presenter) State() State { return State(p.state.Load()) }

func (p *Presenter) setState(s State) {
	if State(p.state.Load()) == Finished {
		return
	}
	p.state.Store(int32(s))
}

// LastSeq is the sequence number of the most recently drawn frame.
func (p *Presenter) LastSeq() uint64 { return p.lastSeq.Load() }

func (p *Presenter) Stats() Stats {
	return Stats{
		Presented:     p.presented.Load(),
		Dropped:       p.slot.Replaced(),
		ConvertErrors: p.convertErrors.Load(),
		ScaleErrors:   p.scaleErrors.Load(),
		DrawErrors:    p.drawErrors.Load(),
		LastFPS:       p.fps.last(),
	}
}

func (p *Presenter) logf(format string, args ...any) {
	if p.cfg.Logger == nil {
		return
	}
	p.cfg.Logger.WriteLineString(fmt.Sprintf(format, args...))
}
