// Package app wires the frame and audio pipelines to a HAL and exposes the
// producer-facing Console.
package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"picoheld/hal"
	"picoheld/internal/buildinfo"
	"picoheld/kernel"
	"picoheld/media/mix"
	"picoheld/media/palette"
	"picoheld/media/present"
	"picoheld/media/ring"
	"picoheld/media/scaler"
	"picoheld/media/stream"
	"picoheld/tasks/demo"
)

// Task table. Cores follow the handheld: the producer owns core 0, display and
// audio share core 1 with audio on top.
var (
	producerTask  = kernel.TaskSpec{Name: "producer", Priority: 2, Core: 0}
	presenterTask = kernel.TaskSpec{Name: "present", Priority: 3, Core: 1}
	mixerTask     = kernel.TaskSpec{Name: "mix", Priority: 7, Core: 1}
	inputTask     = kernel.TaskSpec{Name: "input", Priority: 1, Core: kernel.AnyCore}
)

// Producer is the task that generates frames and game audio through the
// Console.
type Producer interface {
	Run(ctx *kernel.Context, c *Console)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx *kernel.Context, c *Console)

func (f ProducerFunc) Run(ctx *kernel.Context, c *Console) { f(ctx, c) }

// System is a running instance.
type System struct {
	h   hal.HAL
	cfg Config
	k   *kernel.Kernel

	console   *Console
	presenter *present.Presenter
	mixer     *mix.Mixer
	ring      *ring.Buffer
	volume    *mix.Volume
	music     *stream.Switch
	musicMu   sync.Mutex
	musicSrc  *stream.Source
	audio     hal.AudioOut

	panicked atomic.Pointer[kernel.PanicInfo]
	stopOnce sync.Once
	stopErr  error
	done     atomic.Bool
}

// New wires and starts a system. A nil producer runs the demo when cfg.Demo
// is set and no producer otherwise.
func New(h hal.HAL, cfg Config, producer Producer) (*System, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if h.Panel() == nil {
		return nil, errors.New("app: HAL has no panel")
	}
	s := &System{h: h, cfg: cfg, k: kernel.New()}
	s.logf("picoheld %s", buildinfo.Short())
	installPanicHandler(s)

	rot, _ := scaler.ParseRotation(cfg.Rotation)
	filter, _ := scaler.ParseFilter(cfg.Filter)
	pal := palette.New()
	p, err := present.New(present.Config{
		Panel:    h.Panel(),
		Palette:  pal,
		Accel:    scaler.NewSoftware(filter),
		Rotation: rot,
		MirrorX:  cfg.MirrorX,
		MirrorY:  cfg.MirrorY,
		Logger:   h.Logger(),
	})
	if err != nil {
		return nil, err
	}
	s.presenter = p

	s.ring, _ = ring.New(cfg.RingCapacity)
	chunk, _ := ring.ChunkFor(cfg.RingCapacity, cfg.ChunkDivisor)
	ratio, _ := mix.ParseRatio(cfg.Ratio)
	s.volume = mix.NewVolume(0, 0)
	s.volume.SetMainFloat(cfg.MainVolume)
	s.volume.SetMusicFloat(cfg.MusicVolume)

	s.music = stream.NewSwitch(nil)
	if cfg.MusicPath != "" {
		if err := s.SetMusic(cfg.MusicPath, cfg.LoopMusic); err != nil {
			s.logf("app: %v", err)
		}
	}

	s.audio = s.startAudio()
	s.mixer, err = mix.New(mix.Config{
		Ring:       s.ring,
		Music:      s.music,
		Sink:       s.audio,
		Volume:     s.volume,
		Ratio:      ratio,
		Chunk:      chunk,
		Logger:     h.Logger(),
		SampleRate: cfg.SampleRate,
	})
	if err != nil {
		s.audio.Close()
		return nil, err
	}

	s.console = newConsole(cfg.SourceWidth, cfg.SourceHeight, p, pal, s.ring, s.volume, cfg.SampleRate, cfg.EndScreenPath)

	if producer == nil && cfg.Demo {
		d := demo.New(demo.Config{Logger: h.Logger()})
		producer = ProducerFunc(func(ctx *kernel.Context, c *Console) { d.Run(ctx, c) })
	}
	if err := s.addTasks(producer); err != nil {
		s.audio.Close()
		return nil, err
	}

	// A sink blocked in Write would hold the mixer past the quit flag.
	s.k.OnStop(func() {
		if err := s.audio.Close(); err != nil {
			s.logf("app: audio close: %v", err)
		}
	})
	if err := s.k.Start(); err != nil {
		return nil, err
	}
	s.pumpTicks()
	s.logf("app: %dx%d -> %dx%d, rotation %d, ring %d/%d, ratio %s",
		cfg.SourceWidth, cfg.SourceHeight, h.Panel().Width(), h.Panel().Height(),
		cfg.Rotation, cfg.RingCapacity, chunk, ratio)
	return s, nil
}

func (s *System) addTasks(producer Producer) error {
	add := func(spec kernel.TaskSpec, t kernel.Task) error {
		if _, err := s.k.AddTask(spec, t); err != nil {
			return fmt.Errorf("app: task %s: %w", spec.Name, err)
		}
		return nil
	}
	if err := add(mixerTask, kernel.TaskFunc(s.mixer.Run)); err != nil {
		return err
	}
	if err := add(presenterTask, kernel.TaskFunc(s.presenter.Run)); err != nil {
		return err
	}
	if err := add(inputTask, kernel.TaskFunc(s.runInput)); err != nil {
		return err
	}
	if producer != nil {
		c := s.console
		return add(producerTask, kernel.TaskFunc(func(ctx *kernel.Context) { producer.Run(ctx, c) }))
	}
	return nil
}

// startAudio opens the HAL sink, falling back to a paced null sink so the
// mixer keeps its cadence when there is no device.
func (s *System) startAudio() hal.AudioOut {
	out := s.h.Audio()
	if out != nil {
		err := out.Start(s.cfg.SampleRate)
		if err == nil {
			return out
		}
		s.logf("app: audio: %v; output muted", err)
		out.Close()
	}
	null := hal.NewNullAudio()
	null.Start(s.cfg.SampleRate)
	return null
}

// fallbackTick drives the kernel timebase when the HAL has no tick source.
const fallbackTick = time.Second / 60

// pumpTicks forwards HAL ticks to the kernel timebase.
func (s *System) pumpTicks() {
	t := s.h.Time()
	if t == nil || t.Ticks() == nil {
		s.k.StartTick(fallbackTick)
		return
	}
	ch := t.Ticks()
	done := s.k.Done()
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				s.k.Tick()
			}
		}
	}()
}

// SetMusic replaces the music stream with the file at path.
func (s *System) SetMusic(path string, loop bool) error {
	src, err := stream.Open(path, loop)
	if err != nil {
		return err
	}
	if src.Rate != s.cfg.SampleRate {
		s.logf("app: music %s is %d Hz, output %d Hz; pitch will be off", path, src.Rate, s.cfg.SampleRate)
	}
	// Set returns once the mixer is done with the old source.
	s.musicMu.Lock()
	s.music.Set(src)
	old := s.musicSrc
	s.musicSrc = src
	s.musicMu.Unlock()
	old.Close()
	s.logf("app: music %s (%s)", path, src.Format)
	return nil
}

func (s *System) Console() *Console { return s.console }

func (s *System) Presenter() *present.Presenter { return s.presenter }

func (s *System) Mixer() *mix.Mixer { return s.mixer }

func (s *System) Ring() *ring.Buffer { return s.ring }

// Step is called once per runner frame. It returns hal.ErrQuit once a quit
// request has been carried out, or the panic that stopped the system.
func (s *System) Step() error {
	if info := s.panicked.Load(); info != nil {
		return fmt.Errorf("app: task %s panicked: %v", info.Task, info.Value)
	}
	if s.done.Load() {
		return hal.ErrQuit
	}
	if !s.console.quitRequested() {
		return nil
	}
	if err := s.Shutdown(); err != nil {
		return err
	}
	return hal.ErrQuit
}

// Shutdown stops every task, waiting for the frame in flight, then draws the
// end screen. It must not be called from a task. Later calls return the first
// result.
func (s *System) Shutdown() error {
	s.stopOnce.Do(func() {
		s.console.Quit(nil)
		s.k.Stop()
		s.musicMu.Lock()
		s.musicSrc.Close()
		s.musicMu.Unlock()

		st := s.presenter.Stats()
		ms := s.mixer.Stats()
		rs := s.ring.Stats()
		s.logf("app: presented %d, dropped %d, convert errors %d, scale errors %d, draw errors %d",
			st.Presented, st.Dropped, st.ConvertErrors, st.ScaleErrors, st.DrawErrors)
		s.logf("app: mixed %d cycles, underrun %d, overflow %d", ms.Cycles, rs.Underrun, rs.Overflow)

		if s.panicked.Load() != nil {
			// Leave the panic screen up.
			s.done.Store(true)
			return
		}
		text, err := s.console.endScreen()
		if err != nil {
			s.logf("%v", err)
		}
		s.stopErr = s.presenter.EndScreen(text)
		s.done.Store(true)
	})
	return s.stopErr
}

// NewStep adapts New to the callback shape the HAL runners take.
func NewStep(cfg Config, producer Producer) func(hal.HAL) func() error {
	return func(h hal.HAL) func() error {
		s, err := New(h, cfg, producer)
		if err != nil {
			return func() error { return err }
		}
		return s.Step
	}
}

// Run starts the system and blocks forever (TinyGo entrypoint). The end
// screen stays up after a quit.
func Run(h hal.HAL, cfg Config, producer Producer) {
	s, err := New(h, cfg, producer)
	if err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString(err.Error())
		}
		select {}
	}
	<-s.console.Quitting()
	if err := s.Shutdown(); err != nil {
		s.logf("app: %v", err)
	}
	select {}
}

func (s *System) logf(format string, args ...any) {
	if l := s.h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf(format, args...))
	}
}
