// Package mix blends the game audio ring with the music stream and feeds the
// output sink at DMA cadence.
package mix

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"picoheld/hal"
	"picoheld/kernel"
	"picoheld/media/ring"
	"picoheld/media/stream"
)

// Sample mixes one game sample with one music sample. Integer division
// truncates toward zero.
func Sample(game, music int16, musicGain int, r Ratio) int16 {
	m := int(music) * musicGain / UnityMusic
	return int16((m*r.Music + int(game)*r.Game) / (r.Music + r.Game))
}

// Chunk mixes little-endian int16 game samples with music into out. out must
// be as long as game; music must hold len(game)/2 samples.
func Chunk(out, game []byte, music []int16, musicGain int, r Ratio) {
	for i := 0; i+1 < len(game); i += 2 {
		g := int16(binary.LittleEndian.Uint16(game[i:]))
		v := Sample(g, music[i/2], musicGain, r)
		binary.LittleEndian.PutUint16(out[i:], uint16(v))
	}
}

// Sink accepts one mixed chunk per call and blocks until it is consumed.
type Sink interface {
	Write(chunk []byte) error
}

type volumeSink interface {
	SetVolume(vol uint8)
}

// Config wires a Mixer.
type Config struct {
	Ring   *ring.Buffer
	Music  stream.Sampler
	Sink   Sink
	Volume *Volume
	Ratio  Ratio
	Chunk  int
	Logger hal.Logger

	// SampleRate drives the band meter. Zero disables it.
	SampleRate uint32

	// Period paces cycles when the sink does not block. Zero relies on the
	// sink.
	Period time.Duration
}

// Stats are running mixer counters.
type Stats struct {
	Cycles        uint64
	UnderrunBytes uint64
	SinkErrors    uint64
	VolumeSteps   uint64
}

// Mixer is the audio task.
type Mixer struct {
	cfg Config

	game  []byte
	music []int16
	out   []byte
	meter Meter
	ratio atomic.Pointer[Ratio]

	lastMain      int
	lastUnderrun  time.Time
	lastSinkError time.Time

	cycles     atomic.Uint64
	underrun   atomic.Uint64
	sinkErrors atomic.Uint64
	volSteps   atomic.Uint64
}

// New validates cfg and allocates the cycle buffers.
func New(cfg Config) (*Mixer, error) {
	if cfg.Ring == nil || cfg.Sink == nil {
		return nil, fmt.Errorf("mix: ring and sink are required")
	}
	if cfg.Ratio == (Ratio{}) {
		cfg.Ratio = DefaultRatio
	}
	if err := cfg.Ratio.Validate(); err != nil {
		return nil, err
	}
	if cfg.Chunk <= 0 || cfg.Chunk%4 != 0 || cfg.Ring.Cap()%cfg.Chunk != 0 {
		return nil, fmt.Errorf("mix: chunk %d does not divide ring of %d bytes", cfg.Chunk, cfg.Ring.Cap())
	}
	if cfg.Music == nil {
		cfg.Music = stream.Silence{}
	}
	if cfg.Volume == nil {
		cfg.Volume = NewVolume(255, UnityMusic)
	}
	m := &Mixer{
		cfg:      cfg,
		game:     make([]byte, cfg.Chunk),
		music:    make([]int16, cfg.Chunk/2),
		out:      make([]byte, cfg.Chunk),
		lastMain: -1,
	}
	r := cfg.Ratio
	m.ratio.Store(&r)
	m.meter.SetRate(cfg.SampleRate)
	return m, nil
}

// SetRatio changes the music/game weighting from the next cycle on.
func (m *Mixer) SetRatio(r Ratio) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.ratio.Store(&r)
	return nil
}

// Ratio returns the weighting in effect.
func (m *Mixer) Ratio() Ratio { return *m.ratio.Load() }

// Cycle runs one mixing cycle: read one chunk from the ring, pull the same
// amount of music, mix and hand the result to the sink.
func (m *Mixer) Cycle() error {
	main := int(m.cfg.Volume.Main())
	if main != m.lastMain {
		m.lastMain = main
		m.volSteps.Add(1)
		m.logf("mix: volume %d", main)
		if vs, ok := m.cfg.Sink.(volumeSink); ok {
			vs.SetVolume(uint8(main))
		}
	}
	gain := int(m.cfg.Volume.Music())

	if short := m.cfg.Ring.ReadChunk(m.game); short > 0 {
		total := m.underrun.Add(uint64(short))
		if throttle(&m.lastUnderrun) {
			m.logf("mix: underrun, %d bytes total", total)
		}
	}
	m.cfg.Music.Sample(m.music)
	Chunk(m.out, m.game, m.music, gain, *m.ratio.Load())
	m.meter.Update(m.out)
	m.cycles.Add(1)

	if err := m.cfg.Sink.Write(m.out); err != nil {
		m.sinkErrors.Add(1)
		return fmt.Errorf("mix: sink: %w", err)
	}
	return nil
}

// Run loops Cycle until the kernel stops.
func (m *Mixer) Run(ctx *kernel.Context) {
	var tick <-chan time.Time
	if m.cfg.Period > 0 {
		t := time.NewTicker(m.cfg.Period)
		defer t.Stop()
		tick = t.C
	}
	for !ctx.Quitting() {
		err := m.Cycle()
		if err != nil && throttle(&m.lastSinkError) {
			m.logf("%v", err)
		}
		switch {
		case tick != nil:
			select {
			case <-tick:
			case <-ctx.Done():
				return
			}
		case err != nil:
			// A failing sink returns at once; do not spin on it.
			select {
			case <-time.After(10 * time.Millisecond):
			case <-ctx.Done():
				return
			}
		default:
			// The sink write paces the loop; let the presenter in between.
			ctx.Yield()
		}
	}
}

// throttle reports whether at least a second passed since *last and, if so,
// moves *last to now.
func throttle(last *time.Time) bool {
	now := time.Now()
	if now.Sub(*last) < time.Second {
		return false
	}
	*last = now
	return true
}

func (m *Mixer) logf(format string, args ...any) {
	if m.cfg.Logger == nil {
		return
	}
	m.cfg.Logger.WriteLineString(fmt.Sprintf(format, args...))
}

// ReadOffset is the ring's read cursor in bytes.
func (m *Mixer) ReadOffset() int { return m.cfg.Ring.ReadOffset() }

// Levels returns the latest output band levels.
func (m *Mixer) Levels() [Bands]uint8 { return m.meter.Levels() }

func (m *Mixer) Stats() Stats {
	return Stats{
		Cycles:        m.cycles.Load(),
		UnderrunBytes: m.underrun.Load(),
		SinkErrors:    m.sinkErrors.Load(),
		VolumeSteps:   m.volSteps.Load(),
	}
}
