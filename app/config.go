package app

import (
	"errors"
	"fmt"

	"picoheld/media/mix"
	"picoheld/media/ring"
	"picoheld/media/scaler"
)

// Defaults mirror the handheld firmware.
const (
	DefaultSourceWidth  = 320
	DefaultSourceHeight = 200
	DefaultRingCapacity = 16384
	DefaultChunkDivisor = 8
	DefaultSampleRate   = 44100
)

// Config selects how the system is wired. Zero fields take the defaults
// above; zero volumes mute.
type Config struct {
	SourceWidth  int
	SourceHeight int

	// Rotation in degrees clockwise: 0, 90, 180 or 270.
	Rotation int
	MirrorX  bool
	MirrorY  bool
	Filter   string // "nearest" or "bilinear"

	RingCapacity int // bytes, power of two
	ChunkDivisor int // one mixer cycle reads RingCapacity/ChunkDivisor bytes
	SampleRate   uint32

	// Ratio weights music against game audio, "music:game".
	Ratio string

	MainVolume  float64 // 0..1
	MusicVolume float64 // 0..1

	MusicPath string
	LoopMusic bool

	// EndScreenPath names a raw 4000-byte text memory dump shown when the
	// producer quits without passing its own.
	EndScreenPath string

	// Demo runs the built-in producer.
	Demo bool
}

func (c Config) withDefaults() Config {
	if c.SourceWidth == 0 {
		c.SourceWidth = DefaultSourceWidth
	}
	if c.SourceHeight == 0 {
		c.SourceHeight = DefaultSourceHeight
	}
	if c.Filter == "" {
		c.Filter = "nearest"
	}
	if c.RingCapacity == 0 {
		c.RingCapacity = DefaultRingCapacity
	}
	if c.ChunkDivisor == 0 {
		c.ChunkDivisor = DefaultChunkDivisor
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Ratio == "" {
		c.Ratio = mix.DefaultRatio.String()
	}
	return c
}

// Validate reports the first setting that cannot be wired.
func (c Config) Validate() error {
	if c.SourceWidth <= 0 || c.SourceHeight <= 0 {
		return fmt.Errorf("app: invalid source size %dx%d", c.SourceWidth, c.SourceHeight)
	}
	if _, err := scaler.ParseRotation(c.Rotation); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if _, err := scaler.ParseFilter(c.Filter); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if _, err := ring.New(c.RingCapacity); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if _, err := ring.ChunkFor(c.RingCapacity, c.ChunkDivisor); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if c.SampleRate == 0 {
		return errors.New("app: sample rate must be positive")
	}
	if _, err := mix.ParseRatio(c.Ratio); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if c.MainVolume < 0 || c.MainVolume > 1 || c.MusicVolume < 0 || c.MusicVolume > 1 {
		return fmt.Errorf("app: volumes must be within 0..1, got %v/%v", c.MainVolume, c.MusicVolume)
	}
	return nil
}
