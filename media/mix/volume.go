package mix

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// UnityMusic is the music gain that leaves the stream unscaled.
const UnityMusic = 256

// Volume is the shared gain state the mixer re-reads once per cycle.
//
// Main (0..255) is the output level handed to the sink. Music (0..256) scales
// the secondary stream before mixing.
type Volume struct {
	main  atomic.Uint32
	music atomic.Uint32
}

func NewVolume(main uint8, music uint16) *Volume {
	v := &Volume{}
	v.SetMain(main)
	v.SetMusic(music)
	return v
}

func (v *Volume) Main() uint8   { return uint8(v.main.Load()) }
func (v *Volume) Music() uint16 { return uint16(v.music.Load()) }

func (v *Volume) SetMain(g uint8) { v.main.Store(uint32(g)) }

func (v *Volume) SetMusic(g uint16) {
	if g > UnityMusic {
		g = UnityMusic
	}
	v.music.Store(uint32(g))
}

// SetMainFloat maps 0..1 onto 0..255.
func (v *Volume) SetMainFloat(f float64) {
	v.SetMain(uint8(clamp01(f)*255 + 0.5))
}

// SetMusicFloat maps 0..1 onto 0..256.
func (v *Volume) SetMusicFloat(f float64) {
	v.SetMusic(uint16(clamp01(f)*UnityMusic + 0.5))
}

func clamp01(f float64) float64 {
	if f != f || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Ratio weights the music stream against the game buffer. The mixed sample is
// the weighted average, so the sum of the weights is the divisor.
type Ratio struct {
	Music int
	Game  int
}

// DefaultRatio favours music three to one.
var DefaultRatio = Ratio{Music: 24, Game: 8}

var ErrRatio = errors.New("mix: invalid ratio")

func (r Ratio) Validate() error {
	if r.Music < 0 || r.Game < 0 || r.Music+r.Game == 0 {
		return fmt.Errorf("%w: %d:%d", ErrRatio, r.Music, r.Game)
	}
	return nil
}

func (r Ratio) String() string { return fmt.Sprintf("%d:%d", r.Music, r.Game) }

// ParseRatio reads "music:game".
func ParseRatio(s string) (Ratio, error) {
	var r Ratio
	if _, err := fmt.Sscanf(s, "%d:%d", &r.Music, &r.Game); err != nil {
		return Ratio{}, fmt.Errorf("%w: %q", ErrRatio, s)
	}
	return r, r.Validate()
}
