//go:build !tinygo && cgo

package hal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// otoAudio plays the mixed stream through an oto context. Headless runs use it
// since no Ebiten game loop owns the audio device there.
type otoAudio struct {
	mu sync.Mutex

	ctx    *oto.Context
	rate   uint32
	player *oto.Player
	pipe   *pcmPipe
	vol    uint8
}

// NewOtoAudio returns the headless audio sink.
func NewOtoAudio() AudioOut { return &otoAudio{vol: 255} }

func (a *otoAudio) Start(sampleRate uint32) error {
	if sampleRate == 0 {
		return errors.New("oto audio: invalid sample rate")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(sampleRate),
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			return fmt.Errorf("oto audio: %w", err)
		}
		<-ready
		a.ctx = ctx
		a.rate = sampleRate
	} else if a.rate != sampleRate {
		return errors.New("oto audio: context sample rate is fixed")
	}

	if a.player != nil {
		a.pipe.Close()
		_ = a.player.Close()
	}
	a.pipe = newPCMPipe(pipeSize(sampleRate))
	a.player = a.ctx.NewPlayer(a.pipe)
	a.player.SetVolume(float64(a.vol) / 255.0)
	a.player.Play()
	return nil
}

func (a *otoAudio) Write(chunk []byte) error {
	a.mu.Lock()
	pipe := a.pipe
	a.mu.Unlock()
	if pipe == nil {
		return errNotStarted
	}
	_, err := pipe.Write(chunk)
	return err
}

func (a *otoAudio) SetVolume(vol uint8) {
	a.mu.Lock()
	a.vol = vol
	p := a.player
	a.mu.Unlock()

	if p != nil {
		p.SetVolume(float64(vol) / 255.0)
	}
}

func (a *otoAudio) Close() error {
	a.mu.Lock()
	p, pipe := a.player, a.pipe
	a.player, a.pipe = nil, nil
	a.mu.Unlock()

	if pipe != nil {
		pipe.Close()
	}
	if p != nil {
		return p.Close()
	}
	return nil
}
