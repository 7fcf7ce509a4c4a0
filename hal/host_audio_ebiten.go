//go:build !tinygo && cgo

package hal

import (
	"errors"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// ebitenAudio plays the mixed stream through Ebiten's audio package. It is the
// window-mode sink; Ebiten owns the only audio context in that mode.
type ebitenAudio struct {
	mu sync.Mutex

	ctx    *audio.Context
	player *audio.Player
	pipe   *pcmPipe
	vol    uint8
}

// NewEbitenAudio returns the window-mode audio sink.
func NewEbitenAudio() AudioOut { return &ebitenAudio{vol: 255} }

func (a *ebitenAudio) Start(sampleRate uint32) error {
	if sampleRate == 0 {
		return errors.New("host audio: invalid sample rate")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ctx == nil {
		if c := audio.CurrentContext(); c != nil {
			a.ctx = c
		} else {
			a.ctx = audio.NewContext(int(sampleRate))
		}
	}
	if a.ctx.SampleRate() != int(sampleRate) {
		return errors.New("host audio: ebiten audio context sample rate is fixed")
	}

	if a.player != nil {
		a.pipe.Close()
		_ = a.player.Close()
	}
	a.pipe = newPCMPipe(pipeSize(sampleRate))

	p, err := a.ctx.NewPlayer(a.pipe)
	if err != nil {
		return err
	}
	p.SetBufferSize(100 * time.Millisecond)
	p.SetVolume(float64(a.vol) / 255.0)
	p.Play()
	a.player = p
	return nil
}

func (a *ebitenAudio) Write(chunk []byte) error {
	a.mu.Lock()
	pipe := a.pipe
	a.mu.Unlock()
	if pipe == nil {
		return errNotStarted
	}
	_, err := pipe.Write(chunk)
	return err
}

func (a *ebitenAudio) SetVolume(vol uint8) {
	a.mu.Lock()
	a.vol = vol
	p := a.player
	a.mu.Unlock()

	if p != nil {
		p.SetVolume(float64(vol) / 255.0)
	}
}

func (a *ebitenAudio) Close() error {
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
