package hal

import (
	"errors"
	"sync"
	"time"
)

var errNotStarted = errors.New("audio: not started")

// NullAudio discards samples but blocks like a device would, one chunk
// duration per Write, so the mixer keeps its cadence without hardware.
type NullAudio struct {
	mu      sync.Mutex
	rate    uint32
	next    time.Time
	vol     uint8
	written uint64
	closed  bool
}

func NewNullAudio() *NullAudio { return &NullAudio{vol: 255} }

func (a *NullAudio) Start(sampleRate uint32) error {
	if sampleRate == 0 {
		return errors.New("null audio: invalid sample rate")
	}
	a.mu.Lock()
	a.rate = sampleRate
	a.next = time.Time{}
	a.closed = false
	a.mu.Unlock()
	return nil
}

func (a *NullAudio) Write(chunk []byte) error {
	a.mu.Lock()
	if a.closed || a.rate == 0 {
		a.mu.Unlock()
		return errNotStarted
	}
	d := time.Duration(len(chunk)/4) * time.Second / time.Duration(a.rate)
	now := time.Now()
	if a.next.Before(now) {
		// Fell behind (or first write): restart the clock instead of bursting.
		a.next = now
	}
	a.next = a.next.Add(d)
	wait := a.next.Sub(now)
	a.written += uint64(len(chunk))
	a.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
	return nil
}

func (a *NullAudio) SetVolume(vol uint8) {
	a.mu.Lock()
	a.vol = vol
	a.mu.Unlock()
}

// Volume returns the last level set.
func (a *NullAudio) Volume() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vol
}

// Written counts bytes accepted since creation.
func (a *NullAudio) Written() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.written
}

func (a *NullAudio) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return nil
}
