//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64

	// Audio plays through oto instead of the paced null sink.
	Audio bool
}

// RunHeadless runs the system without opening a window. Once Ticks steps have
// run, or ctx is cancelled, it asks the app to quit the same way the Escape
// key does and keeps stepping until the app reports ErrQuit.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	var audio AudioOut = NewNullAudio()
	if cfg.Audio {
		audio = NewOtoAudio()
	}
	h := newHostHAL(NewBufferedPanel(hostPanelWidth, hostPanelHeight, nil), audio)
	step := newApp(h)

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	var quitAt time.Time
	requestQuit := func() {
		if quitAt.IsZero() {
			quitAt = time.Now()
			h.kbd.emit(KeyEvent{Code: KeyEscape, Press: true})
		}
	}
	done := ctx.Done()
	for {
		select {
		case <-done:
			done = nil
			requestQuit()
		case <-t.C:
			h.t.step()
			if step != nil {
				if err := step(); err != nil {
					if errors.Is(err, ErrQuit) {
						return nil
					}
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				requestQuit()
			}
			if !quitAt.IsZero() && time.Since(quitAt) > closeGrace {
				return errors.New("headless: app did not quit")
			}
		}
	}
}
