package app

import (
	"picoheld/hal"
	"picoheld/kernel"
)

// volumeStep is one key press worth of gain.
const volumeStep = 1.0 / 16

// runInput maps keys onto console controls: Escape quits, Up/Down move the
// output volume and Left/Right the music volume.
func (s *System) runInput(ctx *kernel.Context) {
	kb := s.h.Keyboard()
	if kb == nil || kb.Events() == nil {
		return
	}
	events := kb.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Press {
				s.handleKey(ev.Code)
			}
		}
	}
}

func (s *System) handleKey(code hal.KeyCode) {
	main, music := s.console.Volume()
	switch code {
	case hal.KeyEscape:
		s.console.Quit(nil)
		return
	case hal.KeyUp:
		main += volumeStep
	case hal.KeyDown:
		main -= volumeStep
	case hal.KeyRight:
		music += volumeStep
	case hal.KeyLeft:
		music -= volumeStep
	default:
		return
	}
	s.console.SetVolume(main, music)
}
