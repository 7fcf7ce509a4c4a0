//go:build tinygo && baremetal && !picocalc

package hal

import "machine"

type tinyGoHAL struct {
	logger *uartLogger
	panel  *BufferedPanel
	audio  AudioOut
	t      *tinyGoTime
}

// New returns a bare Pico 2 (RP2350) HAL: UART logging, PWM audio on GP2 and
// an in-memory panel with no display attached.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
func New() HAL {
	var audio AudioOut = NewNullAudio()
	if pwm := newPWMAudioOut(machine.GP2); pwm != nil {
		audio = pwm
	}
	return &tinyGoHAL{
		logger: &uartLogger{uart: configureUART()},
		panel:  NewBufferedPanel(320, 320, nil),
		audio:  audio,
		t:      newTinyGoTime(),
	}
}

func (h *tinyGoHAL) Logger() Logger     { return h.logger }
func (h *tinyGoHAL) Panel() Panel       { return h.panel }
func (h *tinyGoHAL) Audio() AudioOut    { return h.audio }
func (h *tinyGoHAL) Keyboard() Keyboard { return nullKeyboard{} }
func (h *tinyGoHAL) Time() Time         { return h.t }
