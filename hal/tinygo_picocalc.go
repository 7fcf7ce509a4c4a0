//go:build tinygo && baremetal && picocalc

package hal

import (
	"machine"
	"time"

	"picoheld/media/rgb565"
)

const (
	picoCalcWidth  = 320
	picoCalcHeight = 320
)

type picoCalcHAL struct {
	logger *uartLogger
	panel  *BufferedPanel
	audio  AudioOut
	kbd    Keyboard
	t      *tinyGoTime
}

// New returns a PicoCalc HAL implementation (Pico/Pico2 on the PicoCalc carrier).
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
func New() HAL {
	logger := &uartLogger{uart: configureUART()}

	var scanout func(*rgb565.Image) error
	if lcd, err := initILI9488(); err == nil {
		scanout = lcd.blit
	} else {
		logger.WriteLineString("hal: lcd: " + err.Error())
	}

	var kbd Keyboard = nullKeyboard{}
	if kb, err := newPicoCalcKeyboard(); err == nil {
		kbd = kb
	} else {
		logger.WriteLineString("hal: " + err.Error())
	}

	// The carrier routes the speaker amplifier's left input to GP26.
	var audio AudioOut = NewNullAudio()
	if pwm := newPWMAudioOut(machine.GP26); pwm != nil {
		audio = pwm
	}

	return &picoCalcHAL{
		logger: logger,
		panel:  NewBufferedPanel(picoCalcWidth, picoCalcHeight, scanout),
		audio:  audio,
		kbd:    kbd,
		t:      newTinyGoTime(),
	}
}

func (h *picoCalcHAL) Logger() Logger     { return h.logger }
func (h *picoCalcHAL) Panel() Panel       { return h.panel }
func (h *picoCalcHAL) Audio() AudioOut    { return h.audio }
func (h *picoCalcHAL) Keyboard() Keyboard { return h.kbd }
func (h *picoCalcHAL) Time() Time         { return h.t }

type picoCalcKeyboard struct {
	ch chan KeyEvent
}

func (k *picoCalcKeyboard) Events() <-chan KeyEvent { return k.ch }

func newPicoCalcKeyboard() (*picoCalcKeyboard, error) {
	dev := &picoCalcKeyboard{ch: make(chan KeyEvent, 64)}
	kbd, err := initI2CKeyboard()
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			if ev, ok := kbd.readEvent(); ok {
				select {
				case dev.ch <- ev:
				default:
				}
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()

	return dev, nil
}
