//go:build tinygo && baremetal && picocalc

package hal

import (
	"errors"
	"machine"
	"time"
)

const (
	picoCalcKbdAddr uint16 = 0x1F
	picoCalcKbdCmd         = 0x09
)

// Key event types reported by the keyboard MCU.
const (
	picoCalcKeyPressed  = 0x01
	picoCalcKeyReleased = 0x03
)

var picoCalcKeys = map[byte]KeyCode{
	0xB5: KeyUp,
	0xB6: KeyDown,
	0xB4: KeyLeft,
	0xB7: KeyRight,
	'\r': KeyEnter,
	'\n': KeyEnter,
	0xB1: KeyEscape,
}

type i2cKeyboard struct {
	i2c   *machine.I2C
	write [1]byte
	read  [2]byte
}

func initI2CKeyboard() (*i2cKeyboard, error) {
	// Prefer I2C1 (stock PicoCalc wiring), but some TinyGo targets expose only I2C0.
	for _, bus := range []*machine.I2C{machine.I2C1, machine.I2C0} {
		if bus == nil {
			continue
		}
		for _, freq := range []uint32{100_000, 400_000} {
			if err := bus.Configure(machine.I2CConfig{
				SCL:       machine.GP7,
				SDA:       machine.GP6,
				Frequency: freq,
			}); err != nil {
				continue
			}

			k := &i2cKeyboard{i2c: bus, write: [1]byte{picoCalcKbdCmd}}
			// The keyboard MCU can be slow to answer after power-up.
			for i := 0; i < 50; i++ {
				if err := k.i2c.Tx(picoCalcKbdAddr, k.write[:], k.read[:]); err == nil {
					return k, nil
				}
				time.Sleep(10 * time.Millisecond)
			}
		}
	}
	return nil, errors.New("keyboard: I2C unavailable")
}

func (k *i2cKeyboard) readEvent() (KeyEvent, bool) {
	if err := k.i2c.Tx(picoCalcKbdAddr, k.write[:], k.read[:]); err != nil {
		return KeyEvent{}, false
	}
	code, ok := picoCalcKeys[k.read[1]]
	if !ok {
		return KeyEvent{}, false
	}
	switch k.read[0] {
	case picoCalcKeyPressed:
		return KeyEvent{Code: code, Press: true}, true
	case picoCalcKeyReleased:
		return KeyEvent{Code: code, Press: false}, true
	}
	return KeyEvent{}, false
}
