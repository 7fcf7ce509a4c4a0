//go:build tinygo && baremetal

package hal

import (
	"encoding/binary"
	"machine"
	"time"
)

type pwmDevice interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	SetTop(top uint32)
	Top() uint32
	Set(channel uint8, value uint32)
	Enable(enable bool)
}

// pwmAudioOut drives a speaker pin with a fixed PWM carrier and updates the
// duty cycle once per sample, paced by a ticker at the sample rate. Stereo
// frames are folded to mono.
type pwmAudioOut struct {
	pin machine.Pin
	pwm pwmDevice
	ch  uint8
	top uint32

	tick    *time.Ticker
	volume  uint8
	started bool
}

func newPWMAudioOut(pin machine.Pin) *pwmAudioOut {
	pwm := pwmForPin(pin)
	if pwm == nil {
		return nil
	}
	return &pwmAudioOut{pin: pin, pwm: pwm, volume: 255}
}

func pwmForPin(pin machine.Pin) pwmDevice {
	slice, err := machine.PWMPeripheral(pin)
	if err != nil {
		return nil
	}
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		return nil
	}
}

func (a *pwmAudioOut) Start(sampleRate uint32) error {
	if sampleRate == 0 {
		return ErrNotImplemented
	}
	const pwmCarrierHz = 62500
	if err := a.pwm.Configure(machine.PWMConfig{Period: 1e9 / pwmCarrierHz}); err != nil {
		return err
	}
	ch, err := a.pwm.Channel(a.pin)
	if err != nil {
		return err
	}
	a.ch = ch
	a.pwm.SetTop(0xFFFF)
	a.top = a.pwm.Top()
	a.pwm.Set(a.ch, a.top/2)
	a.pwm.Enable(true)

	if a.tick != nil {
		a.tick.Stop()
	}
	a.tick = time.NewTicker(time.Second / time.Duration(sampleRate))
	a.started = true
	return nil
}

func (a *pwmAudioOut) Write(chunk []byte) error {
	if !a.started {
		return errNotStarted
	}
	vol := int32(a.volume)
	for i := 0; i+3 < len(chunk); i += 4 {
		l := int32(int16(binary.LittleEndian.Uint16(chunk[i:])))
		r := int32(int16(binary.LittleEndian.Uint16(chunk[i+2:])))
		s := (l + r) / 2 * vol / 255
		duty := uint32(s+32768) * a.top / 65535
		<-a.tick.C
		a.pwm.Set(a.ch, duty)
	}
	return nil
}

func (a *pwmAudioOut) SetVolume(vol uint8) { a.volume = vol }

func (a *pwmAudioOut) Close() error {
	if !a.started {
		return nil
	}
	a.tick.Stop()
	a.pwm.Set(a.ch, a.top/2)
	a.pwm.Enable(false)
	a.started = false
	return nil
}
