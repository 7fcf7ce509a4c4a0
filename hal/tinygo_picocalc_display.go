//go:build tinygo && baremetal && picocalc

package hal

import (
	"errors"
	"machine"
	"time"

	"picoheld/media/rgb565"
)

type ili9488 struct {
	spi machine.SPI
	cs  machine.Pin
	dc  machine.Pin
	rst machine.Pin

	txBuf []byte
}

func initILI9488() (*ili9488, error) {
	if machine.SPI1 == nil {
		return nil, errors.New("lcd: SPI1 unavailable")
	}

	machine.SPI1.Configure(machine.SPIConfig{
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		SDI:       machine.GP12,
		Frequency: 40_000_000,
	})

	lcd := &ili9488{
		spi:   *machine.SPI1,
		cs:    machine.GP13,
		dc:    machine.GP14,
		rst:   machine.GP15,
		txBuf: make([]byte, 4096),
	}

	lcd.cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.dc.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.rst.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.cs.High()
	lcd.dc.High()
	lcd.rst.High()

	lcd.reset()
	lcd.init()

	return lcd, nil
}

func (d *ili9488) reset() {
	d.rst.Low()
	time.Sleep(64 * time.Millisecond)
	d.rst.High()
	time.Sleep(140 * time.Millisecond)
}

func (d *ili9488) init() {
	// Power control.
	d.cmd(0xC0, 0x17, 0x15) // PWCTRL1
	d.cmd(0xC1, 0x41)       // PWCTRL2

	// VCOM control.
	d.cmd(0xC5, 0x00, 0x12, 0x80, 0x40) // VMCTRL

	// Pixel format: 16bpp.
	d.cmd(0x3A, 0x55) // COLMOD

	// Frame rate / display function.
	d.cmd(0xB1, 0xA0, 0x11)       // FRMCTRL1
	d.cmd(0xB6, 0x02, 0x22, 0x27) // DISCTRL (320 lines)

	d.cmd(0x21) // INVON

	// Memory access control: mirror for PicoCalc wiring + BGR panel order.
	d.cmd(0x36, 0x40|0x04|0x08) // MX|MH|BGR

	d.cmd(0x11) // SLPOUT
	time.Sleep(120 * time.Millisecond)
	d.cmd(0x29) // DISPON
}

func (d *ili9488) cmd(cmd byte, data ...byte) {
	d.cs.Low()
	d.dc.Low()
	d.spi.Tx([]byte{cmd}, nil)
	d.dc.High()
	if len(data) > 0 {
		d.spi.Tx(data, nil)
	}
	d.cs.High()
}

func (d *ili9488) setWindow(x0, y0, x1, y1 uint16) {
	d.cmd(
		0x2A,
		byte(x0>>8), byte(x0),
		byte(x1>>8), byte(x1),
	)
	d.cmd(
		0x2B,
		byte(y0>>8), byte(y0),
		byte(y1>>8), byte(y1),
	)
	d.cmd(0x2C)
}

// blit streams img to the panel. Surfaces hold native uint16 pixels; the
// controller wants them big-endian.
func (d *ili9488) blit(img *rgb565.Image) error {
	w, h := img.Width(), img.Height()
	if w <= 0 || h <= 0 {
		return errors.New("lcd: empty surface")
	}
	if len(d.txBuf) < 2 {
		return errors.New("lcd: tx buffer too small")
	}

	d.setWindow(0, 0, uint16(w-1), uint16(h-1))

	d.cs.Low()
	d.dc.High()
	perTx := len(d.txBuf) / 2
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for len(row) > 0 {
			n := len(row)
			if n > perTx {
				n = perTx
			}
			m := swapBytes(d.txBuf, row[:n])
			d.spi.Tx(d.txBuf[:m], nil)
			row = row[n:]
		}
	}
	d.cs.High()
	return nil
}
