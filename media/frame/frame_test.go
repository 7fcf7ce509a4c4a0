package frame

import (
	"errors"
	"testing"

	"picoheld/media/palette"
	"picoheld/media/rgb565"
)

func TestConvertSinglePixel(t *testing.T) {
	p := palette.New()
	var colors [palette.Size]palette.RGB
	colors[1] = palette.RGB{R: 255}
	p.Install(colors)

	dst := rgb565.New(1, 1)
	for idx, want := range map[byte]uint16{0: 0x0000, 1: 0xF800} {
		f := Frame{Width: 1, Height: 1, Pix: []byte{idx}}
		if err := Convert(dst, f, p.Snapshot()); err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if dst.Pix[0] != want {
			t.Errorf("index %d converted to %#04x, want %#04x", idx, dst.Pix[0], want)
		}
	}
}

func TestConvertScanOrder(t *testing.T) {
	var tab palette.Table
	for i := range tab {
		tab[i] = uint16(i) * 3
	}

	const w, h = 5, 3
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = byte(i)
	}
	dst := rgb565.New(w, h)
	if err := Convert(dst, Frame{Width: w, Height: h, Pix: pix}, &tab); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := uint16(y*w+x) * 3
			if got := dst.Pix[dst.PixOffset(x, y)]; got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestConvertErrors(t *testing.T) {
	tab := &palette.Table{}
	dst := rgb565.New(2, 2)

	if err := Convert(dst, Frame{}, tab); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("empty frame err = %v", err)
	}
	if err := Convert(dst, Frame{Width: 2, Height: 2, Pix: []byte{1}}, tab); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("short pix err = %v", err)
	}
	if err := Convert(dst, Frame{Width: 3, Height: 2, Pix: make([]byte, 6)}, tab); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("dst mismatch err = %v", err)
	}
}
