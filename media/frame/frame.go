// Package frame converts indexed-colour source frames to display colour.
package frame

import (
	"errors"
	"fmt"

	"picoheld/media/palette"
	"picoheld/media/rgb565"
)

// Frame is a reference to a producer-owned buffer of palette indices, one byte
// per pixel in row-major order.
//
// The producer keeps ownership of Pix. It must not modify it until the next
// frame has been submitted.
type Frame struct {
	Seq    uint64
	Width  int
	Height int
	Pix    []byte
}

var (
	ErrEmptyFrame   = errors.New("frame: empty")
	ErrSizeMismatch = errors.New("frame: size mismatch")
)

// Validate checks that Pix covers Width×Height.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || f.Pix == nil {
		return ErrEmptyFrame
	}
	if len(f.Pix) < f.Width*f.Height {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrSizeMismatch, len(f.Pix), f.Width, f.Height)
	}
	return nil
}

// Convert writes f through pal into dst in scan order. dst must have the
// frame's dimensions.
func Convert(dst *rgb565.Image, f Frame, pal *palette.Table) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if dst == nil || dst.Width() != f.Width || dst.Height() != f.Height {
		return fmt.Errorf("%w: frame %dx%d", ErrSizeMismatch, f.Width, f.Height)
	}
	if pal == nil {
		return errors.New("frame: nil palette")
	}

	src := f.Pix
	for y := 0; y < f.Height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+f.Width]
		line := src[y*f.Width : (y+1)*f.Width]
		for x, idx := range line {
			row[x] = pal[idx]
		}
	}
	return nil
}
