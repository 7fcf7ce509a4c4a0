// Package scaler defines the scale/rotate/mirror accelerator contract used by
// the presenter, plus a software implementation.
//
// An accelerator is an opaque, blocking operation: when ScaleRotate returns
// the destination surface is fully written, or an error says the frame must
// be dropped.
package scaler

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"picoheld/media/rgb565"

	"github.com/disintegration/gift"
	xdraw "golang.org/x/image/draw"
	"tinygo.org/x/drivers"
)

// Op describes one scale/rotate/mirror request.
//
// Rotation is clockwise. Mirroring is applied after rotation, in destination
// orientation.
type Op struct {
	Src      *rgb565.Image
	Dst      *rgb565.Image
	Rotation drivers.Rotation
	MirrorX  bool
	MirrorY  bool
}

// Accelerator performs blocking scale/rotate/mirror operations.
type Accelerator interface {
	ScaleRotate(op Op) error
}

var (
	ErrNilBuffer       = errors.New("scaler: nil buffer")
	ErrEmptyBuffer     = errors.New("scaler: zero-sized buffer")
	ErrInvalidRotation = errors.New("scaler: invalid rotation")
)

// Filter selects the resampling kernel.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterBilinear
)

// ParseFilter maps a config name to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", "nearest":
		return FilterNearest, nil
	case "bilinear":
		return FilterBilinear, nil
	default:
		return 0, fmt.Errorf("scaler: unknown filter %q", s)
	}
}

// ParseRotation maps degrees to a drivers.Rotation.
func ParseRotation(deg int) (drivers.Rotation, error) {
	switch deg {
	case 0:
		return drivers.Rotation0, nil
	case 90:
		return drivers.Rotation90, nil
	case 180:
		return drivers.Rotation180, nil
	case 270:
		return drivers.Rotation270, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidRotation, deg)
	}
}

// RotatedSize returns the size of a w×h image after rotation r.
func RotatedSize(w, h int, r drivers.Rotation) (int, int) {
	if r == drivers.Rotation90 || r == drivers.Rotation270 {
		return h, w
	}
	return w, h
}

// Software is an Accelerator running on the CPU.
type Software struct {
	filter Filter

	mu      sync.Mutex
	rotated *rgb565.Image
}

// NewSoftware returns a software accelerator.
func NewSoftware(filter Filter) *Software {
	return &Software{filter: filter}
}

func (s *Software) ScaleRotate(op Op) error {
	if op.Src == nil || op.Dst == nil {
		return ErrNilBuffer
	}
	if op.Src.Rect.Empty() || op.Dst.Rect.Empty() {
		return ErrEmptyBuffer
	}

	filters, err := orient(op)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := op.Src
	if len(filters) > 0 {
		g := gift.New(filters...)
		b := g.Bounds(src.Bounds())
		if s.rotated == nil || s.rotated.Width() != b.Dx() || s.rotated.Height() != b.Dy() {
			s.rotated = rgb565.New(b.Dx(), b.Dy())
		}
		g.Draw(s.rotated, src)
		src = s.rotated
	}

	if rgb565.SameSize(src, op.Dst) {
		copyImage(op.Dst, src)
		return nil
	}

	s.interpolator().Scale(op.Dst, op.Dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return nil
}

func (s *Software) interpolator() xdraw.Interpolator {
	if s.filter == FilterBilinear {
		return xdraw.ApproxBiLinear
	}
	return xdraw.NearestNeighbor
}

func orient(op Op) ([]gift.Filter, error) {
	var filters []gift.Filter
	switch op.Rotation {
	case drivers.Rotation0:
	case drivers.Rotation90:
		// gift rotates counter-clockwise.
		filters = append(filters, gift.Rotate270())
	case drivers.Rotation180:
		filters = append(filters, gift.Rotate180())
	case drivers.Rotation270:
		filters = append(filters, gift.Rotate90())
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidRotation, op.Rotation)
	}
	if op.MirrorX {
		filters = append(filters, gift.FlipHorizontal())
	}
	if op.MirrorY {
		filters = append(filters, gift.FlipVertical())
	}
	return filters, nil
}

func copyImage(dst, src *rgb565.Image) {
	w := src.Width()
	for y := 0; y < src.Height(); y++ {
		d := dst.Pix[dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y):]
		s := src.Pix[src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y):]
		copy(d[:w], s[:w])
	}
}

// Rect is a convenience for building test and config rectangles.
func Rect(w, h int) image.Rectangle { return image.Rect(0, 0, w, h) }
