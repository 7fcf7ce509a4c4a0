// Package rgb565 provides the display-native 16bpp pixel format used by the
// panel surfaces and the scaler.
//
// Pixels are packed rrrrrggggggbbbbb and stored as native uint16 values, one
// per pixel, in row-major order.
package rgb565

import (
	"image"
	"image/color"
)

// Pack reduces a 24-bit colour to RGB565.
func Pack(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// Unpack expands an RGB565 value back to 8 bits per channel.
func Unpack(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((uint32(rr) * 255) / 31)
	g = uint8((uint32(gg) * 255) / 63)
	b = uint8((uint32(bb) * 255) / 31)
	return r, g, b
}

// Color is a single RGB565 pixel.
type Color uint16

func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := Unpack(uint16(c))
	r = uint32(r8) * 0x101
	g = uint32(g8) * 0x101
	b = uint32(b8) * 0x101
	return r, g, b, 0xFFFF
}

// Model converts any colour to RGB565.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return Color(Pack(uint8(r>>8), uint8(g>>8), uint8(b>>8)))
})

// Image is an RGB565 surface. It implements draw.Image so it can be handed to
// image filters directly.
type Image struct {
	Pix    []uint16
	Stride int // pixels per row
	Rect   image.Rectangle
}

// New allocates a w×h surface.
func New(w, h int) *Image {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Image{
		Pix:    make([]uint16, w*h),
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}
}

func (m *Image) Width() int  { return m.Rect.Dx() }
func (m *Image) Height() int { return m.Rect.Dy() }

func (m *Image) ColorModel() color.Model { return Model }
func (m *Image) Bounds() image.Rectangle { return m.Rect }

// PixOffset returns the index of the pixel at (x, y) in Pix.
func (m *Image) PixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x - m.Rect.Min.X)
}

func (m *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(m.Rect)) {
		return Color(0)
	}
	return Color(m.Pix[m.PixOffset(x, y)])
}

func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	m.Pix[m.PixOffset(x, y)] = uint16(Model.Convert(c).(Color))
}

// SetRGB565 stores a packed pixel without colour model conversion.
func (m *Image) SetRGB565(x, y int, p uint16) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	m.Pix[m.PixOffset(x, y)] = p
}

// Fill sets every pixel to p.
func (m *Image) Fill(p uint16) {
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		row := m.Pix[m.PixOffset(m.Rect.Min.X, y):]
		for x := 0; x < m.Rect.Dx(); x++ {
			row[x] = p
		}
	}
}

// SameSize reports whether both images have the same dimensions.
func SameSize(a, b *Image) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Rect.Dx() == b.Rect.Dx() && a.Rect.Dy() == b.Rect.Dy()
}
