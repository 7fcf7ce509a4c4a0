// Package palette holds the 256-entry indexed-colour table used by the frame
// converter.
//
// A Palette is written by the producer and read by the presenter at the same
// time. Installs build a complete table off to the side and publish it with a
// single pointer swap, so a reader sees either the old table or the new one
// and never a mix of both.
package palette

import (
	"errors"
	"sync/atomic"

	"picoheld/media/rgb565"
)

// Size is the number of palette entries.
const Size = 256

// RGB24Size is the length of a packed R,G,B palette.
const RGB24Size = Size * 3

// Index selects a palette entry. The type bounds it to [0,256).
type Index = uint8

// RGB is a 24-bit source colour.
type RGB struct {
	R, G, B uint8
}

// Table is an immutable, fully built palette in display encoding.
type Table [Size]uint16

// Lookup returns the display colour for index i.
func (t *Table) Lookup(i Index) uint16 { return t[i] }

var ErrShortPalette = errors.New("palette: need 768 bytes of packed RGB")

// Palette is the shared, atomically replaced table.
type Palette struct {
	cur      atomic.Pointer[Table]
	installs atomic.Uint64
}

// New returns a palette where every entry is black.
func New() *Palette {
	p := &Palette{}
	p.cur.Store(&Table{})
	return p
}

// Install replaces the active table.
func (p *Palette) Install(colors [Size]RGB) {
	t := new(Table)
	for i, c := range colors {
		t[i] = rgb565.Pack(c.R, c.G, c.B)
	}
	p.publish(t)
}

// InstallRGB24 replaces the active table from packed R,G,B triples.
//
// Bytes beyond the first 768 are ignored.
func (p *Palette) InstallRGB24(raw []byte) error {
	if len(raw) < RGB24Size {
		return ErrShortPalette
	}
	t := new(Table)
	for i := 0; i < Size; i++ {
		t[i] = rgb565.Pack(raw[i*3], raw[i*3+1], raw[i*3+2])
	}
	p.publish(t)
	return nil
}

func (p *Palette) publish(t *Table) {
	p.cur.Store(t)
	p.installs.Add(1)
}

// Lookup returns the display colour of index i in the current table.
//
// Callers converting a whole frame should take one Snapshot instead.
func (p *Palette) Lookup(i Index) uint16 {
	return p.cur.Load()[i]
}

// Snapshot returns the current table. The returned table is never modified.
func (p *Palette) Snapshot() *Table {
	return p.cur.Load()
}

// Installs returns how many tables have been published.
func (p *Palette) Installs() uint64 {
	return p.installs.Load()
}

// FromRGB24 builds a standalone table from packed R,G,B triples. Short input
// leaves the remaining entries black.
func FromRGB24(raw []byte) *Table {
	t := new(Table)
	for i := 0; i < Size && i*3+2 < len(raw); i++ {
		t[i] = rgb565.Pack(raw[i*3], raw[i*3+1], raw[i*3+2])
	}
	return t
}
