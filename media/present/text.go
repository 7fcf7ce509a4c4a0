package present

import (
	"image/color"

	"picoheld/font/font6x8"
	"picoheld/media/palette"
	"picoheld/media/rgb565"

	"tinygo.org/x/tinyfont"
)

// Text mode geometry: 80×25 cells of 8×16 pixels, two bytes per cell
// (character, attribute).
const (
	TextCols   = 80
	TextRows   = 25
	CellWidth  = 8
	CellHeight = 16
	TextBytes  = TextCols * TextRows * 2
)

// DefaultAttr is light grey on black.
const DefaultAttr = 0x07

var ega = palette.EGATable()

// RenderText clears dst to black and draws textmem centred on it. Cells that
// fall partly outside dst are skipped. A nil or short textmem draws only the
// cells it covers.
func RenderText(dst *rgb565.Image, textmem []byte) {
	dst.Fill(0)
	offX := (dst.Width() - TextCols*CellWidth) / 2
	offY := (dst.Height() - TextRows*CellHeight) / 2

	for i := 0; i+1 < len(textmem) && i < TextBytes; i += 2 {
		cell := i / 2
		x := offX + (cell%TextCols)*CellWidth
		y := offY + (cell/TextCols)*CellHeight
		if x < 0 || y < 0 || x+CellWidth > dst.Width() || y+CellHeight > dst.Height() {
			continue
		}
		attr := textmem[i+1]
		drawCell(dst, x, y, textmem[i], ega[attr&0x0F], ega[(attr>>4)&0x07])
	}
}

func drawCell(dst *rgb565.Image, x, y int, ch byte, fg, bg uint16) {
	fillRect(dst, x, y, CellWidth, CellHeight, bg)
	switch ch {
	case 0xDB: // full block
		fillRect(dst, x, y, CellWidth, CellHeight, fg)
	case 0xDC: // lower half
		fillRect(dst, x, y+CellHeight/2, CellWidth, CellHeight/2, fg)
	case 0xDF: // upper half
		fillRect(dst, x, y, CellWidth, CellHeight/2, fg)
	case 0xDD: // left half
		fillRect(dst, x, y, CellWidth/2, CellHeight, fg)
	case 0xDE: // right half
		fillRect(dst, x+CellWidth/2, y, CellWidth/2, CellHeight, fg)
	case 0xB0, 0xB1, 0xB2: // light, medium, dark shade
		shade(dst, x, y, int(ch-0xB0), fg)
	case 0x00, ' ', 0xFF:
	default:
		c := cellCanvas{dst: dst, x0: x, y0: y, c: fg}
		r, g, b := rgb565.Unpack(fg)
		tinyfont.DrawChar(&c, font6x8.Font, 1, 7, rune(ch), color.RGBA{R: r, G: g, B: b, A: 255})
	}
}

func fillRect(dst *rgb565.Image, x, y, w, h int, p uint16) {
	for yy := y; yy < y+h; yy++ {
		row := dst.Pix[dst.PixOffset(x, yy):]
		for xx := 0; xx < w; xx++ {
			row[xx] = p
		}
	}
}

// shade dithers a cell at one of three densities.
func shade(dst *rgb565.Image, x, y, level int, p uint16) {
	for yy := 0; yy < CellHeight; yy++ {
		for xx := 0; xx < CellWidth; xx++ {
			var on bool
			switch level {
			case 0:
				on = xx%2 == 0 && yy%4 == 0 || xx%2 == 1 && yy%4 == 2
			case 1:
				on = (xx+yy)%2 == 0
			default:
				on = !(xx%2 == 0 && yy%4 == 0 || xx%2 == 1 && yy%4 == 2)
			}
			if on {
				dst.SetRGB565(x+xx, y+yy, p)
			}
		}
	}
}

// cellCanvas exposes one text cell to tinyfont, doubling rows so the 6×8 font
// fills the 8×16 cell.
type cellCanvas struct {
	dst    *rgb565.Image
	x0, y0 int
	c      uint16
}

func (c *cellCanvas) Size() (x, y int16) { return CellWidth, CellHeight / 2 }

func (c *cellCanvas) SetPixel(x, y int16, _ color.RGBA) {
	if x < 0 || y < 0 || int(x) >= CellWidth || int(y) >= CellHeight/2 {
		return
	}
	px, py := c.x0+int(x), c.y0+int(y)*2
	c.dst.SetRGB565(px, py, c.c)
	c.dst.SetRGB565(px, py+1, c.c)
}

func (c *cellCanvas) Display() error { return nil }

// TextScreen lays lines out as text memory: each line centred horizontally,
// the block centred vertically, drawn in DefaultAttr. Lines longer than a row
// are cut.
func TextScreen(lines ...string) []byte {
	return TextScreenAttr(DefaultAttr, lines...)
}

// TextScreenAttr is TextScreen with an explicit attribute byte.
func TextScreenAttr(attr byte, lines ...string) []byte {
	mem := make([]byte, TextBytes)
	for i := 1; i < len(mem); i += 2 {
		mem[i] = attr
	}
	if len(lines) > TextRows {
		lines = lines[:TextRows]
	}
	top := (TextRows - len(lines)) / 2
	for n, line := range lines {
		if len(line) > TextCols {
			line = line[:TextCols]
		}
		left := (TextCols - len(line)) / 2
		row := (top + n) * TextCols
		for j := 0; j < len(line); j++ {
			mem[(row+left+j)*2] = line[j]
		}
	}
	return mem
}
