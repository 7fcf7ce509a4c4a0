package present

import (
	"testing"

	"picoheld/media/palette"
	"picoheld/media/rgb565"
)

func cellHas(img *rgb565.Image, col, row int, p uint16) bool {
	x0 := (img.Width()-TextCols*CellWidth)/2 + col*CellWidth
	y0 := (img.Height()-TextRows*CellHeight)/2 + row*CellHeight
	for y := y0; y < y0+CellHeight; y++ {
		for x := x0; x < x0+CellWidth; x++ {
			if img.Pix[img.PixOffset(x, y)] == p {
				return true
			}
		}
	}
	return false
}

func TestTextScreenCentres(t *testing.T) {
	mem := TextScreen("AB")
	if len(mem) != TextBytes {
		t.Fatalf("len = %d", len(mem))
	}
	row := (TextRows - 1) / 2
	at := (row*TextCols + 39) * 2
	if mem[at] != 'A' || mem[at+2] != 'B' || mem[at+1] != DefaultAttr {
		t.Fatalf("cells = %q attr %#x", mem[at:at+4], mem[at+1])
	}
}

func TestRenderTextFullSize(t *testing.T) {
	img := rgb565.New(TextCols*CellWidth, TextRows*CellHeight)
	mem := make([]byte, TextBytes)
	// Yellow full block on blue at (0,0); white 'H' on red at (79,24).
	mem[0], mem[1] = 0xDB, 0x1E
	last := (TextRows*TextCols - 1) * 2
	mem[last], mem[last+1] = 'H', 0x4F

	RenderText(img, mem)
	ega := palette.EGATable()

	if img.Pix[0] != ega[14] || img.Pix[img.PixOffset(7, 15)] != ega[14] {
		t.Fatalf("full block not yellow: %#04x", img.Pix[0])
	}
	if !cellHas(img, 79, 24, ega[15]) || !cellHas(img, 79, 24, ega[4]) {
		t.Fatal("'H' cell missing foreground or background")
	}
	if cellHas(img, 40, 12, ega[15]) {
		t.Fatal("blank cell has foreground pixels")
	}
}

func TestRenderTextSkipsEdgeCells(t *testing.T) {
	img := rgb565.New(316, 320)
	img.Fill(0xFFFF)
	mem := make([]byte, TextBytes)
	for i := 0; i < len(mem); i += 2 {
		mem[i], mem[i+1] = 0xDB, 0x0F
	}
	RenderText(img, mem)

	white := palette.EGATable()[15]
	// Columns start at x=-162 and rows at y=-40: column 21 and row 3 are the
	// first fully visible cells, column 58 the last.
	for _, tt := range []struct {
		x, y int
		want uint16
	}{
		{6, 8, white},
		{309, 100, white},
		{5, 8, 0},     // column 20 crosses the left edge
		{6, 7, 0},     // row 2 crosses the top edge
		{315, 100, 0}, // column 59 crosses the right edge
	} {
		if got := img.Pix[img.PixOffset(tt.x, tt.y)]; got != tt.want {
			t.Errorf("pixel (%d,%d) = %#04x, want %#04x", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderNilClears(t *testing.T) {
	img := rgb565.New(16, 16)
	img.Fill(0x1234)
	RenderText(img, nil)
	for _, p := range img.Pix {
		if p != 0 {
			t.Fatal("nil text memory left pixels behind")
		}
	}
}
