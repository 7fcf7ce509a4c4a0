package palette

// EGA is the fixed 16-colour text-mode palette, packed R,G,B.
var EGA = [16 * 3]byte{
	0x00, 0x00, 0x00, // black
	0x00, 0x00, 0xAA, // blue
	0x00, 0xAA, 0x00, // green
	0x00, 0xAA, 0xAA, // cyan
	0xAA, 0x00, 0x00, // red
	0xAA, 0x00, 0xAA, // magenta
	0xAA, 0x55, 0x00, // brown
	0xAA, 0xAA, 0xAA, // light grey
	0x55, 0x55, 0x55, // dark grey
	0x55, 0x55, 0xFF, // light blue
	0x55, 0xFF, 0x55, // light green
	0x55, 0xFF, 0xFF, // light cyan
	0xFF, 0x55, 0x55, // light red
	0xFF, 0x55, 0xFF, // light magenta
	0xFF, 0xFF, 0x55, // yellow
	0xFF, 0xFF, 0xFF, // white
}

// EGATable returns the EGA colours as a display table. Entries past 15 are
// black.
func EGATable() *Table {
	return FromRGB24(EGA[:])
}
