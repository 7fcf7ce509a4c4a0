package hal

import "picoheld/media/rgb565"

// expandRGBA writes src as 8-bit RGBA into dst, which must hold
// 4*width*height bytes.
func expandRGBA(dst []byte, src *rgb565.Image) {
	w, h := src.Width(), src.Height()
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		out := dst[y*w*4 : (y+1)*w*4]
		for x, p := range row {
			r, g, b := rgb565.Unpack(p)
			j := x * 4
			out[j+0] = r
			out[j+1] = g
			out[j+2] = b
			out[j+3] = 0xFF
		}
	}
}

// swapBytes copies src into dst as big-endian RGB565, the order SPI panels
// expect.
func swapBytes(dst []byte, src []uint16) int {
	n := 0
	for _, p := range src {
		if n+1 >= len(dst) {
			break
		}
		dst[n] = byte(p >> 8)
		dst[n+1] = byte(p)
		n += 2
	}
	return n
}
