package tea

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeBlock encodes up to SamplesPerBlock interleaved frames into dst,
// which must be BlockSize long. A short final block is padded by repeating
// the last frame.
func EncodeBlock(h Header, frames []int16, dst []byte) error {
	if len(dst) != int(h.BlockSize) {
		return fmt.Errorf("tea: dst is %d bytes, want %d", len(dst), h.BlockSize)
	}
	spb := int(h.SamplesPerBlock)
	ch := int(h.Channels)
	n := len(frames) / ch
	if n > spb {
		n = spb
	}

	switch h.CodecID {
	case CodecPCM16:
		for i := 0; i < spb; i++ {
			src := i
			if src >= n {
				src = n - 1
			}
			for c := 0; c < ch; c++ {
				var v int16
				if src >= 0 {
					v = frames[src*ch+c]
				}
				binary.LittleEndian.PutUint16(dst[(i*ch+c)*2:], uint16(v))
			}
		}
	case CodecIMAADPCM:
		sub := imaBlockBytes(spb)
		for c := 0; c < ch; c++ {
			var in []int16
			if n > 0 {
				in = frames[c : (n-1)*ch+c+1]
			}
			if err := encodeIMAChannel(in, ch, spb, dst[c*sub:(c+1)*sub]); err != nil {
				return err
			}
		}
	default:
		return ErrUnsupported
	}
	return nil
}

// Encoder writes a TEA stream block by block.
type Encoder struct {
	w     io.Writer
	h     Header
	block []byte
	n     uint32
}

// NewEncoder writes the header and returns an encoder for its blocks.
func NewEncoder(w io.Writer, h Header) (*Encoder, error) {
	raw, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("tea: write header: %w", err)
	}
	return &Encoder{w: w, h: h, block: make([]byte, h.BlockSize)}, nil
}

// Write encodes interleaved frames, one block per SamplesPerBlock frames.
// Only the final call may end in a partial block.
func (e *Encoder) Write(frames []int16) error {
	per := int(e.h.SamplesPerBlock) * int(e.h.Channels)
	for len(frames) > 0 {
		if e.n >= e.h.TotalSamples {
			return fmt.Errorf("tea: more than %d frames", e.h.TotalSamples)
		}
		chunk := frames
		if len(chunk) > per {
			chunk = chunk[:per]
		}
		if err := EncodeBlock(e.h, chunk, e.block); err != nil {
			return err
		}
		if _, err := e.w.Write(e.block); err != nil {
			return fmt.Errorf("tea: write block: %w", err)
		}
		e.n += uint32(len(chunk) / int(e.h.Channels))
		frames = frames[len(chunk):]
	}
	return nil
}
