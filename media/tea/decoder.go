package tea

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrOutTooSmall = errors.New("tea: output buffer too small")

// Decoder reads TEA blocks and decodes them to interleaved PCM16.
//
// DecodeBlock performs no heap allocations.
type Decoder struct {
	r      io.ReadSeeker
	Header Header

	pos   uint32 // frames decoded so far
	block [MaxBlockBytes]byte
}

// NewDecoder reads and validates the header.
func NewDecoder(r io.ReadSeeker) (*Decoder, error) {
	if r == nil {
		return nil, errors.New("tea: nil reader")
	}
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, fmt.Errorf("tea: read header: %w", err)
	}
	h, err := ParseHeader(raw[:])
	if err != nil {
		return nil, err
	}
	if int(h.BlockSize) > MaxBlockBytes {
		return nil, fmt.Errorf("%w: block of %d bytes exceeds %d", ErrHeader, h.BlockSize, MaxBlockBytes)
	}
	return &Decoder{r: r, Header: h}, nil
}

// FrameLen is the number of int16 values DecodeBlock needs in out.
func (d *Decoder) FrameLen() int {
	return int(d.Header.SamplesPerBlock) * int(d.Header.Channels)
}

// Position returns the number of frames decoded since the start.
func (d *Decoder) Position() uint32 { return d.pos }

// SeekToBlock positions the decoder at block index i.
func (d *Decoder) SeekToBlock(i uint32) error {
	off := int64(HeaderSize) + int64(i)*int64(d.Header.BlockSize)
	if _, err := d.r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("tea: seek: %w", err)
	}
	d.pos = i * uint32(d.Header.SamplesPerBlock)
	if d.pos > d.Header.TotalSamples {
		d.pos = d.Header.TotalSamples
	}
	return nil
}

// Rewind returns to the first block.
func (d *Decoder) Rewind() error { return d.SeekToBlock(0) }

// DecodeBlock decodes the next block into out and returns the number of
// frames written. The last block is trimmed to TotalSamples. At the end of
// the stream it returns io.EOF.
func (d *Decoder) DecodeBlock(out []int16) (int, error) {
	if d.pos >= d.Header.TotalSamples {
		return 0, io.EOF
	}
	if len(out) < d.FrameLen() {
		return 0, ErrOutTooSmall
	}

	block := d.block[:d.Header.BlockSize]
	if _, err := io.ReadFull(d.r, block); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("tea: read block: %w", err)
	}

	spb := int(d.Header.SamplesPerBlock)
	ch := int(d.Header.Channels)
	switch d.Header.CodecID {
	case CodecPCM16:
		for i := 0; i < spb*ch; i++ {
			out[i] = int16(binary.LittleEndian.Uint16(block[i*2:]))
		}
	case CodecIMAADPCM:
		sub := imaBlockBytes(spb)
		for c := 0; c < ch; c++ {
			if err := decodeIMAChannel(block[c*sub:(c+1)*sub], spb, out[c:], ch); err != nil {
				return 0, err
			}
		}
	default:
		return 0, ErrUnsupported
	}

	n := spb
	if remain := int(d.Header.TotalSamples - d.pos); remain < n {
		n = remain
	}
	d.pos += uint32(n)
	return n, nil
}
