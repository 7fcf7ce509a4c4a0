// Package tea implements the TEA audio container: a 32-byte header followed
// by fixed-size blocks of PCM16 or IMA-ADPCM audio, mono or stereo.
//
// Sample counts in the header are per channel (frames). Stereo PCM16 blocks
// interleave L,R; stereo IMA-ADPCM blocks hold one channel sub-block after the
// other, left first.
package tea

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is "TEA1" read little-endian.
const Magic = 0x31414554

// HeaderSize is the fixed header length in bytes.
const HeaderSize = 32

const (
	CodecPCM16    = 0x01
	CodecIMAADPCM = 0x02
)

const (
	FlagLoopEnabled = 1 << 0
	FlagHasEvents   = 1 << 1
)

// MaxBlockBytes bounds block size so decoding needs no allocation per block.
const MaxBlockBytes = 4096

var (
	ErrMagic       = errors.New("tea: invalid magic")
	ErrShortHeader = errors.New("tea: header too short")
	ErrHeader      = errors.New("tea: invalid header")
	ErrUnsupported = errors.New("tea: unsupported codec")
)

// Header is the fixed 32-byte TEA file header.
type Header struct {
	Magic           uint32
	SampleRate      uint16
	Channels        uint8
	CodecID         uint8
	SamplesPerBlock uint16
	BlockSize       uint16
	TotalSamples    uint32
	Flags           uint16
	Reserved        [14]byte
}

// NewHeader fills in Magic and BlockSize for the given layout.
func NewHeader(codec uint8, sampleRate uint16, channels uint8, samplesPerBlock uint16, totalSamples uint32) (Header, error) {
	h := Header{
		Magic:           Magic,
		SampleRate:      sampleRate,
		Channels:        channels,
		CodecID:         codec,
		SamplesPerBlock: samplesPerBlock,
		TotalSamples:    totalSamples,
	}
	size, err := BlockSizeFor(codec, int(channels), int(samplesPerBlock))
	if err != nil {
		return Header{}, err
	}
	if size > MaxBlockBytes {
		return Header{}, fmt.Errorf("%w: block of %d bytes exceeds %d", ErrHeader, size, MaxBlockBytes)
	}
	h.BlockSize = uint16(size)
	return h, h.Validate()
}

// BlockSizeFor returns the encoded size of one block.
func BlockSizeFor(codec uint8, channels, samplesPerBlock int) (int, error) {
	if channels < 1 || channels > 2 || samplesPerBlock < 1 {
		return 0, fmt.Errorf("%w: %d channels, %d samples per block", ErrHeader, channels, samplesPerBlock)
	}
	switch codec {
	case CodecPCM16:
		return samplesPerBlock * 2 * channels, nil
	case CodecIMAADPCM:
		return channels * imaBlockBytes(samplesPerBlock), nil
	default:
		return 0, ErrUnsupported
	}
}

// ParseHeader decodes and validates a header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	le := binary.LittleEndian
	h := Header{
		Magic:           le.Uint32(data[0:4]),
		SampleRate:      le.Uint16(data[4:6]),
		Channels:        data[6],
		CodecID:         data[7],
		SamplesPerBlock: le.Uint16(data[8:10]),
		BlockSize:       le.Uint16(data[10:12]),
		TotalSamples:    le.Uint32(data[12:16]),
		Flags:           le.Uint16(data[16:18]),
	}
	copy(h.Reserved[:], data[18:32])
	return h, h.Validate()
}

// MarshalBinary encodes the header.
func (h Header) MarshalBinary() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	b := make([]byte, HeaderSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:4], h.Magic)
	le.PutUint16(b[4:6], h.SampleRate)
	b[6] = h.Channels
	b[7] = h.CodecID
	le.PutUint16(b[8:10], h.SamplesPerBlock)
	le.PutUint16(b[10:12], h.BlockSize)
	le.PutUint32(b[12:16], h.TotalSamples)
	le.PutUint16(b[16:18], h.Flags)
	copy(b[18:32], h.Reserved[:])
	return b, nil
}

// Validate checks the header invariants.
func (h Header) Validate() error {
	if h.Magic != Magic {
		return ErrMagic
	}
	switch {
	case h.SampleRate == 0:
		return fmt.Errorf("%w: zero sample rate", ErrHeader)
	case h.Channels != 1 && h.Channels != 2:
		return fmt.Errorf("%w: %d channels", ErrHeader, h.Channels)
	case h.SamplesPerBlock == 0:
		return fmt.Errorf("%w: zero samples per block", ErrHeader)
	case h.TotalSamples == 0:
		return fmt.Errorf("%w: zero total samples", ErrHeader)
	}
	for _, b := range h.Reserved {
		if b != 0 {
			return fmt.Errorf("%w: reserved bytes set", ErrHeader)
		}
	}
	want, err := BlockSizeFor(h.CodecID, int(h.Channels), int(h.SamplesPerBlock))
	if err != nil {
		return err
	}
	if int(h.BlockSize) != want {
		return fmt.Errorf("%w: block size %d, want %d", ErrHeader, h.BlockSize, want)
	}
	return nil
}

// Blocks returns the number of blocks in the stream.
func (h Header) Blocks() uint32 {
	spb := uint32(h.SamplesPerBlock)
	return (h.TotalSamples + spb - 1) / spb
}

// Loop reports whether the stream asks to be looped.
func (h Header) Loop() bool { return h.Flags&FlagLoopEnabled != 0 }
