package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFramesPerRead = 1024

// OpenWAV streams an uncompressed PCM WAV file of 8, 16, 24 or 32 bit
// samples, mono or stereo.
func OpenWAV(r io.ReadSeeker, loop bool) (*Source, error) {
	dec, err := openWAVDecoder(r)
	if err != nil {
		return nil, err
	}
	ch := int(dec.NumChans)
	depth := int(dec.BitDepth)
	rate := dec.SampleRate

	ib := &audio.IntBuffer{
		Format:         dec.Format(),
		Data:           make([]int, wavFramesPerRead*ch),
		SourceBitDepth: depth,
	}
	bs := &blockSampler{channels: ch, buf: make([]int16, wavFramesPerRead*ch)}
	bs.fill = func(buf []int16) int {
		for rewound := false; ; rewound = true {
			n, err := dec.PCMBuffer(ib)
			if n > 0 {
				for i, v := range ib.Data[:n] {
					buf[i] = ToInt16(v, depth)
				}
				return n
			}
			if (err != nil && !errors.Is(err, io.EOF)) || !loop || rewound {
				return 0
			}
			// Rewinding the riff parser mid-chunk is unreliable; start over
			// with a fresh decoder instead.
			if _, err := r.Seek(0, io.SeekStart); err != nil {
				return 0
			}
			if dec, err = openWAVDecoder(r); err != nil {
				return 0
			}
		}
	}
	return &Source{Sampler: bs, Rate: rate, Format: "wav"}, nil
}

func openWAVDecoder(r io.ReadSeeker) (*wav.Decoder, error) {
	dec := wav.NewDecoder(r)
	if dec == nil || !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: not a valid wav file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("wav: only PCM is supported (format=%d)", dec.WavAudioFormat)
	}
	if dec.NumChans < 1 || dec.NumChans > 2 {
		return nil, fmt.Errorf("wav: %d channels", dec.NumChans)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("wav: %d-bit samples", dec.BitDepth)
	}
	return dec, nil
}

// ToInt16 narrows an integer WAV sample of the given bit depth to 16 bits.
// 8-bit WAV samples are unsigned.
func ToInt16(v, depth int) int16 {
	switch depth {
	case 8:
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	default:
		return int16(v)
	}
}
