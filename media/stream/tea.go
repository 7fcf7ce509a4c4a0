package stream

import (
	"errors"
	"io"

	"picoheld/media/tea"
)

// OpenTEA streams a TEA file. The stream loops when loop is set or the file
// carries the loop flag.
func OpenTEA(r io.ReadSeeker, loop bool) (*Source, error) {
	dec, err := tea.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	loop = loop || dec.Header.Loop()

	ch := int(dec.Header.Channels)
	bs := &blockSampler{channels: ch, buf: make([]int16, dec.FrameLen())}
	bs.fill = func(buf []int16) int {
		for rewound := false; ; rewound = true {
			n, err := dec.DecodeBlock(buf)
			if err == nil && n > 0 {
				return n * ch
			}
			if !errors.Is(err, io.EOF) || !loop || rewound {
				return 0
			}
			if dec.Rewind() != nil {
				return 0
			}
		}
	}
	return &Source{
		Sampler: bs,
		Rate:    uint32(dec.Header.SampleRate),
		Format:  "tea",
	}, nil
}
