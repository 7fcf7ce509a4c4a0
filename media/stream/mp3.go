package stream

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// OpenMP3 streams an MP3. The decoder always produces 16-bit stereo, even
// for mono sources, so it feeds a PCMReader directly. Looping needs r to be
// seekable.
func OpenMP3(r io.Reader, loop bool) (*Source, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	var s Sampler = NewPCMReader(dec)
	if loop {
		if _, ok := r.(io.Seeker); ok {
			s = NewLoop(dec)
		}
	}
	return &Source{Sampler: s, Rate: uint32(dec.SampleRate()), Format: "mp3"}, nil
}
