package stream

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultRate is assumed for headerless .pcm/.raw files.
const DefaultRate = 44100

// Source is an opened music stream.
type Source struct {
	Sampler
	Rate   uint32
	Format string

	closer io.Closer
}

// Close releases the underlying file, if any.
func (s *Source) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open opens a music file and picks the decoder by extension: .tea, .mp3,
// .wav, or .pcm/.raw for headerless s16le stereo.
func Open(path string, loop bool) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	var src *Source
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".tea":
		src, err = OpenTEA(f, loop)
	case ".mp3":
		src, err = OpenMP3(f, loop)
	case ".wav":
		src, err = OpenWAV(f, loop)
	case ".pcm", ".raw":
		var s Sampler = NewPCMReader(f)
		if loop {
			s = NewLoop(f)
		}
		src = &Source{Sampler: s, Rate: DefaultRate, Format: "pcm"}
	default:
		err = fmt.Errorf("unknown format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stream: open %s: %w", path, err)
	}
	src.closer = f
	return src, nil
}
