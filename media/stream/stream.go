// Package stream provides the pull-based secondary audio stream the mixer
// blends with the producer's buffer.
//
// Every Sampler produces interleaved stereo int16. Sample never fails: a
// source that is exhausted or broken yields silence so the mixer keeps its
// cadence.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
)

// Channels is the interleaved channel count of every Sampler.
const Channels = 2

// Sampler fills dst with interleaved stereo samples.
type Sampler interface {
	Sample(dst []int16)
}

// Silence is a Sampler of zeros.
type Silence struct{}

func (Silence) Sample(dst []int16) { clear(dst) }

// Tone is a test signal at a fixed frequency.
type Tone struct {
	Freq   float64
	Rate   uint32
	Amp    int16
	Square bool

	phase float64
}

func NewTone(freq float64, rate uint32, amp int16) *Tone {
	return &Tone{Freq: freq, Rate: rate, Amp: amp}
}

func (t *Tone) Sample(dst []int16) {
	if t.Rate == 0 {
		clear(dst)
		return
	}
	step := t.Freq / float64(t.Rate)
	for i := 0; i+1 < len(dst); i += Channels {
		var v int16
		if t.Square {
			if t.phase < 0.5 {
				v = t.Amp
			} else {
				v = -t.Amp
			}
		} else {
			v = int16(float64(t.Amp) * math.Sin(2*math.Pi*t.phase))
		}
		dst[i] = v
		dst[i+1] = v
		t.phase += step
		if t.phase >= 1 {
			t.phase -= math.Floor(t.phase)
		}
	}
	if len(dst)%Channels == 1 {
		dst[len(dst)-1] = 0
	}
}

// PCMReader samples little-endian interleaved stereo int16 from r.
type PCMReader struct {
	r   io.Reader
	buf []byte
	err error
}

func NewPCMReader(r io.Reader) *PCMReader {
	return &PCMReader{r: r}
}

func (p *PCMReader) Sample(dst []int16) {
	n := p.read(dst)
	clear(dst[n:])
}

// read fills dst from the source and returns how many samples it wrote.
func (p *PCMReader) read(dst []int16) int {
	if p.err != nil {
		return 0
	}
	need := len(dst) * 2
	if cap(p.buf) < need {
		p.buf = make([]byte, need)
	}
	buf := p.buf[:need]

	var n int
	n, p.err = io.ReadFull(p.r, buf)
	if errors.Is(p.err, io.ErrUnexpectedEOF) {
		p.err = io.EOF
	}
	n /= 2
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return n
}

// Err returns the error that ended the stream, or nil while it is live.
func (p *PCMReader) Err() error { return p.err }

// Done reports whether the reader has been exhausted.
func (p *PCMReader) Done() bool { return p.err != nil }

// Loop replays a seekable PCM source from the beginning whenever it runs out.
type Loop struct {
	src io.ReadSeeker
	pcm *PCMReader
}

func NewLoop(src io.ReadSeeker) *Loop {
	return &Loop{src: src, pcm: NewPCMReader(src)}
}

func (l *Loop) Sample(dst []int16) {
	filled := 0
	rewound := false
	for filled < len(dst) {
		n := l.pcm.read(dst[filled:])
		filled += n
		if filled == len(dst) {
			return
		}
		if !errors.Is(l.pcm.Err(), io.EOF) || (rewound && n == 0) {
			break
		}
		if _, err := l.src.Seek(0, io.SeekStart); err != nil {
			break
		}
		l.pcm = NewPCMReader(l.src)
		rewound = true
	}
	clear(dst[filled:])
}

// Switch is a Sampler whose source can be replaced while the mixer runs.
type Switch struct {
	mu  sync.Mutex
	cur Sampler
}

func NewSwitch(s Sampler) *Switch {
	if s == nil {
		s = Silence{}
	}
	return &Switch{cur: s}
}

// Set replaces the source and returns the previous one. It waits for a Sample
// in progress, so once it returns the previous source is no longer read and
// may be closed.
func (s *Switch) Set(next Sampler) Sampler {
	if next == nil {
		next = Silence{}
	}
	s.mu.Lock()
	prev := s.cur
	s.cur = next
	s.mu.Unlock()
	return prev
}

func (s *Switch) Sample(dst []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Sample(dst)
}
