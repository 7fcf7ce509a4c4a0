//go:build !tinygo

package hal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVRecorder tees every chunk written to it into a 16-bit stereo WAV file and
// then forwards it to the next sink. A nil next sink records only, with no
// pacing. If next fails to start, recording goes on paced by a NullAudio and
// the failure is kept for DeviceErr.
type WAVRecorder struct {
	mu        sync.Mutex
	path      string
	next      AudioOut
	deviceErr error

	f   *os.File
	enc *wav.Encoder
	buf *audio.IntBuffer
}

func NewWAVRecorder(path string, next AudioOut) *WAVRecorder {
	return &WAVRecorder{path: path, next: next}
}

func (r *WAVRecorder) Start(sampleRate uint32) error {
	if sampleRate == 0 {
		return errors.New("wav recorder: invalid sample rate")
	}
	r.mu.Lock()
	if r.enc == nil {
		f, err := os.Create(r.path)
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("wav recorder: %w", err)
		}
		r.f = f
		r.enc = wav.NewEncoder(f, int(sampleRate), 16, 2, 1)
		r.buf = &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: int(sampleRate)},
			SourceBitDepth: 16,
		}
	}
	r.mu.Unlock()

	if r.next == nil {
		return nil
	}
	if err := r.next.Start(sampleRate); err != nil {
		r.next.Close()
		null := NewNullAudio()
		if nerr := null.Start(sampleRate); nerr != nil {
			return nerr
		}
		r.mu.Lock()
		r.next = null
		r.deviceErr = err
		r.mu.Unlock()
	}
	return nil
}

// DeviceErr is the error the next sink failed to start with, if any.
func (r *WAVRecorder) DeviceErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceErr
}

func (r *WAVRecorder) Write(chunk []byte) error {
	r.mu.Lock()
	if r.enc == nil {
		r.mu.Unlock()
		return errNotStarted
	}
	n := len(chunk) / 2
	if cap(r.buf.Data) < n {
		r.buf.Data = make([]int, n)
	}
	r.buf.Data = r.buf.Data[:n]
	for i := range r.buf.Data {
		r.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(chunk[i*2:])))
	}
	err := r.enc.Write(r.buf)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("wav recorder: %w", err)
	}

	if r.next != nil {
		return r.next.Write(chunk)
	}
	return nil
}

func (r *WAVRecorder) SetVolume(vol uint8) {
	if r.next != nil {
		r.next.SetVolume(vol)
	}
}

// Close finalises the WAV header and closes the next sink.
func (r *WAVRecorder) Close() error {
	r.mu.Lock()
	var err error
	if r.enc != nil {
		err = r.enc.Close()
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.enc, r.f = nil, nil
	}
	r.mu.Unlock()

	if r.next != nil {
		if nerr := r.next.Close(); err == nil {
			err = nerr
		}
	}
	return err
}
