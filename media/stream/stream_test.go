package stream

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"picoheld/media/tea"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func s16le(vals ...int16) []byte {
	b := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func equal(t *testing.T, got, want []int16) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSilence(t *testing.T) {
	dst := []int16{1, 2, 3, 4}
	Silence{}.Sample(dst)
	equal(t, dst, []int16{0, 0, 0, 0})
}

func TestSquareTone(t *testing.T) {
	tone := &Tone{Freq: 1, Rate: 4, Amp: 1000, Square: true}
	dst := make([]int16, 8)
	tone.Sample(dst)
	equal(t, dst, []int16{1000, 1000, 1000, 1000, -1000, -1000, -1000, -1000})
}

func TestPCMReaderPadsWithSilence(t *testing.T) {
	p := NewPCMReader(bytes.NewReader(s16le(1, -1, 2, -2, 3)))
	dst := make([]int16, 4)
	p.Sample(dst)
	equal(t, dst, []int16{1, -1, 2, -2})
	p.Sample(dst)
	equal(t, dst, []int16{3, 0, 0, 0})
	if !p.Done() {
		t.Fatal("reader not done after EOF")
	}
	p.Sample(dst)
	equal(t, dst, []int16{0, 0, 0, 0})
}

func TestLoopRewinds(t *testing.T) {
	l := NewLoop(bytes.NewReader(s16le(1, 2, 3, 4, 5, 6)))
	dst := make([]int16, 4)
	l.Sample(dst)
	equal(t, dst, []int16{1, 2, 3, 4})
	l.Sample(dst)
	equal(t, dst, []int16{5, 6, 1, 2})
	l.Sample(dst)
	equal(t, dst, []int16{3, 4, 5, 6})
}

func TestLoopEmptySourceIsSilent(t *testing.T) {
	l := NewLoop(bytes.NewReader(nil))
	dst := []int16{9, 9}
	l.Sample(dst)
	equal(t, dst, []int16{0, 0})
}

func TestSwitch(t *testing.T) {
	s := NewSwitch(nil)
	dst := make([]int16, 2)
	s.Sample(dst)
	equal(t, dst, []int16{0, 0})

	s.Set(&Tone{Freq: 1, Rate: 2, Amp: 5, Square: true})
	s.Sample(dst)
	equal(t, dst, []int16{5, 5})
}

// gatedSampler blocks in Sample until release is closed and records whether
// it was closed while sampling.
type gatedSampler struct {
	entered chan struct{}
	release chan struct{}
	closed  atomic.Bool
	torn    atomic.Bool
}

func (g *gatedSampler) Sample(dst []int16) {
	close(g.entered)
	<-g.release
	if g.closed.Load() {
		g.torn.Store(true)
	}
	clear(dst)
}

func TestSwitchSetWaitsForSample(t *testing.T) {
	g := &gatedSampler{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSwitch(g)
	go s.Sample(make([]int16, 2))
	<-g.entered

	set := make(chan Sampler, 1)
	go func() {
		prev := s.Set(Silence{})
		g.closed.Store(true)
		set <- prev
	}()
	select {
	case <-set:
		t.Fatal("Set returned while the old source was still sampling")
	case <-time.After(20 * time.Millisecond):
	}

	close(g.release)
	select {
	case prev := <-set:
		if prev != Sampler(g) {
			t.Fatalf("Set returned %v, want the gated source", prev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Set still blocked after Sample finished")
	}
	if g.torn.Load() {
		t.Fatal("source closed during Sample")
	}
}

func TestTEAMonoIsDuplicatedAndLoops(t *testing.T) {
	h, err := tea.NewHeader(tea.CodecPCM16, 8000, 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	enc, err := tea.NewEncoder(&buf, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Write([]int16{10, 20, 30}); err != nil {
		t.Fatal(err)
	}

	src, err := OpenTEA(bytes.NewReader(buf.Bytes()), true)
	if err != nil {
		t.Fatalf("OpenTEA: %v", err)
	}
	if src.Rate != 8000 {
		t.Fatalf("rate = %d", src.Rate)
	}
	dst := make([]int16, 10)
	src.Sample(dst)
	equal(t, dst, []int16{10, 10, 20, 20, 30, 30, 10, 10, 20, 20})
}

func TestTEAEndsInSilence(t *testing.T) {
	h, _ := tea.NewHeader(tea.CodecPCM16, 8000, 2, 2, 2)
	var buf bytes.Buffer
	enc, _ := tea.NewEncoder(&buf, h)
	_ = enc.Write([]int16{1, 2, 3, 4})

	src, err := OpenTEA(bytes.NewReader(buf.Bytes()), false)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]int16, 6)
	src.Sample(dst)
	equal(t, dst, []int16{1, 2, 3, 4, 0, 0})
}

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("wav write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("wav close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "music.wav")
	writeWAV(t, path, 22050, 1, []int{100, -200, 300})

	src, err := Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	if src.Rate != 22050 || src.Format != "wav" {
		t.Fatalf("rate=%d format=%s", src.Rate, src.Format)
	}
	dst := make([]int16, 8)
	src.Sample(dst)
	equal(t, dst, []int16{100, 100, -200, -200, 300, 300, 0, 0})
}

func TestOpenWAVLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.wav")
	writeWAV(t, path, 44100, 2, []int{1, 2, 3, 4})

	src, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	dst := make([]int16, 8)
	src.Sample(dst)
	equal(t, dst, []int16{1, 2, 3, 4, 1, 2, 3, 4})
}

func TestOpenUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "music.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, false); err == nil {
		t.Fatal("Open(.ogg) succeeded")
	}
}

func TestOpenRawPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "music.pcm")
	if err := os.WriteFile(path, s16le(7, 8), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := Open(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	dst := make([]int16, 4)
	src.Sample(dst)
	equal(t, dst, []int16{7, 8, 7, 8})
	if src.Rate != DefaultRate {
		t.Fatalf("rate = %d", src.Rate)
	}
}
