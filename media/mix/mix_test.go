package mix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"testing"

	"picoheld/media/ring"
	"picoheld/media/stream"
)

type recordSink struct {
	chunks  [][]byte
	volumes []uint8
	err     error
}

func (s *recordSink) Write(chunk []byte) error {
	s.chunks = append(s.chunks, append([]byte(nil), chunk...))
	return s.err
}

func (s *recordSink) SetVolume(v uint8) { s.volumes = append(s.volumes, v) }

type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *lineLog) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

type constMusic int16

func (c constMusic) Sample(dst []int16) {
	for i := range dst {
		dst[i] = int16(c)
	}
}

func TestSampleFormula(t *testing.T) {
	tests := []struct {
		game, music int16
		gain        int
		ratio       Ratio
		want        int16
	}{
		{800, 1600, 256, DefaultRatio, 1400},
		{-1, 0, 256, DefaultRatio, 0}, // -8/32 truncates toward zero
		{0, 1000, 128, DefaultRatio, 375},
		{0, -3, 128, DefaultRatio, 0},
		{32767, 32767, 256, DefaultRatio, 32767},
		{-32768, -32768, 256, DefaultRatio, -32768},
		{1000, 32767, 0, DefaultRatio, 250},
		{1000, 2000, 256, Ratio{Music: 1, Game: 1}, 1500},
		{1000, 2000, 256, Ratio{Music: 0, Game: 1}, 1000},
	}
	for _, tt := range tests {
		if got := Sample(tt.game, tt.music, tt.gain, tt.ratio); got != tt.want {
			t.Errorf("Sample(%d, %d, %d, %v) = %d, want %d", tt.game, tt.music, tt.gain, tt.ratio, got, tt.want)
		}
	}
}

// The same inputs always give the same output bytes.
func TestChunkDeterministic(t *testing.T) {
	game := make([]byte, 64)
	music := make([]int16, 32)
	for i := range music {
		binary.LittleEndian.PutUint16(game[i*2:], uint16(int16(i*977-15000)))
		music[i] = int16(i*-1231 + 20000)
	}

	a := make([]byte, len(game))
	b := make([]byte, len(game))
	Chunk(a, game, music, 200, DefaultRatio)
	Chunk(b, game, music, 200, DefaultRatio)
	if !bytes.Equal(a, b) {
		t.Fatal("mixing the same input twice differs")
	}
	for i := range music {
		g := int16(binary.LittleEndian.Uint16(game[i*2:]))
		m := int(music[i]) * 200 / 256
		want := int16((m*24 + int(g)*8) / 32)
		if got := int16(binary.LittleEndian.Uint16(a[i*2:])); got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func newTestMixer(t *testing.T, sink Sink, music stream.Sampler, log *lineLog) (*Mixer, *ring.Buffer, *Volume) {
	t.Helper()
	rb, err := ring.New(128)
	if err != nil {
		t.Fatal(err)
	}
	vol := NewVolume(200, UnityMusic)
	m, err := New(Config{Ring: rb, Music: music, Sink: sink, Volume: vol, Chunk: 16, Logger: log, SampleRate: 44100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, rb, vol
}

func TestCycleMixesRingAndMusic(t *testing.T) {
	sink := &recordSink{}
	log := &lineLog{}
	m, rb, _ := newTestMixer(t, sink, constMusic(3200), log)

	game := make([]byte, 16)
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint16(game[i*2:], uint16(0x10000-800))
	}
	if _, err := rb.Write(game); err != nil {
		t.Fatal(err)
	}

	if err := m.Cycle(); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if len(sink.chunks) != 1 || len(sink.chunks[0]) != 16 {
		t.Fatalf("sink got %d chunks", len(sink.chunks))
	}
	want := int16((3200*24 - 800*8) / 32)
	for i := 0; i < 8; i++ {
		if got := int16(binary.LittleEndian.Uint16(sink.chunks[0][i*2:])); got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
	if st := m.Stats(); st.UnderrunBytes != 0 || st.Cycles != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestCursorReturnsAfterFullRing(t *testing.T) {
	sink := &recordSink{}
	m, _, _ := newTestMixer(t, sink, stream.Silence{}, &lineLog{})
	for i := 0; i < 8; i++ {
		if err := m.Cycle(); err != nil {
			t.Fatal(err)
		}
	}
	if m.ReadOffset() != 0 {
		t.Fatalf("read offset = %d, want 0", m.ReadOffset())
	}
	if st := m.Stats(); st.UnderrunBytes != 128 {
		t.Fatalf("underrun = %d, want 128", st.UnderrunBytes)
	}
	for _, c := range sink.chunks {
		if !bytes.Equal(c, make([]byte, 16)) {
			t.Fatalf("underrun chunk not silent: %v", c)
		}
	}
}

func TestVolumeChangesAreForwardedAndLogged(t *testing.T) {
	sink := &recordSink{}
	log := &lineLog{}
	m, _, vol := newTestMixer(t, sink, nil, log)

	_ = m.Cycle()
	_ = m.Cycle()
	vol.SetMainFloat(0.5)
	_ = m.Cycle()

	if len(sink.volumes) != 2 || sink.volumes[0] != 200 || sink.volumes[1] != 128 {
		t.Fatalf("sink volumes = %v, want [200 128]", sink.volumes)
	}
	if m.Stats().VolumeSteps != 2 {
		t.Fatalf("volume steps = %d", m.Stats().VolumeSteps)
	}
	found := 0
	for _, l := range log.lines {
		if strings.HasPrefix(l, "mix: volume") {
			found++
		}
	}
	if found != 2 {
		t.Fatalf("logged %d volume lines: %q", found, log.lines)
	}
}

func TestSetRatio(t *testing.T) {
	sink := &recordSink{}
	m, _, _ := newTestMixer(t, sink, constMusic(1000), &lineLog{})
	if err := m.SetRatio(Ratio{}); !errors.Is(err, ErrRatio) {
		t.Fatalf("zero ratio err = %v", err)
	}
	if err := m.SetRatio(Ratio{Music: 1, Game: 0}); err != nil {
		t.Fatal(err)
	}
	_ = m.Cycle()
	if got := int16(binary.LittleEndian.Uint16(sink.chunks[0])); got != 1000 {
		t.Fatalf("music-only sample = %d, want 1000", got)
	}
}

func TestSinkErrorIsReported(t *testing.T) {
	sink := &recordSink{err: errors.New("i2s stalled")}
	m, _, _ := newTestMixer(t, sink, nil, &lineLog{})
	if err := m.Cycle(); err == nil || !strings.Contains(err.Error(), "i2s stalled") {
		t.Fatalf("Cycle err = %v", err)
	}
	if m.Stats().SinkErrors != 1 {
		t.Fatalf("sink errors = %d", m.Stats().SinkErrors)
	}
}

func TestNewRejectsBadChunk(t *testing.T) {
	rb, _ := ring.New(128)
	if _, err := New(Config{Ring: rb, Sink: &recordSink{}, Chunk: 24}); err == nil {
		t.Fatal("chunk 24 accepted for a 128-byte ring")
	}
	if _, err := New(Config{Ring: rb, Chunk: 16}); err == nil {
		t.Fatal("missing sink accepted")
	}
}

func TestVolumeClamp(t *testing.T) {
	v := NewVolume(0, 1000)
	if v.Music() != UnityMusic {
		t.Fatalf("music = %d, want %d", v.Music(), UnityMusic)
	}
	v.SetMusicFloat(2)
	if v.Music() != UnityMusic {
		t.Fatalf("music = %d", v.Music())
	}
	v.SetMainFloat(-1)
	if v.Main() != 0 {
		t.Fatalf("main = %d", v.Main())
	}
	v.SetMainFloat(1)
	if v.Main() != 255 {
		t.Fatalf("main = %d", v.Main())
	}
}

func TestParseRatio(t *testing.T) {
	r, err := ParseRatio("24:8")
	if err != nil || r != DefaultRatio {
		t.Fatalf("ParseRatio = %v, %v", r, err)
	}
	if _, err := ParseRatio("0:0"); !errors.Is(err, ErrRatio) {
		t.Fatalf("0:0 err = %v", err)
	}
	if _, err := ParseRatio("loud"); !errors.Is(err, ErrRatio) {
		t.Fatalf("garbage err = %v", err)
	}
}

func TestMeterRespondsToTone(t *testing.T) {
	var m Meter
	m.SetRate(44100)

	tone := stream.NewTone(1000, 44100, 16000)
	samples := make([]int16, 512)
	tone.Sample(samples)
	chunk := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(chunk[i*2:], uint16(v))
	}
	m.Update(chunk)

	lv := m.Levels()
	if lv[4] == 0 {
		t.Fatalf("1 kHz band silent: %v", lv)
	}
	if lv[4] <= lv[0] {
		t.Fatalf("1 kHz band %d not above 60 Hz band %d", lv[4], lv[0])
	}
}
