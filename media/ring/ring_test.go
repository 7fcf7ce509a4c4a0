package ring

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func TestNewRejectsBadCapacity(t *testing.T) {
	for _, c := range []int{0, 64, 100, 1000, -128} {
		if _, err := New(c); !errors.Is(err, ErrCapacity) {
			t.Errorf("New(%d) err = %v, want ErrCapacity", c, err)
		}
	}
	if _, err := New(128); err != nil {
		t.Fatalf("New(128): %v", err)
	}
}

func TestChunkFor(t *testing.T) {
	if got, err := ChunkFor(16384, 8); err != nil || got != 2048 {
		t.Fatalf("ChunkFor(16384, 8) = %d, %v", got, err)
	}
	for _, tc := range [][2]int{{16384, 0}, {16384, 1}, {16384, -8}, {16384, 3}, {128, 64}} {
		if _, err := ChunkFor(tc[0], tc[1]); !errors.Is(err, ErrChunk) {
			t.Errorf("ChunkFor(%d, %d) err = %v", tc[0], tc[1], err)
		}
	}
}

func TestCursorWrapsAfterFullCycle(t *testing.T) {
	b, err := New(16384)
	if err != nil {
		t.Fatal(err)
	}
	chunk := make([]byte, 2048)
	for i := 0; i < 8; i++ {
		if i > 0 && b.ReadOffset() == 0 {
			t.Fatalf("cursor back at 0 after only %d cycles", i)
		}
		b.ReadChunk(chunk)
	}
	if off := b.ReadOffset(); off != 0 {
		t.Fatalf("read offset after 8 cycles = %d, want 0", off)
	}
	if st := b.Stats(); st.Underrun != 16384 || st.Read != 0 {
		t.Fatalf("stats = %+v, want 16384 underrun bytes and none read", st)
	}
}

func TestWriteReadOrder(t *testing.T) {
	b, _ := New(128)
	in := make([]byte, 100)
	for i := range in {
		in[i] = byte(i + 1)
	}
	if n, err := b.Write(in); n != 100 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if b.Available() != 100 || b.Free() != 28 {
		t.Fatalf("available=%d free=%d", b.Available(), b.Free())
	}

	out := make([]byte, 64)
	if u := b.ReadChunk(out); u != 0 {
		t.Fatalf("underrun = %d", u)
	}
	if !bytes.Equal(out, in[:64]) {
		t.Fatalf("first chunk = %v", out)
	}

	// Second write wraps past the end of the backing array.
	more := bytes.Repeat([]byte{0xAA}, 60)
	if n, err := b.Write(more); n != 60 || err != nil {
		t.Fatalf("wrapping Write = %d, %v", n, err)
	}
	if u := b.ReadChunk(out); u != 0 {
		t.Fatalf("underrun = %d", u)
	}
	if !bytes.Equal(out[:36], in[64:]) || !bytes.Equal(out[36:], more[:28]) {
		t.Fatalf("second chunk = %v", out)
	}
}

func TestUnderrunReadsSilenceAndResyncs(t *testing.T) {
	b, _ := New(128)
	b.Write([]byte{1, 2, 3, 4})

	out := bytes.Repeat([]byte{0xFF}, 32)
	if u := b.ReadChunk(out); u != 28 {
		t.Fatalf("underrun = %d, want 28", u)
	}
	if !bytes.Equal(out[:4], []byte{1, 2, 3, 4}) || !bytes.Equal(out[4:], make([]byte, 28)) {
		t.Fatalf("chunk = %v", out)
	}

	// The producer's next bytes land at the read cursor, not in the gap it
	// missed.
	b.Write([]byte{9, 9, 9, 9})
	if u := b.ReadChunk(out); u != 28 || out[0] != 9 {
		t.Fatalf("after resync: underrun = %d, first byte = %d", u, out[0])
	}
}

func TestOverflowDropsAndReports(t *testing.T) {
	b, _ := New(128)
	n, err := b.Write(make([]byte, 200))
	if n != 128 || !errors.Is(err, ErrOverflow) {
		t.Fatalf("Write = %d, %v; want 128, ErrOverflow", n, err)
	}
	if st := b.Stats(); st.Overflow != 72 || st.Written != 128 {
		t.Fatalf("stats = %+v", st)
	}
	if b.Free() != 0 {
		t.Fatalf("free = %d, want 0", b.Free())
	}
}

// Every byte written is read exactly once, in order, while the producer stays
// within the ring.
func TestSPSCOrder(t *testing.T) {
	b, _ := New(1024)
	const total = 1 << 16

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var seq byte
		buf := make([]byte, 96)
		for sent := 0; sent < total; {
			n := b.Free()
			if n > len(buf) {
				n = len(buf)
			}
			if n > total-sent {
				n = total - sent
			}
			for i := 0; i < n; i++ {
				buf[i] = seq
				seq++
			}
			w, _ := b.Write(buf[:n])
			if w != n {
				t.Errorf("short write %d of %d", w, n)
				return
			}
			sent += n
		}
	}()

	var want byte
	got := 0
	chunk := make([]byte, 128)
	for got < total {
		if b.Available() < len(chunk) && total-got >= len(chunk) {
			continue
		}
		n := len(chunk)
		if total-got < n {
			n = total - got
			if b.Available() < n {
				continue
			}
		}
		b.ReadChunk(chunk[:n])
		for _, v := range chunk[:n] {
			if v != want {
				t.Fatalf("byte %d = %d, want %d", got, v, want)
			}
			want++
			got++
		}
	}
	wg.Wait()
	if st := b.Stats(); st.Underrun != 0 || st.Overflow != 0 {
		t.Fatalf("stats = %+v", st)
	}
}
