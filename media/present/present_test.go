package present

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"picoheld/hal"
	"picoheld/kernel"
	"picoheld/media/frame"
	"picoheld/media/palette"
	"picoheld/media/rgb565"
	"picoheld/media/scaler"
)

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

func (l *lineLog) has(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.lines {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// recordAccel copies the source onto the destination and remembers what it
// was asked to do.
type recordAccel struct {
	panel *hal.BufferedPanel
	calls int
	first []uint16
	err   error

	wroteFront bool
}

func (a *recordAccel) ScaleRotate(op scaler.Op) error {
	a.calls++
	a.first = append(a.first, op.Src.Pix[0])
	if a.panel.Draws() > 0 && op.Dst == a.panel.Surface(a.panel.Front()) {
		a.wroteFront = true
	}
	if a.err != nil {
		return a.err
	}
	op.Dst.Fill(op.Src.Pix[0])
	return nil
}

func newTestPresenter(t *testing.T, log *lineLog) (*Presenter, *hal.BufferedPanel, *recordAccel, *palette.Palette) {
	t.Helper()
	panel := hal.NewBufferedPanel(4, 4, nil)
	accel := &recordAccel{panel: panel}
	pal := palette.New()
	var colors [palette.Size]palette.RGB
	for i := range colors {
		colors[i] = palette.RGB{R: uint8(i), G: uint8(i), B: uint8(i)}
	}
	pal.Install(colors)
	p, err := New(Config{Panel: panel, Palette: pal, Accel: accel, Logger: log})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, panel, accel, pal
}

func solid(seq uint64, idx byte) frame.Frame {
	pix := make([]byte, 4)
	for i := range pix {
		pix[i] = idx
	}
	return frame.Frame{Seq: seq, Width: 2, Height: 2, Pix: pix}
}

func TestOnlyLatestFrameIsConverted(t *testing.T) {
	p, _, accel, pal := newTestPresenter(t, &lineLog{})
	p.Submit(solid(1, 10))
	p.Submit(solid(2, 20))
	p.Submit(solid(3, 30))

	if !p.Cycle() {
		t.Fatal("Cycle drew nothing")
	}
	if p.Cycle() {
		t.Fatal("second Cycle drew a frame")
	}
	if accel.calls != 1 || accel.first[0] != pal.Lookup(30) {
		t.Fatalf("accelerator calls=%d first=%v, want one call for F3", accel.calls, accel.first)
	}
	if p.LastSeq() != 3 {
		t.Fatalf("last seq = %d, want 3", p.LastSeq())
	}
	if st := p.Stats(); st.Presented != 1 || st.Dropped != 2 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestFlipNeverWritesFront(t *testing.T) {
	p, panel, accel, _ := newTestPresenter(t, &lineLog{})
	start := panel.Front()
	for i := 1; i <= 6; i++ {
		p.Submit(solid(uint64(i), byte(i)))
		if !p.Cycle() {
			t.Fatalf("cycle %d drew nothing", i)
		}
		want := start
		if i%2 == 1 {
			want = 1 - start
		}
		if panel.Front() != want {
			t.Fatalf("after cycle %d front = %d, want %d", i, panel.Front(), want)
		}
		if got := panel.Surface(panel.Front()).Pix[0]; got != rgb565.Pack(byte(i), byte(i), byte(i)) {
			t.Fatalf("front shows %#04x after cycle %d", got, i)
		}
	}
	if accel.wroteFront {
		t.Fatal("accelerator wrote the surface being shown")
	}
	if p.State() != Idle {
		t.Fatalf("state = %v", p.State())
	}
}

func TestScaleFailureDropsFrame(t *testing.T) {
	log := &lineLog{}
	p, panel, accel, _ := newTestPresenter(t, log)
	accel.err = errors.New("ppa busy")
	front := panel.Front()

	p.Submit(solid(1, 5))
	if p.Cycle() {
		t.Fatal("failed frame reported as drawn")
	}
	if panel.Front() != front || panel.Draws() != 0 {
		t.Fatalf("panel flipped after failure: front=%d draws=%d", panel.Front(), panel.Draws())
	}
	if st := p.Stats(); st.ScaleErrors != 1 || st.ConvertErrors != 0 || !log.has("present: frame 1 dropped") {
		t.Fatalf("stats=%+v log=%q", p.Stats(), log.lines)
	}

	accel.err = nil
	p.Submit(solid(2, 6))
	if !p.Cycle() || p.LastSeq() != 2 {
		t.Fatal("presenter did not recover after a failed frame")
	}
}

func TestBadFrameIsDropped(t *testing.T) {
	log := &lineLog{}
	p, _, accel, _ := newTestPresenter(t, log)
	p.Submit(frame.Frame{Seq: 1, Width: 2, Height: 2, Pix: []byte{1}})
	if p.Cycle() || accel.calls != 0 {
		t.Fatal("short frame reached the accelerator")
	}
	st := p.Stats()
	if st.ConvertErrors != 1 || st.ScaleErrors != 0 || !log.has("present: frame 1 dropped") {
		t.Fatalf("stats=%+v log=%q", st, log.lines)
	}
	if p.State() != Idle {
		t.Fatalf("state = %v", p.State())
	}
}

func TestFPSReport(t *testing.T) {
	log := &lineLog{}
	panel := hal.NewBufferedPanel(2, 2, nil)
	now := time.Unix(0, 0)
	p, err := New(Config{
		Panel:   panel,
		Palette: palette.New(),
		Accel:   &recordAccel{panel: panel},
		Logger:  log,
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < FPSWindow; i++ {
		now = now.Add(20 * time.Millisecond)
		p.Submit(solid(uint64(i+1), 1))
		p.Cycle()
	}
	if !log.has("present: fps: 50.00") {
		t.Fatalf("log = %q", log.lines)
	}
	if p.Stats().LastFPS != 50 {
		t.Fatalf("last fps = %v", p.Stats().LastFPS)
	}
}

func TestRedPixelEndToEnd(t *testing.T) {
	panel := hal.NewBufferedPanel(1, 1, nil)
	pal := palette.New()
	var colors [palette.Size]palette.RGB
	colors[1] = palette.RGB{R: 255}
	pal.Install(colors)
	p, err := New(Config{Panel: panel, Palette: pal, Accel: scaler.NewSoftware(scaler.FilterNearest)})
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		idx  byte
		want uint16
	}{{0, 0x0000}, {1, 0xF800}} {
		p.Submit(frame.Frame{Seq: 1, Width: 1, Height: 1, Pix: []byte{tt.idx}})
		if !p.Cycle() {
			t.Fatal("nothing drawn")
		}
		if got := panel.Surface(panel.Front()).Pix[0]; got != tt.want {
			t.Fatalf("index %d shows %#04x, want %#04x", tt.idx, got, tt.want)
		}
	}
}

func TestRunStopsThenEndScreen(t *testing.T) {
	p, panel, _, _ := newTestPresenter(t, &lineLog{})
	k := kernel.New()
	if _, err := k.AddTask(kernel.TaskSpec{Name: "present", Priority: 3, Core: kernel.AnyCore}, kernel.TaskFunc(p.Run)); err != nil {
		t.Fatal(err)
	}
	if err := k.Start(); err != nil {
		t.Fatal(err)
	}
	p.Submit(solid(7, 9))

	deadline := time.After(2 * time.Second)
	for p.LastSeq() != 7 {
		select {
		case <-deadline:
			t.Fatal("frame never presented")
		case <-time.After(time.Millisecond):
		}
	}

	stopped := make(chan struct{})
	go func() {
		k.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("presenter did not stop")
	}

	draws := panel.Draws()
	front := panel.Front()
	if err := p.EndScreen(TextScreen("GOODBYE")); err != nil {
		t.Fatal(err)
	}
	if panel.Draws() != draws+1 || panel.Front() == front {
		t.Fatalf("end screen draws=%d front=%d", panel.Draws(), panel.Front())
	}
	if p.State() != Finished {
		t.Fatalf("state = %v", p.State())
	}
	if err := p.EndScreen(nil); !errors.Is(err, ErrFinished) {
		t.Fatalf("second end screen err = %v", err)
	}
}
