package palette

import (
	"sync"
	"testing"
)

func TestInstallBlackAndRed(t *testing.T) {
	p := New()

	var colors [Size]RGB
	colors[0] = RGB{0, 0, 0}
	colors[1] = RGB{255, 0, 0}
	p.Install(colors)

	if got := p.Lookup(0); got != 0x0000 {
		t.Fatalf("index 0 = %#04x, want 0x0000", got)
	}
	if got := p.Lookup(1); got != 0xF800 {
		t.Fatalf("index 1 = %#04x, want 0xf800", got)
	}
}

func TestInstallRGB24(t *testing.T) {
	p := New()

	raw := make([]byte, RGB24Size)
	raw[3*5+1] = 255 // index 5 pure green
	raw[3*255+2] = 255
	if err := p.InstallRGB24(raw); err != nil {
		t.Fatalf("InstallRGB24: %v", err)
	}
	if got := p.Lookup(5); got != 0x07E0 {
		t.Errorf("index 5 = %#04x, want 0x07e0", got)
	}
	if got := p.Lookup(255); got != 0x001F {
		t.Errorf("index 255 = %#04x, want 0x001f", got)
	}
	if p.Installs() != 1 {
		t.Errorf("installs = %d, want 1", p.Installs())
	}

	if err := p.InstallRGB24(raw[:10]); err != ErrShortPalette {
		t.Fatalf("short install err = %v, want ErrShortPalette", err)
	}
}

func TestSnapshotIsStable(t *testing.T) {
	p := New()
	snap := p.Snapshot()

	var colors [Size]RGB
	for i := range colors {
		colors[i] = RGB{255, 255, 255}
	}
	p.Install(colors)

	if snap.Lookup(10) != 0 {
		t.Fatal("snapshot changed after install")
	}
	if p.Snapshot().Lookup(10) != 0xFFFF {
		t.Fatal("new snapshot does not reflect install")
	}
}

// Every table a reader observes must be uniform: installs alternate between
// two solid palettes so a partial write would show up as a mixed table.
func TestInstallIsAtomic(t *testing.T) {
	p := New()

	var white, red [Size]RGB
	for i := range white {
		white[i] = RGB{255, 255, 255}
		red[i] = RGB{255, 0, 0}
	}
	p.Install(white)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				p.Install(red)
			} else {
				p.Install(white)
			}
		}
	}()

	for n := 0; n < 2000; n++ {
		snap := p.Snapshot()
		first := snap.Lookup(0)
		for i := 1; i < Size; i++ {
			if snap.Lookup(Index(i)) != first {
				close(stop)
				wg.Wait()
				t.Fatalf("observed mixed table: entry 0 = %#04x, entry %d = %#04x", first, i, snap.Lookup(Index(i)))
			}
		}
	}
	close(stop)
	wg.Wait()
}

func TestEGATable(t *testing.T) {
	tab := EGATable()
	if tab.Lookup(0) != 0 {
		t.Errorf("black = %#04x", tab.Lookup(0))
	}
	if tab.Lookup(15) != 0xFFFF {
		t.Errorf("white = %#04x, want 0xffff", tab.Lookup(15))
	}
	if tab.Lookup(16) != 0 {
		t.Errorf("entry 16 = %#04x, want 0", tab.Lookup(16))
	}
}
