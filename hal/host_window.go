//go:build !tinygo && cgo

package hal

import (
	"errors"
	"sync"
	"time"

	"picoheld/internal/buildinfo"
	"picoheld/media/rgb565"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow opens a desktop window that shows the panel's front surface and
// plays audio through Ebiten. It blocks until the app quits or the window
// closes.
func RunWindow(newApp func(HAL) func() error) error {
	screen := &windowScreen{}
	panel := NewBufferedPanel(hostPanelWidth, hostPanelHeight, screen.scanout)
	h := newHostHAL(panel, NewEbitenAudio())
	step := newApp(h)

	g := &hostGame{h: h, screen: screen, step: step}
	ebiten.SetWindowTitle("picoheld (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(hostPanelWidth*2, hostPanelHeight*2)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// windowScreen holds the last scanned-out surface as RGBA for the render
// goroutine.
type windowScreen struct {
	mu    sync.Mutex
	w, h  int
	rgba  []byte
	dirty bool
}

func (s *windowScreen) scanout(img *rgb565.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := img.Width(), img.Height()
	if s.w != w || s.h != h {
		s.w, s.h = w, h
		s.rgba = make([]byte, w*h*4)
	}
	expandRGBA(s.rgba, img)
	s.dirty = true
	return nil
}

type hostGame struct {
	h       *hostHAL
	screen  *windowScreen
	img     *ebiten.Image
	step    func() error
	closeAt time.Time
}

func (g *hostGame) Update() error {
	g.h.kbd.poll()
	g.h.t.step()

	if ebiten.IsWindowBeingClosed() {
		if g.closeAt.IsZero() {
			g.closeAt = time.Now()
			g.h.kbd.emit(KeyEvent{Code: KeyEscape, Press: true})
		} else if time.Since(g.closeAt) > closeGrace {
			return ebiten.Termination
		}
	}

	if g.step != nil {
		if err := g.step(); err != nil {
			if errors.Is(err, ErrQuit) {
				return ebiten.Termination
			}
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	s := g.screen
	s.mu.Lock()
	if s.dirty && s.w > 0 {
		if g.img == nil || g.img.Bounds().Dx() != s.w || g.img.Bounds().Dy() != s.h {
			if g.img != nil {
				g.img.Deallocate()
			}
			g.img = ebiten.NewImage(s.w, s.h)
		}
		g.img.WritePixels(s.rgba)
		s.dirty = false
	}
	s.mu.Unlock()

	if g.img != nil {
		screen.DrawImage(g.img, nil)
	}
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.panel.Width(), g.h.panel.Height()
}
