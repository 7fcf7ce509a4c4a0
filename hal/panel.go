package hal

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"picoheld/media/rgb565"
)

var ErrSurface = errors.New("hal: surface index out of range")

// BufferedPanel keeps two surfaces in memory and hands the drawn one to a
// scan-out function. With a nil scan-out it only records the flip.
type BufferedPanel struct {
	surfaces [2]*rgb565.Image
	scanout  func(*rgb565.Image) error

	mu    sync.Mutex
	front atomic.Int32
	draws atomic.Uint64
}

// NewBufferedPanel allocates a w×h panel.
func NewBufferedPanel(w, h int, scanout func(*rgb565.Image) error) *BufferedPanel {
	return &BufferedPanel{
		surfaces: [2]*rgb565.Image{rgb565.New(w, h), rgb565.New(w, h)},
		scanout:  scanout,
	}
}

func (p *BufferedPanel) Width() int  { return p.surfaces[0].Width() }
func (p *BufferedPanel) Height() int { return p.surfaces[0].Height() }

func (p *BufferedPanel) Surface(i int) *rgb565.Image {
	if i < 0 || i > 1 {
		return nil
	}
	return p.surfaces[i]
}

// Draw scans surface i out and makes it the front buffer.
func (p *BufferedPanel) Draw(i int) error {
	if i < 0 || i > 1 {
		return fmt.Errorf("%w: %d", ErrSurface, i)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scanout != nil {
		if err := p.scanout(p.surfaces[i]); err != nil {
			return err
		}
	}
	p.front.Store(int32(i))
	p.draws.Add(1)
	return nil
}

func (p *BufferedPanel) Front() int { return int(p.front.Load()) }

// Draws counts completed Draw calls.
func (p *BufferedPanel) Draws() uint64 { return p.draws.Load() }
