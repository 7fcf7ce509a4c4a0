package app

import (
	"fmt"
	"image/color"
	"strings"
	"time"
	"unicode/utf8"

	"picoheld/font/font6x8"
	"picoheld/hal"
	"picoheld/kernel"
	"picoheld/media/rgb565"

	"tinygo.org/x/tinyfont"
)

// panicStopWait bounds how long the panic screen waits for the other tasks to
// stop drawing. A task wedged on a lock the dead task held never returns.
const panicStopWait = time.Second

func installPanicHandler(s *System) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		if l := s.h.Logger(); l != nil {
			l.WriteLineString(fmt.Sprintf("picoheld panic: task=%d (%s) panic=%v", info.TaskID, info.Task, info.Value))
			for _, line := range strings.Split(string(info.Stack), "\n") {
				if line != "" {
					l.WriteLineString(line)
				}
			}
		}

		// The handler runs on the dying task, which Stop would wait for.
		go func() {
			stopped := make(chan struct{})
			go func() {
				s.k.Stop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-time.After(panicStopWait):
			}
			if err := drawPanic(s.h.Panel(), info); err != nil && s.h.Logger() != nil {
				s.h.Logger().WriteLineString("app: panic screen: " + err.Error())
			}
			s.panicked.Store(&info)
		}()
	})
}

// drawPanic renders the panic report black on white onto the back surface and
// shows it.
func drawPanic(panel hal.Panel, info kernel.PanicInfo) error {
	if panel == nil {
		return nil
	}
	back := 1 - panel.Front()
	img := panel.Surface(back)
	img.Fill(0xFFFF)

	lines := []string{
		"picoheld panic:",
		fmt.Sprintf("task: %d (%s)", info.TaskID, info.Task),
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) > 0 {
		lines = append(lines, "stack:")
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line != "" {
				lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
			}
		}
	} else {
		lines = append(lines, "stack: unavailable")
	}

	d := panicDisplay{img: img}
	fg := color.RGBA{A: 255}
	cols := int16(img.Width() / font6x8.Width)
	if cols <= 0 {
		cols = 1
	}
	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 && int(y)+font6x8.Height <= img.Height() {
			chunk, rest := takeRunes(line, cols)
			x := int16(0)
			for _, r := range chunk {
				tinyfont.DrawChar(d, font6x8.Font, x, y+font6x8.Height-1, r, fg)
				x += font6x8.Width
			}
			y += font6x8.Height
			line = strings.TrimLeft(rest, " ")
		}
	}
	return panel.Draw(back)
}

// panicDisplay lets tinyfont draw straight onto a panel surface.
type panicDisplay struct {
	img *rgb565.Image
}

func (d panicDisplay) Size() (x, y int16) {
	return int16(d.img.Width()), int16(d.img.Height())
}

func (d panicDisplay) SetPixel(x, y int16, c color.RGBA) {
	d.img.SetRGB565(int(x), int(y), rgb565.Pack(c.R, c.G, c.B))
}

func (d panicDisplay) Display() error { return nil }

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
