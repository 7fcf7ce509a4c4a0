//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Host panels mirror the PicoCalc's square LCD.
const (
	hostPanelWidth  = 320
	hostPanelHeight = 320
)

// closeGrace bounds how long a runner waits for the app to finish its
// shutdown screen after asking it to quit.
const closeGrace = 2 * time.Second

type hostHAL struct {
	logger *hostLogger
	panel  *BufferedPanel
	audio  AudioOut
	kbd    *hostKeyboard
	t      *hostTime
}

// New returns a host HAL with a record-only panel and a paced null audio sink.
// Runners replace both with real outputs.
func New() HAL {
	return newHostHAL(NewBufferedPanel(hostPanelWidth, hostPanelHeight, nil), NewNullAudio())
}

func newHostHAL(panel *BufferedPanel, audio AudioOut) *hostHAL {
	return &hostHAL{
		logger: &hostLogger{w: os.Stdout},
		panel:  panel,
		audio:  audio,
		kbd:    newHostKeyboard(),
		t:      newHostTime(),
	}
}

func (h *hostHAL) Logger() Logger     { return h.logger }
func (h *hostHAL) Panel() Panel       { return h.panel }
func (h *hostHAL) Audio() AudioOut    { return h.audio }
func (h *hostHAL) Keyboard() Keyboard { return h.kbd }
func (h *hostHAL) Time() Time         { return h.t }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
