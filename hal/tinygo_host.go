//go:build tinygo && !baremetal

package hal

type tinyGoHostHAL struct {
	logger tinyGoHostLogger
	panel  *BufferedPanel
	audio  *NullAudio
}

// New returns a TinyGo-on-host HAL (linux/wasm targets without pin mappings):
// println logging, a record-only panel and the paced null audio sink.
func New() HAL {
	return &tinyGoHostHAL{
		panel: NewBufferedPanel(320, 320, nil),
		audio: NewNullAudio(),
	}
}

func (h *tinyGoHostHAL) Logger() Logger     { return h.logger }
func (h *tinyGoHostHAL) Panel() Panel       { return h.panel }
func (h *tinyGoHostHAL) Audio() AudioOut    { return h.audio }
func (h *tinyGoHostHAL) Keyboard() Keyboard { return tinyGoHostKeyboard{} }

// Time is nil; the kernel runs its own timebase.
func (h *tinyGoHostHAL) Time() Time { return nil }

type tinyGoHostLogger struct{}

func (tinyGoHostLogger) WriteLineString(s string) { println(s) }
func (tinyGoHostLogger) WriteLineBytes(b []byte)  { println(string(b)) }

type tinyGoHostKeyboard struct{}

func (tinyGoHostKeyboard) Events() <-chan KeyEvent { return nil }
