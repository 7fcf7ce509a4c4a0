//go:build !tinygo && !cgo

package hal

import "errors"

var errNoCgoAudio = errors.New("host audio requires cgo (build/run with CGO_ENABLED=1)")

// unavailableAudio fails Start so callers fall back to NullAudio.
type unavailableAudio struct{}

func NewEbitenAudio() AudioOut { return unavailableAudio{} }
func NewOtoAudio() AudioOut    { return unavailableAudio{} }

func (unavailableAudio) Start(uint32) error { return errNoCgoAudio }
func (unavailableAudio) Write([]byte) error { return errNoCgoAudio }
func (unavailableAudio) SetVolume(uint8)    {}
func (unavailableAudio) Close() error       { return nil }
