//go:build tinygo

package kernel

// TinyGo cannot walk the stack of a recovered goroutine.
func captureStack() []byte {
	return nil
}
