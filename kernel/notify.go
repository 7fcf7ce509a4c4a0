package kernel

// Notify is a one-slot wake-up. Signals sent before the waiter consumes one
// collapse into a single wake-up.
type Notify struct {
	ch chan struct{}
}

func NewNotify() *Notify {
	return &Notify{ch: make(chan struct{}, 1)}
}

// Signal wakes the waiter. It never blocks and reports false when a wake-up
// was already pending.
func (n *Notify) Signal() bool {
	select {
	case n.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// C exposes the wake-up channel for select loops.
func (n *Notify) C() <-chan struct{} { return n.ch }

// Wait blocks until a signal arrives or ctx quits. It returns false on quit.
func (n *Notify) Wait(ctx *Context) bool {
	if ctx.Quitting() {
		return false
	}
	select {
	case <-n.ch:
		return !ctx.Quitting()
	case <-ctx.Done():
		return false
	}
}
