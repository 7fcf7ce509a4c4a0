package kernel

import "runtime"

// Context provides task-local access to kernel operations.
type Context struct {
	k    *Kernel
	id   TaskID
	spec TaskSpec
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.id }

// Name returns the task name.
func (c *Context) Name() string { return c.spec.Name }

// Spec returns the task's scheduling metadata.
func (c *Context) Spec() TaskSpec { return c.spec }

// Quitting reports whether the task should return. Loops check it once per
// iteration.
func (c *Context) Quitting() bool {
	if c.k == nil {
		return false
	}
	return c.k.Quitting()
}

// Done is closed when the kernel stops.
func (c *Context) Done() <-chan struct{} {
	if c.k == nil {
		return nil
	}
	return c.k.done
}

// NowTick returns the last observed tick value.
func (c *Context) NowTick() uint64 {
	if c.k == nil {
		return 0
	}
	return c.k.nowTick()
}

// WaitTick blocks until tick advances past after, or the kernel stops, and
// returns the new tick.
func (c *Context) WaitTick(after uint64) uint64 {
	if c.k == nil {
		return 0
	}
	return c.k.waitTick(after)
}

// Yield lets other tasks run.
func (c *Context) Yield() { runtime.Gosched() }
