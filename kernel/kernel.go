// Package kernel runs the console's long-lived real-time tasks.
//
// Every task is a loop that blocks rather than spins while waiting for work.
// Shutdown is cooperative: Stop raises a quit flag that tasks check once per
// iteration and then wakes anything still blocked so the check happens.
package kernel

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxTasks = 16

// AnyCore leaves a task unpinned.
const AnyCore = -1

type TaskID uint8

// TaskSpec is the static scheduling metadata of a task.
//
// Priority orders start-up (highest first) and is reported in diagnostics.
// Core >= 0 pins the task to its own OS thread.
type TaskSpec struct {
	Name     string
	Priority int
	Core     int
}

func (s TaskSpec) String() string {
	core := "any"
	if s.Core >= 0 {
		core = fmt.Sprint(s.Core)
	}
	return fmt.Sprintf("%s prio=%d core=%s", s.Name, s.Priority, core)
}

// Task is a long-running unit of execution. Run returns once ctx.Quitting
// reports true.
type Task interface {
	Run(ctx *Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx *Context)

func (f TaskFunc) Run(ctx *Context) { f(ctx) }

var (
	ErrStarted      = errors.New("kernel: already started")
	ErrTooManyTasks = errors.New("kernel: too many tasks")
	ErrNilTask      = errors.New("kernel: nil task")
)

type taskState struct {
	id   TaskID
	spec TaskSpec
	task Task
}

// Kernel owns the task table, the quit flag and the tick timebase.
type Kernel struct {
	mu      sync.Mutex
	tasks   []taskState
	wakers  []func()
	started bool
	stopped bool

	quit atomic.Bool
	done chan struct{}
	wg   sync.WaitGroup

	tickMu   sync.Mutex
	tickCond *sync.Cond
	tick     uint64
}

// New creates a kernel instance.
func New() *Kernel {
	k := &Kernel{done: make(chan struct{})}
	k.tickCond = sync.NewCond(&k.tickMu)
	return k
}

// AddTask registers a task. Tasks can only be added before Start.
func (k *Kernel) AddTask(spec TaskSpec, t Task) (TaskID, error) {
	if t == nil {
		return 0, ErrNilTask
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started {
		return 0, ErrStarted
	}
	if len(k.tasks) >= maxTasks {
		return 0, ErrTooManyTasks
	}
	id := TaskID(len(k.tasks))
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("task%d", id)
	}
	k.tasks = append(k.tasks, taskState{id: id, spec: spec, task: t})
	return id, nil
}

// Tasks returns the registered task specs in registration order.
func (k *Kernel) Tasks() []TaskSpec {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]TaskSpec, len(k.tasks))
	for i, st := range k.tasks {
		out[i] = st.spec
	}
	return out
}

// OnStop registers fn to run after the quit flag is raised. It is the final
// wake-up for waits that do not select on Context.Done.
func (k *Kernel) OnStop(fn func()) {
	if fn == nil {
		return
	}
	k.mu.Lock()
	k.wakers = append(k.wakers, fn)
	k.mu.Unlock()
}

// Start launches every task. Higher priorities start first.
func (k *Kernel) Start() error {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return ErrStarted
	}
	k.started = true
	order := append([]taskState(nil), k.tasks...)
	k.mu.Unlock()

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].spec.Priority > order[j].spec.Priority
	})
	for _, st := range order {
		k.wg.Add(1)
		go k.run(st)
	}
	return nil
}

func (k *Kernel) run(st taskState) {
	defer k.wg.Done()
	if st.spec.Core >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer func() {
		if r := recover(); r != nil {
			triggerPanic(PanicInfo{TaskID: st.id, Task: st.spec.Name, Value: r})
		}
	}()
	st.task.Run(&Context{k: k, id: st.id, spec: st.spec})
}

// Stop raises the quit flag, delivers the final wake-up and waits for every
// task to return. It is safe to call more than once.
func (k *Kernel) Stop() {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		k.wg.Wait()
		return
	}
	k.stopped = true
	wakers := append([]func(){}, k.wakers...)
	k.mu.Unlock()

	k.quit.Store(true)
	close(k.done)
	k.tickMu.Lock()
	k.tickCond.Broadcast()
	k.tickMu.Unlock()
	for _, fn := range wakers {
		fn()
	}
	k.wg.Wait()
}

// Wait blocks until every started task has returned.
func (k *Kernel) Wait() { k.wg.Wait() }

// Quitting reports whether Stop has been called.
func (k *Kernel) Quitting() bool { return k.quit.Load() }

// Done is closed by Stop.
func (k *Kernel) Done() <-chan struct{} { return k.done }

// Tick advances the timebase and wakes tasks blocked in WaitTick.
func (k *Kernel) Tick() {
	k.tickMu.Lock()
	k.tick++
	k.tickCond.Broadcast()
	k.tickMu.Unlock()
}

// StartTick calls Tick every period until Stop.
func (k *Kernel) StartTick(period time.Duration) {
	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-k.done:
				return
			case <-t.C:
				k.Tick()
			}
		}
	}()
}

func (k *Kernel) nowTick() uint64 {
	k.tickMu.Lock()
	defer k.tickMu.Unlock()
	return k.tick
}

func (k *Kernel) waitTick(after uint64) uint64 {
	k.tickMu.Lock()
	defer k.tickMu.Unlock()
	for k.tick <= after && !k.quit.Load() {
		k.tickCond.Wait()
	}
	return k.tick
}
