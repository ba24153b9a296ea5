package reactive

import (
	"sync"
)

// Observable is anything that exposes a current value and an observer
// channel: cells, controllers and async controllers.
type Observable[T any] interface {
	Value() T
	AddObserver(fn func(T)) ObserverID
	RemoveObserver(id ObserverID)
}

type listenHandle struct {
	cancel func()
}

// Controller wraps a cell with a synchronous init lifecycle, transform
// operators and cross-controller listening. Controllers are composed over
// cells: the cell keeps the registry identity, the controller adds behavior.
type Controller[T any] struct {
	cell *Cell[T]

	mu        sync.Mutex
	initFn    func(*Controller[T])
	stateHook func(prev, next T)
	listening []listenHandle
	initDone  bool

	contexts *contextHandles
}

// CreateController constructs a controller-backed cell. init runs exactly
// once per construction, and again on recreate or resurrection; it may be
// nil.
func CreateController[T any](r *Registry, factory func() T, init func(*Controller[T]), opts ...CellOption) (*Controller[T], error) {
	cell, err := Create(r, factory, opts...)
	if err != nil {
		return nil, err
	}

	c := &Controller[T]{
		cell:     cell,
		initFn:   init,
		contexts: newContextHandles(),
	}
	cell.onResurrect = c.runInit
	cell.onRecreate = c.runInit
	cell.onDispose = func() {
		c.StopListening()
		c.contexts.clearAll()
		c.mu.Lock()
		c.initDone = false
		c.mu.Unlock()
	}

	c.runInit()
	return c, nil
}

func (c *Controller[T]) runInit() {
	c.mu.Lock()
	c.initDone = false
	fn := c.initFn
	c.mu.Unlock()

	if fn != nil {
		fn(c)
	}

	c.mu.Lock()
	c.initDone = true
	c.mu.Unlock()
}

// Cell returns the backing cell, usable as a relation target.
func (c *Controller[T]) Cell() *Cell[T] {
	return c.cell
}

// InitializationComplete reports whether init has finished for the current
// construction.
func (c *Controller[T]) InitializationComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initDone
}

// SetOnStateChanged installs a hook invoked with (previous, next) for every
// mutation path, silent or not. Silence suppresses observer notification
// only, never this hook.
func (c *Controller[T]) SetOnStateChanged(hook func(prev, next T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateHook = hook
}

func (c *Controller[T]) fireStateHook(prev, next T) {
	c.mu.Lock()
	hook := c.stateHook
	c.mu.Unlock()
	if hook != nil {
		hook(prev, next)
	}
}

// Value returns the current state, resurrecting a disposed controller.
func (c *Controller[T]) Value() T {
	return c.cell.Value()
}

// AddObserver registers an observer on the backing cell.
func (c *Controller[T]) AddObserver(fn func(T)) ObserverID {
	return c.cell.AddObserver(fn)
}

// RemoveObserver removes an observer from the backing cell.
func (c *Controller[T]) RemoveObserver(id ObserverID) {
	c.cell.RemoveObserver(id)
}

// UpdateState replaces the state and notifies observers.
func (c *Controller[T]) UpdateState(v T) {
	prev, next := c.cell.transform(func(T) T { return v }, true)
	c.fireStateHook(prev, next)
}

// UpdateSilently replaces the state without notifying observers.
func (c *Controller[T]) UpdateSilently(v T) {
	prev, next := c.cell.transform(func(T) T { return v }, false)
	c.fireStateHook(prev, next)
}

// TransformState applies a read-modify-write and notifies observers.
func (c *Controller[T]) TransformState(fn func(T) T) {
	prev, next := c.cell.transform(fn, true)
	c.fireStateHook(prev, next)
}

// TransformStateSilently applies a read-modify-write without notifying.
func (c *Controller[T]) TransformStateSilently(fn func(T) T) {
	prev, next := c.cell.transform(fn, false)
	c.fireStateHook(prev, next)
}

// Notify re-fires observers with the current state.
func (c *Controller[T]) Notify() {
	c.cell.Notify()
}

// ListenTo wires listener onto source and returns source's current value. If
// callOnInit is true, onChange additionally runs once with that value before
// ListenTo returns. The relationship is tracked on listener so
// StopListening tears down only what listener registered.
func ListenTo[T, U any](listener *Controller[T], source Observable[U], onChange func(U), callOnInit bool) U {
	current := source.Value()
	id := source.AddObserver(onChange)

	listener.mu.Lock()
	listener.listening = append(listener.listening, listenHandle{
		cancel: func() { source.RemoveObserver(id) },
	})
	listener.mu.Unlock()

	if callOnInit {
		onChange(current)
	}
	return current
}

// StopListening removes every relationship this controller created through
// ListenTo. Observers registered by others on the same sources are left
// alone.
func (c *Controller[T]) StopListening() {
	c.mu.Lock()
	handles := c.listening
	c.listening = nil
	c.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
}

// ListeningCount returns the number of live ListenTo relationships.
func (c *Controller[T]) ListeningCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listening)
}

// Dispose tears down listening relationships and the backing cell. A later
// value read reconstructs the controller under the same identity.
func (c *Controller[T]) Dispose() {
	c.cell.Dispose()
}

// Disposed reports whether the backing cell is disposed.
func (c *Controller[T]) Disposed() bool {
	return c.cell.Disposed()
}

// SetContext attaches an opaque rendering-context handle for owner. The core
// places no meaning on the handle's contents.
func (c *Controller[T]) SetContext(owner string, handle any) {
	c.contexts.set(owner, handle)
}

// ClearContext detaches owner's handle.
func (c *Controller[T]) ClearContext(owner string) {
	c.contexts.clear(owner)
}

// HasContext reports whether a handle is attached, counting the global
// fallback.
func (c *Controller[T]) HasContext() bool {
	_, ok := c.contexts.current()
	return ok
}

// Context returns the most recently attached handle, falling back to the
// global one.
func (c *Controller[T]) Context() (any, bool) {
	return c.contexts.current()
}

// RequireContext returns the attached handle or a ContextError naming the
// operation that needed it.
func (c *Controller[T]) RequireContext(operation string) (any, error) {
	return c.contexts.require(operation)
}
