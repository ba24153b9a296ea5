package reactive

import (
	"time"
)

// AddObserver registers a callback invoked with the current value on every
// notification. Observers fire in the order they were added.
func (c *Cell[T]) AddObserver(fn func(T)) ObserverID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obsNext++
	id := c.obsNext
	c.observers = append(c.observers, observerEntry[T]{id: id, fn: fn})
	return id
}

// RemoveObserver removes a previously registered observer. Unknown ids are
// ignored.
func (c *Cell[T]) RemoveObserver(id ObserverID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.observers {
		if entry.id == id {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

// ObserverCount returns the number of registered observers.
func (c *Cell[T]) ObserverCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// Notify synchronously invokes every observer in insertion order with the
// current value, then notifies every registry cell that declared this cell
// as related. Local observers always run before graph propagation.
func (c *Cell[T]) Notify() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	obs := make([]observerEntry[T], len(c.observers))
	copy(obs, c.observers)
	val := c.value
	c.mu.Unlock()

	for _, entry := range obs {
		entry.fn(val)
	}

	c.registry.propagate(c)
}

// UpdateSilently replaces the value without notifying observers. Extensions
// and controller state hooks still see the mutation.
func (c *Cell[T]) UpdateSilently(v T) {
	c.transform(func(T) T { return v }, false)
}

// UpdateNotifying replaces the value and notifies observers. Replacing the
// value with a structurally equal one is a complete no-op: no observer
// calls, no propagation.
func (c *Cell[T]) UpdateNotifying(v T) {
	c.transform(func(T) T { return v }, true)
}

// AddReference records an owner holding the cell. Duplicate owner ids
// collapse to one. Any pending scheduled dispose is cancelled.
func (c *Cell[T]) AddReference(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.refs[owner] = struct{}{}
	if c.disposeTimer != nil {
		c.disposeTimer.Stop()
		c.disposeTimer = nil
	}
	c.disposeScheduled = false
}

// RemoveReference drops an owner. When the last owner is gone and
// auto-dispose is enabled, disposal is scheduled after the configured delay
// rather than immediately.
func (c *Cell[T]) RemoveReference(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	delete(c.refs, owner)
	if len(c.refs) > 0 || !c.autoDispose || c.disposeScheduled {
		return
	}
	c.disposeScheduled = true
	delay := c.disposeDelay
	if delay <= 0 {
		delay = defaultDisposeDelay
	}
	c.disposeTimer = time.AfterFunc(delay, c.autoDisposeFire)
}

func (c *Cell[T]) autoDisposeFire() {
	c.mu.Lock()
	if c.disposed || !c.disposeScheduled || len(c.refs) > 0 {
		c.mu.Unlock()
		return
	}
	c.disposeScheduled = false
	c.disposeTimer = nil
	c.mu.Unlock()

	c.Dispose()
}

// ReferenceCount returns the number of distinct owners currently holding the
// cell.
func (c *Cell[T]) ReferenceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.refs)
}

// DisposeScheduled reports whether a reference-count dispose is pending.
func (c *Cell[T]) DisposeScheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposeScheduled
}

// AutoDisposeEnabled reports whether reference-count disposal is enabled.
func (c *Cell[T]) AutoDisposeEnabled() bool {
	return c.autoDispose
}
