package reactive

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultDisposeDelay debounces reference-count disposal so an immediate
// detach/re-attach pair does not tear the cell down.
const defaultDisposeDelay = 2 * time.Second

// cellIdentity is the registry key: the payload's runtime type plus the
// scoped key.
type cellIdentity struct {
	typ reflect.Type
	key string
}

func (id cellIdentity) String() string {
	return fmt.Sprintf("%s(key=%q)", id.typ, id.key)
}

// typeToken returns the reflect.Type for T, including interface and pointer
// types.
func typeToken[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// AnyCell is the type-erased view of a cell, used for relation edges,
// registry storage and extensions.
type AnyCell interface {
	// TypeName returns the payload type of the cell.
	TypeName() string
	// Key returns the scoped key of the cell.
	Key() string
	// Disposed reports whether the cell is currently disposed.
	Disposed() bool
	// Dispose tears the cell down and removes it from its registry.
	Dispose()
	// Notify invokes the cell's observers and propagates through the
	// relation graph.
	Notify()

	identity() cellIdentity
	relatedCells() []AnyCell
}

// ObserverID identifies a registered observer for removal.
type ObserverID uint64

type observerEntry[T any] struct {
	id ObserverID
	fn func(T)
}

// Cell is a singleton value holder registered under (type, key). The value
// is exclusively owned by the cell: mutate it through the cell's operators,
// never by writing to a captured payload in place.
type Cell[T any] struct {
	registry *Registry
	id       cellIdentity
	keyless  bool
	factory  func() T

	mu        sync.Mutex
	value     T
	observers []observerEntry[T]
	obsNext   ObserverID
	related   []AnyCell

	refs             map[string]struct{}
	autoDispose      bool
	disposeDelay     time.Duration
	disposeTimer     *time.Timer
	disposeScheduled bool

	disposed   bool
	recreating bool

	// lifecycle hooks installed by controllers
	onResurrect func()
	onRecreate  func()
	onDispose   func()
	// sentinel overrides the zero value written on dispose
	sentinel func() T
}

type cellConfig struct {
	key          string
	related      []AnyCell
	autoDispose  bool
	disposeDelay time.Duration
	manualLoad   bool
}

// CellOption configures cell construction.
type CellOption func(*cellConfig)

// WithKey sets the scoped key used for singleton lookup. Without a key the
// cell gets a minted identity and is always a new instance.
func WithKey(key string) CellOption {
	return func(c *cellConfig) {
		c.key = key
	}
}

// WithRelated declares one-way dependency edges to other cells. Edges are
// validated at construction; see InvalidRelationError.
func WithRelated(related ...AnyCell) CellOption {
	return func(c *cellConfig) {
		c.related = append(c.related, related...)
	}
}

// WithAutoDispose enables reference-counted disposal. A non-positive delay
// uses the default debounce.
func WithAutoDispose(delay time.Duration) CellOption {
	return func(c *cellConfig) {
		c.autoDispose = true
		if delay > 0 {
			c.disposeDelay = delay
		}
	}
}

// WithManualLoad stops an AsyncController from starting its first load at
// construction. It has no effect on plain cells.
func WithManualLoad() CellOption {
	return func(c *cellConfig) {
		c.manualLoad = true
	}
}

func mintKey() string {
	return uuid.NewString()
}

// TypeName returns the payload type of the cell.
func (c *Cell[T]) TypeName() string {
	return c.id.typ.String()
}

// Key returns the scoped key of the cell.
func (c *Cell[T]) Key() string {
	return c.id.key
}

// Keyless reports whether the cell's key was minted rather than supplied.
func (c *Cell[T]) Keyless() bool {
	return c.keyless
}

func (c *Cell[T]) identity() cellIdentity {
	return c.id
}

func (c *Cell[T]) relatedCells() []AnyCell {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AnyCell, len(c.related))
	copy(out, c.related)
	return out
}

// Disposed reports whether the cell is currently disposed.
func (c *Cell[T]) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Value returns the current payload. Reading a disposed cell re-runs the
// stored factory under the same identity before returning.
func (c *Cell[T]) Value() T {
	c.ensureLive()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// ensureLive resurrects the cell if it was disposed.
func (c *Cell[T]) ensureLive() {
	c.mu.Lock()
	if !c.disposed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	fresh := c.factory()

	c.mu.Lock()
	if !c.disposed {
		// lost the race to another resurrection
		c.mu.Unlock()
		return
	}
	c.value = fresh
	c.disposed = false
	c.refs = make(map[string]struct{})
	hook := c.onResurrect
	c.mu.Unlock()

	c.registry.reattach(c)
	if hook != nil {
		hook()
	}
}

// Dispose clears observers and references, resets the payload to its empty
// sentinel, and removes the cell from the registry. The next value access
// resurrects the cell.
func (c *Cell[T]) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.observers = nil
	c.refs = make(map[string]struct{})
	if c.disposeTimer != nil {
		c.disposeTimer.Stop()
		c.disposeTimer = nil
	}
	c.disposeScheduled = false
	if c.sentinel != nil {
		c.value = c.sentinel()
	} else {
		var zero T
		c.value = zero
	}
	hook := c.onDispose
	c.mu.Unlock()

	c.registry.detach(c)
	if hook != nil {
		hook()
	}
}

// transform applies fn to the current value while holding the cell lock, so
// read-modify-write is atomic with respect to other mutators. The notifying
// variant is a no-op when fn returns a structurally equal value.
func (c *Cell[T]) transform(fn func(T) T, notifying bool) (prev T, next T) {
	c.ensureLive()

	c.mu.Lock()
	prev = c.value
	next = fn(prev)
	equal := reflect.DeepEqual(prev, next)
	if notifying && equal {
		c.mu.Unlock()
		return prev, next
	}
	c.value = next
	c.mu.Unlock()

	if notifying {
		c.registry.fireChange(c, OpUpdate)
		c.Notify()
	} else {
		c.registry.fireChange(c, OpUpdateSilent)
	}
	return prev, next
}

// settle applies a finished async load. Unlike transform it never
// resurrects: the disposed check and the write happen under one lock
// section, so a settle landing after disposal is dropped. Reports whether
// the cell was live to take it.
func (c *Cell[T]) settle(v T, kind OperationKind) bool {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false
	}
	if reflect.DeepEqual(c.value, v) {
		c.mu.Unlock()
		return true
	}
	c.value = v
	c.mu.Unlock()

	c.registry.fireChange(c, kind)
	c.Notify()
	return true
}
