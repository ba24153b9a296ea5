package reactive

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// AsyncController wraps a cell whose payload is an AsyncState machine. Its
// init runs asynchronously; failures are captured into Error state instead
// of propagating to the caller. At most one init runs at a time per
// controller: a Reload issued while one is in flight is dropped, not queued.
type AsyncController[T any] struct {
	cell   *Cell[AsyncState[T]]
	initFn func(context.Context) (T, error)

	inFlight atomic.Bool

	mu            sync.Mutex
	firstSettled  bool
	onFirstSettle func()

	contexts *contextHandles
}

// CreateAsyncController constructs an async controller and, unless
// WithManualLoad was given, starts its first load immediately. The cell
// begins in Initial state and moves to Loading when the load starts.
func CreateAsyncController[T any](r *Registry, init func(context.Context) (T, error), opts ...CellOption) (*AsyncController[T], error) {
	var cfg cellConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cell, err := Create(r, func() AsyncState[T] { return Initial[T]() }, opts...)
	if err != nil {
		return nil, err
	}

	a := &AsyncController[T]{
		cell:     cell,
		initFn:   init,
		contexts: newContextHandles(),
	}
	cell.sentinel = func() AsyncState[T] { return Empty[T]() }
	cell.onResurrect = func() { a.Reload(context.Background()) }
	cell.onRecreate = func() { a.Reload(context.Background()) }
	cell.onDispose = func() {
		a.contexts.clearAll()
	}

	if !cfg.manualLoad {
		a.Reload(context.Background())
	}
	return a, nil
}

// Cell returns the backing cell, usable as a relation target.
func (a *AsyncController[T]) Cell() *Cell[AsyncState[T]] {
	return a.cell
}

// State returns the current async state.
func (a *AsyncController[T]) State() AsyncState[T] {
	return a.cell.Value()
}

// Value returns the current async state; it makes AsyncController an
// Observable over AsyncState.
func (a *AsyncController[T]) Value() AsyncState[T] {
	return a.cell.Value()
}

// AddObserver registers an observer on the backing cell.
func (a *AsyncController[T]) AddObserver(fn func(AsyncState[T])) ObserverID {
	return a.cell.AddObserver(fn)
}

// RemoveObserver removes an observer from the backing cell.
func (a *AsyncController[T]) RemoveObserver(id ObserverID) {
	a.cell.RemoveObserver(id)
}

// Reload routes the machine back through Loading and runs init again. A
// call while a load is in flight is a no-op. There is no cancellation of
// the running init; a resolution arriving after disposal is dropped.
func (a *AsyncController[T]) Reload(ctx context.Context) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return
	}
	a.cell.UpdateNotifying(Loading[T]())

	go func() {
		data, err := a.runInit(ctx)
		a.applySettled(data, err)
		a.inFlight.Store(false)
	}()
}

// InFlight reports whether an init is currently running.
func (a *AsyncController[T]) InFlight() bool {
	return a.inFlight.Load()
}

func (a *AsyncController[T]) runInit(ctx context.Context) (data T, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("async init panicked: %v", recovered)
		}
	}()
	return a.initFn(ctx)
}

// applySettled is the single point where a finished init touches the cell.
// The settle itself checks disposal under the cell lock, dropping late
// resolutions whose owner is gone; otherwise it applies unconditionally,
// last writer wins. Extensions see settles under their own operation kinds.
func (a *AsyncController[T]) applySettled(data T, err error) {
	var live bool
	if err != nil {
		live = a.cell.settle(Failure[T](err, debug.Stack()), OpAsyncError)
	} else {
		live = a.cell.settle(Success(data), OpAsyncSuccess)
	}
	if !live {
		return
	}

	a.mu.Lock()
	first := !a.firstSettled
	a.firstSettled = true
	hook := a.onFirstSettle
	a.mu.Unlock()

	if first && hook != nil {
		hook()
	}
}

// HasInitializedListenerExecution reports whether the controller has
// completed at least one settle, i.e. listener wiring has had its one
// chance to run.
func (a *AsyncController[T]) HasInitializedListenerExecution() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.firstSettled
}

// SetOnFirstSettle installs a hook run once, after the first load settles.
// It is not re-run on subsequent reloads.
func (a *AsyncController[T]) SetOnFirstSettle(hook func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFirstSettle = hook
}

// LoadingState externally resets the machine to Loading.
func (a *AsyncController[T]) LoadingState() {
	a.cell.UpdateNotifying(Loading[T]())
}

// UpdateState moves the machine to Success with the given data.
func (a *AsyncController[T]) UpdateState(data T) {
	a.cell.UpdateNotifying(Success(data))
}

// ErrorState moves the machine to Error, capturing the call stack. A pending
// init that settles later silently overwrites this state.
func (a *AsyncController[T]) ErrorState(err error) {
	a.cell.UpdateNotifying(Failure[T](err, debug.Stack()))
}

// ErrorStateWithStack moves the machine to Error with a caller-provided
// stack trace.
func (a *AsyncController[T]) ErrorStateWithStack(err error, stack []byte) {
	a.cell.UpdateNotifying(Failure[T](err, stack))
}

// TransformDataState applies fn to the current data and notifies. It only
// applies when the machine holds data; fn returning ok=false means no-op,
// not clear.
func (a *AsyncController[T]) TransformDataState(fn func(T) (T, bool)) {
	a.transformData(fn, true)
}

// TransformDataStateSilently applies fn to the current data without
// notifying observers.
func (a *AsyncController[T]) TransformDataStateSilently(fn func(T) (T, bool)) {
	a.transformData(fn, false)
}

func (a *AsyncController[T]) transformData(fn func(T) (T, bool), notifying bool) {
	current := a.cell.Value()
	if !current.IsSuccess() {
		return
	}
	next, ok := fn(current.DataOrZero())
	if !ok {
		return
	}
	if notifying {
		a.cell.UpdateNotifying(Success(next))
	} else {
		a.cell.UpdateSilently(Success(next))
	}
}

// TransformStateSilently replaces the whole state with fn's result, moving
// between any two states without the Loading gate. Always silent.
func (a *AsyncController[T]) TransformStateSilently(fn func(AsyncState[T]) AsyncState[T]) {
	a.cell.UpdateSilently(fn(a.cell.Value()))
}

// Dispose tears down the backing cell; the payload resets to Empty. A later
// read resurrects the controller and starts a fresh load.
func (a *AsyncController[T]) Dispose() {
	a.cell.Dispose()
}

// Disposed reports whether the backing cell is disposed.
func (a *AsyncController[T]) Disposed() bool {
	return a.cell.Disposed()
}

// SetContext attaches an opaque rendering-context handle for owner.
func (a *AsyncController[T]) SetContext(owner string, handle any) {
	a.contexts.set(owner, handle)
}

// ClearContext detaches owner's handle.
func (a *AsyncController[T]) ClearContext(owner string) {
	a.contexts.clear(owner)
}

// HasContext reports whether a handle is attached, counting the global
// fallback.
func (a *AsyncController[T]) HasContext() bool {
	_, ok := a.contexts.current()
	return ok
}

// Context returns the most recently attached handle, falling back to the
// global one.
func (a *AsyncController[T]) Context() (any, bool) {
	return a.contexts.current()
}

// RequireContext returns the attached handle or a ContextError naming the
// operation that needed it.
func (a *AsyncController[T]) RequireContext(operation string) (any, error) {
	return a.contexts.require(operation)
}
