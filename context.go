package reactive

import (
	"sync"
)

// contextHandles stores opaque per-owner rendering-context handles for one
// controller instance. The most recently attached handle wins; the global
// handle is the fallback when none is attached.
type contextHandles struct {
	mu      sync.Mutex
	order   []string
	handles map[string]any
}

func newContextHandles() *contextHandles {
	return &contextHandles{
		handles: make(map[string]any),
	}
}

func (h *contextHandles) set(owner string, handle any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.handles[owner]; !ok {
		h.order = append(h.order, owner)
	} else {
		h.bump(owner)
	}
	h.handles[owner] = handle
}

// bump moves owner to the end of the attachment order.
func (h *contextHandles) bump(owner string) {
	for i, o := range h.order {
		if o == owner {
			h.order = append(h.order[:i], h.order[i+1:]...)
			h.order = append(h.order, owner)
			return
		}
	}
}

func (h *contextHandles) clear(owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handles, owner)
	for i, o := range h.order {
		if o == owner {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *contextHandles) clearAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order = nil
	h.handles = make(map[string]any)
}

func (h *contextHandles) current() (any, bool) {
	h.mu.Lock()
	for i := len(h.order) - 1; i >= 0; i-- {
		if handle, ok := h.handles[h.order[i]]; ok {
			h.mu.Unlock()
			return handle, true
		}
	}
	h.mu.Unlock()
	return GlobalContext()
}

func (h *contextHandles) require(operation string) (any, error) {
	if handle, ok := h.current(); ok {
		return handle, nil
	}
	return nil, &ContextError{Operation: operation}
}

var (
	globalCtxMu  sync.RWMutex
	globalCtx    any
	globalCtxSet bool
)

// InitGlobalContext registers a process-wide opaque handle consulted as a
// fallback by every controller's context accessors.
func InitGlobalContext(handle any) {
	globalCtxMu.Lock()
	defer globalCtxMu.Unlock()
	globalCtx = handle
	globalCtxSet = true
}

// ClearGlobalContext removes the process-wide handle.
func ClearGlobalContext() {
	globalCtxMu.Lock()
	defer globalCtxMu.Unlock()
	globalCtx = nil
	globalCtxSet = false
}

// HasGlobalContext reports whether a process-wide handle is registered.
func HasGlobalContext() bool {
	globalCtxMu.RLock()
	defer globalCtxMu.RUnlock()
	return globalCtxSet
}

// GlobalContext returns the process-wide handle, if registered.
func GlobalContext() (any, bool) {
	globalCtxMu.RLock()
	defer globalCtxMu.RUnlock()
	return globalCtx, globalCtxSet
}
