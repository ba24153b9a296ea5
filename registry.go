package reactive

import (
	"sync"
	"time"
)

// Registry owns every live cell in a process. Exactly one non-disposed cell
// exists per (type, key) at any time. Most programs use the package default
// registry; tests typically construct their own and call Cleanup between
// units of work.
type Registry struct {
	mu           sync.Mutex
	store        *registryStore
	extensions   []Extension
	disposeDelay time.Duration
}

// RegistryOption configures a registry.
type RegistryOption func(*Registry)

// WithExtension registers a lifecycle extension.
func WithExtension(ext Extension) RegistryOption {
	return func(r *Registry) {
		r.extensions = append(r.extensions, ext)
	}
}

// WithDisposeDelay sets the default auto-dispose debounce for cells created
// in this registry.
func WithDisposeDelay(delay time.Duration) RegistryOption {
	return func(r *Registry) {
		r.disposeDelay = delay
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		store:        newRegistryStore(),
		disposeDelay: defaultDisposeDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// UseExtension registers a lifecycle extension after construction.
func (r *Registry) UseExtension(ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions = append(r.extensions, ext)
}

// Create constructs a cell and registers it under (type of T, key). Creating
// over an occupied key fails with IdentityConflictError; an invalid relation
// set fails with InvalidRelationError and commits nothing.
func Create[T any](r *Registry, factory func() T, opts ...CellOption) (*Cell[T], error) {
	cfg := cellConfig{disposeDelay: r.disposeDelay}
	for _, opt := range opts {
		opt(&cfg)
	}

	keyless := cfg.key == ""
	if keyless {
		cfg.key = mintKey()
	}
	id := cellIdentity{typ: typeToken[T](), key: cfg.key}

	r.mu.Lock()
	if existing, ok := r.store.Load(id); ok && !existing.Disposed() {
		r.mu.Unlock()
		return nil, &IdentityConflictError{Type: id.typ.String(), Key: id.key}
	}
	if err := validateRelations(id, cfg.related); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()

	c := &Cell[T]{
		registry:     r,
		id:           id,
		keyless:      keyless,
		factory:      factory,
		related:      cfg.related,
		refs:         make(map[string]struct{}),
		autoDispose:  cfg.autoDispose,
		disposeDelay: cfg.disposeDelay,
	}
	c.value = factory()

	r.mu.Lock()
	if existing, ok := r.store.Load(id); ok && !existing.Disposed() {
		r.mu.Unlock()
		return nil, &IdentityConflictError{Type: id.typ.String(), Key: id.key}
	}
	r.store.Store(id, c)
	r.mu.Unlock()

	r.fireCreate(c)
	return c, nil
}

// Get looks up a live cell by key. An empty key resolves by type alone and
// requires exactly one live cell of that type.
func Get[T any](r *Registry, key string) (*Cell[T], error) {
	t := typeToken[T]()

	if key != "" {
		id := cellIdentity{typ: t, key: key}
		cell, ok := r.store.Load(id)
		if !ok || cell.Disposed() {
			return nil, &StateError{Op: "get", Type: t.String(), Key: key, Reason: "no live cell registered"}
		}
		return cell.(*Cell[T]), nil
	}

	var matches []*Cell[T]
	r.store.Range(func(id cellIdentity, cell AnyCell) bool {
		if id.typ == t && !cell.Disposed() {
			matches = append(matches, cell.(*Cell[T]))
		}
		return true
	})
	switch len(matches) {
	case 0:
		return nil, &StateError{Op: "get", Type: t.String(), Reason: "no live cell registered"}
	case 1:
		return matches[0], nil
	default:
		return nil, &StateError{Op: "get", Type: t.String(), Reason: "multiple live cells of this type, qualify the lookup with a key"}
	}
}

// IsActive reports whether a live cell exists for (type of T, key).
func IsActive[T any](r *Registry, key string) bool {
	cell, ok := r.store.Load(cellIdentity{typ: typeToken[T](), key: key})
	return ok && !cell.Disposed()
}

// Count returns the number of live cells in the registry.
func (r *Registry) Count() int {
	count := 0
	r.store.Range(func(id cellIdentity, cell AnyCell) bool {
		if !cell.Disposed() {
			count++
		}
		return true
	})
	return count
}

// CountByType returns the number of live cells holding a T.
func CountByType[T any](r *Registry) int {
	t := typeToken[T]()
	count := 0
	r.store.Range(func(id cellIdentity, cell AnyCell) bool {
		if id.typ == t && !cell.Disposed() {
			count++
		}
		return true
	})
	return count
}

// Cleanup disposes every live cell and empties the registry. It is the full
// reset point between independent units of work.
func (r *Registry) Cleanup() {
	var cells []AnyCell
	r.store.Range(func(id cellIdentity, cell AnyCell) bool {
		cells = append(cells, cell)
		return true
	})
	for _, cell := range cells {
		cell.Dispose()
	}
	r.store.Clear()
}

// RecreateInstance re-invokes the factory for the cell at (type of T, key),
// replacing the value in place. The cell identity and its observers are
// preserved, a single notification fires, and controller init hooks re-run.
// Recreating a disposed cell, or recreating from inside the init the
// recreate itself triggered, fails with StateError.
func RecreateInstance[T any](r *Registry, key string, factory func() T) (T, error) {
	var zero T
	t := typeToken[T]()
	id := cellIdentity{typ: t, key: key}

	entry, ok := r.store.Load(id)
	if !ok {
		return zero, &StateError{Op: "recreate", Type: t.String(), Key: key, Reason: "no cell registered"}
	}
	cell := entry.(*Cell[T])

	cell.mu.Lock()
	if cell.disposed {
		cell.mu.Unlock()
		return zero, &StateError{Op: "recreate", Type: t.String(), Key: key, Reason: "cell is disposed"}
	}
	if cell.recreating {
		cell.mu.Unlock()
		return zero, &StateError{Op: "recreate", Type: t.String(), Key: key, Reason: "recreate already in flight for this cell"}
	}
	cell.recreating = true
	cell.mu.Unlock()

	newVal := factory()

	cell.mu.Lock()
	cell.value = newVal
	hook := cell.onRecreate
	cell.mu.Unlock()

	r.fireChange(cell, OpRecreate)
	cell.Notify()
	if hook != nil {
		hook()
	}

	cell.mu.Lock()
	cell.recreating = false
	cell.mu.Unlock()

	return newVal, nil
}

// From resolves a related cell of type T, optionally qualified by key, and
// returns its current value. A missing relation is a MissingRelationError
// naming the requested type.
func From[T any](cell AnyCell, key ...string) (T, error) {
	var zero T
	t := typeToken[T]()
	wanted := ""
	if len(key) > 0 {
		wanted = key[0]
	}

	for _, rel := range cell.relatedCells() {
		rid := rel.identity()
		if rid.typ != t {
			continue
		}
		if wanted != "" && rid.key != wanted {
			continue
		}
		return rel.(*Cell[T]).Value(), nil
	}
	return zero, &MissingRelationError{
		Owner:     cell.identity().String(),
		Requested: t.String(),
		Key:       wanted,
	}
}

// detach removes a disposed cell from the store.
func (r *Registry) detach(cell AnyCell) {
	r.store.Delete(cell.identity())
	r.fireDispose(cell)
}

// reattach restores a resurrected cell under its original identity.
func (r *Registry) reattach(cell AnyCell) {
	r.store.Store(cell.identity(), cell)
	r.fireCreate(cell)
}

// propagate notifies every live cell whose relation set contains origin.
// Propagation recurses through Notify; the acyclic relation invariant bounds
// the walk.
func (r *Registry) propagate(origin AnyCell) {
	originID := origin.identity()
	var dependents []AnyCell
	r.store.Range(func(id cellIdentity, cell AnyCell) bool {
		if id == originID || cell.Disposed() {
			return true
		}
		for _, rel := range cell.relatedCells() {
			if rel.identity() == originID {
				dependents = append(dependents, cell)
				break
			}
		}
		return true
	})
	for _, dep := range dependents {
		dep.Notify()
	}
}

func (r *Registry) snapshotExtensions() []Extension {
	r.mu.Lock()
	defer r.mu.Unlock()
	exts := make([]Extension, len(r.extensions))
	copy(exts, r.extensions)
	return exts
}

func (r *Registry) fireCreate(cell AnyCell) {
	for _, ext := range r.snapshotExtensions() {
		ext.OnCreate(cell)
	}
}

func (r *Registry) fireChange(cell AnyCell, kind OperationKind) {
	for _, ext := range r.snapshotExtensions() {
		ext.OnChange(cell, kind)
	}
}

func (r *Registry) fireDispose(cell AnyCell) {
	for _, ext := range r.snapshotExtensions() {
		ext.OnDispose(cell)
	}
}
