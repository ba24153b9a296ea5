package reactive

// OperationKind identifies the mutation path reported to extensions.
type OperationKind string

const (
	// OpUpdate is a notifying value replacement.
	OpUpdate OperationKind = "update"
	// OpUpdateSilent is a value replacement with notification suppressed.
	OpUpdateSilent OperationKind = "update-silent"
	// OpRecreate is an in-place factory re-invocation.
	OpRecreate OperationKind = "recreate"
	// OpAsyncSuccess is an async load settling with data.
	OpAsyncSuccess OperationKind = "async-success"
	// OpAsyncError is an async load settling with an error.
	OpAsyncError OperationKind = "async-error"
)

// Extension observes registry lifecycle events for cross-cutting concerns
// such as logging and metrics, without occupying the public observer
// channel of any cell.
type Extension interface {
	// Name returns the extension's name.
	Name() string

	// OnCreate fires after a cell is committed to the registry, including
	// resurrection after disposal.
	OnCreate(cell AnyCell)

	// OnChange fires for every mutation path, silent or notifying.
	OnChange(cell AnyCell, kind OperationKind)

	// OnDispose fires after a cell is removed from the registry.
	OnDispose(cell AnyCell)
}

// BaseExtension provides no-op implementations for Extension methods.
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a base extension with the given name.
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) OnCreate(cell AnyCell) {
}

func (e *BaseExtension) OnChange(cell AnyCell, kind OperationKind) {
}

func (e *BaseExtension) OnDispose(cell AnyCell) {
}
