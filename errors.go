package reactive

import (
	"fmt"
)

// IdentityConflictError is returned when a create call targets a (type, key)
// pair that already holds a live cell.
type IdentityConflictError struct {
	Type string
	Key  string
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("identity conflict: a cell of type %s with key %q is already registered", e.Type, e.Key)
}

// InvalidRelationError is returned when a proposed relation would make the
// cell under construction an ancestor of one of its own dependencies. It
// carries enough context to diagnose the edge without inspecting the graph.
type InvalidRelationError struct {
	// Node is the identity of the cell under construction.
	Node string
	// Ancestor is the identity of the cell found on the offending path.
	Ancestor string
	// Problem is a plain-language statement of what is wrong.
	Problem string
	// Remediation suggests how to break the dependency.
	Remediation string
}

func (e *InvalidRelationError) Error() string {
	return fmt.Sprintf("invalid relation for %s: %s (ancestor: %s). %s", e.Node, e.Problem, e.Ancestor, e.Remediation)
}

func newInvalidRelationError(node, ancestor cellIdentity, problem string) *InvalidRelationError {
	return &InvalidRelationError{
		Node:     node.String(),
		Ancestor: ancestor.String(),
		Problem:  problem,
		Remediation: "break the dependency by removing it from one side, " +
			"or introduce an intermediate coordinating cell with no back-reference",
	}
}

// StateError reports misuse of a cell's lifecycle, such as recreating a
// disposed instance or recreating from inside an in-flight recreate.
type StateError struct {
	Op     string
	Type   string
	Key    string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s on cell %s(key=%q): %s", e.Op, e.Type, e.Key, e.Reason)
}

// MissingRelationError is returned by From when a cell has no related cell of
// the requested type (and key, when one was given).
type MissingRelationError struct {
	Owner     string
	Requested string
	Key       string
}

func (e *MissingRelationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cell %s has no related cell of type %s with key %q", e.Owner, e.Requested, e.Key)
	}
	return fmt.Sprintf("cell %s has no related cell of type %s", e.Owner, e.Requested)
}

// ContextError is returned by RequireContext when neither a per-instance nor
// a global context handle is attached.
type ContextError struct {
	Operation string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("no context attached for operation %q: attach one with SetContext or InitGlobalContext", e.Operation)
}

// NoDataError is returned by AsyncState.Data when the state carries no
// payload and no captured error (Initial, Loading or Empty).
type NoDataError struct {
	Status AsyncStatus
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("async state %s carries no data", e.Status)
}
