package reactive

import (
	"fmt"
)

// validateRelations checks a proposed relation set before the cell under
// construction is committed to the registry. It walks each candidate's own
// relation graph depth-first; finding the new cell's identity anywhere on a
// path is a cycle, and finding any already-visited ancestor again is
// rejected as well. Validation failing means nothing was committed, so no
// undo path exists.
func validateRelations(node cellIdentity, related []AnyCell) error {
	if len(related) == 0 {
		return nil
	}

	seen := make(map[cellIdentity]bool, len(related)*2)

	for _, root := range related {
		stack := make([]AnyCell, 0, 8)
		stack = append(stack, root)

		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			currentID := current.identity()
			if currentID == node {
				return newInvalidRelationError(node, currentID, fmt.Sprintf(
					"%s cannot depend on %s because %s already (transitively) depends on %s, which would create a cycle",
					node, root.identity(), root.identity(), node,
				))
			}
			if seen[currentID] {
				return newInvalidRelationError(node, currentID, fmt.Sprintf(
					"%s appears on more than one dependency path of %s",
					currentID, node,
				))
			}
			seen[currentID] = true

			next := current.relatedCells()
			for i := len(next) - 1; i >= 0; i-- {
				stack = append(stack, next[i])
			}
		}
	}

	return nil
}
