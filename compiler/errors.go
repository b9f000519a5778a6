package compiler

import (
	"errors"
	"fmt"
)

// ErrStructure matches every *StructureError.
var ErrStructure = errors.New("compiler: template must have exactly one root element")

// A StructureError reports a template whose top level is not a single,
// non-repeating element.
type StructureError struct {
	Count  int    // number of top-level nodes
	Reason string // set when Count is 1
}

func (e *StructureError) Error() string {
	if e.Count != 1 {
		return fmt.Sprintf("compiler: template must have exactly one root element, got %d top-level nodes", e.Count)
	}
	return "compiler: " + e.Reason
}

func (e *StructureError) Is(target error) bool { return target == ErrStructure }
