package filter

import (
	"errors"
	"fmt"
)

// MaxFilterSize is the upper bound on the JSON-encoded size of a single
// filter definition. Larger definitions are rejected outright to bound the
// cost of evaluating adversarial input.
const MaxFilterSize = 100 * 1024

// StructuralError reports a blob that is neither a boolean nor a string-keyed
// map matching any known expression key set.
type StructuralError struct {
	Value any
}

func (e *StructuralError) Error() string {
	return "expression is not a logical expression of any kind (boolean, rule, conditional expression, group expression, or filter)"
}

// SizeError reports a filter definition whose encoded form exceeds MaxFilterSize.
type SizeError struct {
	Size int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("encoded filter definition is %d bytes, exceeding the %d byte limit", e.Size, MaxFilterSize)
}

// ErrNoMatch is returned by FirstSuccess when the object passes no filter in the list.
var ErrNoMatch = errors.New("object did not pass any filter in the list")

// ErrInvalidFilter is returned by the execute functions when the given
// definition does not validate against the target.
var ErrInvalidFilter = errors.New("filter is not valid")
