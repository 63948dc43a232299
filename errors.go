package hashkv

import (
	"fmt"
)

var (
	// ErrCannotResize is returned by Expand and Resize when the table cannot
	// change size right now: a rehash is in progress, the target is below
	// the current entry count or equal to the current size, or resizing is
	// disabled. Callers generally ignore it.
	ErrCannotResize = fmt.Errorf("hashkv: resize not possible in current state")

	// ErrIteratorInvalidated is returned by Iterator.Release when the Dict
	// was mutated during unsafe iteration.
	ErrIteratorInvalidated = fmt.Errorf("hashkv: dict mutated during unsafe iteration")
)

// strictMode turns contract violations into panics instead of returned
// errors. Tests and debug builds enable it.
var strictMode = false

// SetStrict controls whether contract violations (such as a fingerprint
// mismatch at unsafe-iterator release) panic instead of surfacing as errors.
func SetStrict(on bool) { strictMode = on }
