// internal/block/errors.go
package block

import "errors"

var (
	ErrInvalidInterval  = errors.New("block: interval end before start")
	ErrOutOfBounds      = errors.New("block: buffer access out of bounds")
	ErrNotContained     = errors.New("block: child interval not contained in parent")
	ErrModeMismatch     = errors.New("block: task mode not accepted here")
	ErrNotRunnable      = errors.New("block: task has no behavior for its mode")
	ErrReadNotSucceeded = errors.New("block: read did not succeed, operation aborted")
	ErrAlreadyRun       = errors.New("block: toplevel task already run")
)
