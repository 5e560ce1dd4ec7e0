package generator

import (
	"errors"
	"fmt"
)

// ErrDispatchClosed is returned by Submit once the pool has stopped.
var ErrDispatchClosed = errors.New("dispatch channel closed")

// ErrPoolStopped is the failure reason recorded for jobs the pool dropped
// while stopping.
var ErrPoolStopped = errors.New("generator stopped before the preview was rendered")

// GenerationError describes a preview that could not be produced.
type GenerationError struct {
	Path   string
	Output string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate preview %s: %v", e.Path, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
