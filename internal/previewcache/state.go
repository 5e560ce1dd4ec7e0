package previewcache

import (
	"context"
	"errors"
)

// ErrNotTracked reports a path the active directory never registered.
var ErrNotTracked = errors.New("preview not tracked")

// State is the cache state of a preview path as seen by a reader.
type State int

const (
	// StateNotTracked means the path is absent: its preview existed when the
	// directory was opened, or it belongs to no open directory.
	StateNotTracked State = iota
	// StatePending means generation has been requested and not finished.
	StatePending
	// StateReady means generation finished and the file can be served.
	StateReady
	// StateFailed means generation failed; Lookup.Reason holds the cause.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "not_tracked"
	}
}

// Lookup is the result of resolving a path against the map.
type Lookup struct {
	State  State
	Reason string
	wait   <-chan struct{}
}

// Wait blocks until the subscribed signal fires or ctx ends. It returns
// immediately for non-pending lookups.
func (l Lookup) Wait(ctx context.Context) error {
	if l.State != StatePending || l.wait == nil {
		return nil
	}
	select {
	case <-l.wait:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats summarizes the map for status reporting.
type Stats struct {
	Tracked int    `json:"tracked"`
	Pending int    `json:"pending"`
	Ready   int    `json:"ready"`
	Failed  int    `json:"failed"`
	Resets  uint64 `json:"resets"`
}
