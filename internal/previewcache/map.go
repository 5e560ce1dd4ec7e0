package previewcache

import (
	"path/filepath"
	"sync"
	"time"
)

// DefaultRetryInterval is the pause between wake attempts in complete.
const DefaultRetryInterval = 10 * time.Millisecond

type entry struct {
	mu     sync.RWMutex
	signal *Signal
	state  State
	reason string
}

// Map is the shared preview status map of the active directory.
type Map struct {
	mu      sync.RWMutex
	entries map[string]*entry
	resets  uint64
	retry   time.Duration
}

// New returns an empty map; retry <= 0 selects DefaultRetryInterval.
func New(retry time.Duration) *Map {
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	return &Map{entries: make(map[string]*entry), retry: retry}
}

// Canonical returns the key form of a preview path.
func Canonical(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Reset replaces every entry with one pending entry per path. Entries of the
// previous directory that are still pending are invalidated and their
// subscribers woken; they observe the path as not tracked afterwards unless
// the new set registers it again. It returns the number invalidated.
func (m *Map) Reset(paths []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	invalidated := 0
	for _, e := range m.entries {
		e.mu.Lock()
		if e.signal != nil {
			sig := e.signal
			e.signal = nil
			e.state = StateNotTracked
			sig.Broadcast()
			invalidated++
		}
		e.mu.Unlock()
	}

	m.entries = make(map[string]*entry, len(paths))
	for _, path := range paths {
		key := Canonical(path)
		if _, ok := m.entries[key]; ok {
			continue
		}
		m.entries[key] = &entry{signal: newSignal(), state: StatePending}
	}
	m.resets++
	return invalidated
}

// Tracked reports whether path belongs to the current pending set.
func (m *Map) Tracked(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[Canonical(path)]
	return ok
}

// Lookup resolves path. For pending entries the returned Lookup is already
// subscribed to the entry's signal, so a completion after Lookup returns is
// never missed.
func (m *Map) Lookup(path string) Lookup {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[Canonical(path)]
	if !ok {
		return Lookup{State: StateNotTracked}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.signal != nil {
		return Lookup{State: StatePending, wait: e.signal.Subscribe()}
	}
	return Lookup{State: e.state, Reason: e.reason}
}

// MarkReady records a finished preview and wakes its waiters. It returns false
// when path is untracked or was already completed.
func (m *Map) MarkReady(path string) bool {
	return m.complete(path, StateReady, "")
}

// MarkFailed records a failed preview and wakes its waiters. The error text
// is kept as the lookup reason.
func (m *Map) MarkFailed(path string, cause error) bool {
	reason := "preview generation failed"
	if cause != nil {
		reason = cause.Error()
	}
	return m.complete(path, StateFailed, reason)
}

func (m *Map) complete(path string, state State, reason string) bool {
	m.mu.RLock()
	e, ok := m.entries[Canonical(path)]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	for {
		// A reader holding the slot shared is mid-subscription. Blocking on
		// the exclusive lock here could stall behind it, so wake it instead
		// and retry.
		if e.mu.TryLock() {
			if e.signal == nil {
				e.mu.Unlock()
				return false
			}
			sig := e.signal
			e.signal = nil
			e.state = state
			e.reason = reason
			sig.Broadcast()
			e.mu.Unlock()
			return true
		}

		e.mu.RLock()
		if e.signal != nil {
			e.signal.Broadcast()
		}
		e.mu.RUnlock()
		time.Sleep(m.retry)
	}
}

// Snapshot counts entries by state.
func (m *Map) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Tracked: len(m.entries), Resets: m.resets}
	for _, e := range m.entries {
		e.mu.RLock()
		switch {
		case e.signal != nil:
			stats.Pending++
		case e.state == StateReady:
			stats.Ready++
		case e.state == StateFailed:
			stats.Failed++
		}
		e.mu.RUnlock()
	}
	return stats
}
