package previewcache

import "context"

// Await resolves path, waiting while it is pending. Every wake is followed by
// a fresh lookup, so the returned state is never StatePending unless ctx ended.
func (m *Map) Await(ctx context.Context, path string) (Lookup, error) {
	for {
		lookup := m.Lookup(path)
		if lookup.State != StatePending {
			return lookup, nil
		}
		if err := lookup.Wait(ctx); err != nil {
			return lookup, err
		}
	}
}
