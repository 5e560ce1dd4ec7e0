// Package previewcache tracks which previews of the active directory are still
// being generated and lets readers wait for them.
//
// A Map holds one entry per preview path that had no preview file when the
// directory was opened. Absence from the map means the preview needs no wait.
// Each entry owns a Signal that pending readers subscribe to; a worker
// finishing the preview clears the signal while waking every subscriber.
//
// Locking is two-level: Map.mu guards the key set and is only held briefly,
// entry.mu guards the signal slot and outcome. Readers hold entry.mu shared
// only while observing the slot and subscribing, never while waiting. Workers
// complete an entry with the try-exclusive / notify-shared / retry loop in
// complete.
package previewcache
