// Package daemon coordinates the long-running chela process.
//
// It wires configuration, the preview status map, the generation pool, and the
// preview HTTP server into a single lifecycle with flock-based locking to
// prevent multiple instances. OpenDir is the directory-open workflow: it
// enumerates images, resets the status map to the previews that still need
// rendering, and dispatches the batch before returning.
//
// Keep orchestration logic here: rendering and waiting live in generator and
// previewcache while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
