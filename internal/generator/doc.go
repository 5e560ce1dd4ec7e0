// Package generator runs the preview generation pool.
//
// A Pool owns a fixed set of worker goroutines and a Dispatch channel holding
// at most one pending batch. A single dispatcher goroutine takes batches off
// the channel and hands their jobs to the workers, last capture first so the
// image a user lands on after opening a directory is rendered early.
//
// Workers consult the shared previewcache.Map before doing anything: a job
// whose preview path is no longer tracked belongs to a directory that was
// replaced and is dropped. Successful renders and previews that already exist
// are marked ready; failures are recorded on the map and never stop a worker.
package generator
