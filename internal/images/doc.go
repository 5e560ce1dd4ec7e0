// Package images enumerates a working directory into preview jobs.
//
// It matches camera RAW files (falling back to JPEG/PNG when a directory holds
// no RAW files), derives each image's preview path inside a sibling preview
// subdirectory, reads capture times and cull sidecars, and returns the images
// ordered by capture time. GroupBursts splits that ordered list into bursts.
package images
