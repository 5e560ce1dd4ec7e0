// Package cullmeta reads and writes the per-image cull sidecar files.
//
// A sidecar sits next to the preview as <preview base>.cull.json and records
// the user's disposition of the source image. Missing or unreadable sidecars
// are treated as StateNew so a damaged file never blocks a culling session.
package cullmeta
