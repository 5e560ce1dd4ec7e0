// Package preview renders and checks preview files.
//
// Transformer is the capability the generation pool depends on. Magick is the
// production implementation, which shells out to ImageMagick and writes
// through a temporary file so a preview path only ever holds complete output.
// Validate decodes the header of a rendered file to confirm the converter
// produced the expected format within the configured bounds.
package preview
