package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WebP returns a minimal lossless WebP stream of the given dimensions. Only
// the header is meaningful; it is enough for image.DecodeConfig.
func WebP(width, height int) []byte {
	const chunkLen = 5
	bits := uint32(width-1)&0x3fff | (uint32(height-1)&0x3fff)<<14

	buf := make([]byte, 0, 26)
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, 4+8+chunkLen+1)
	buf = append(buf, "WEBP"...)
	buf = append(buf, "VP8L"...)
	buf = binary.LittleEndian.AppendUint32(buf, chunkLen)
	buf = append(buf, 0x2f)
	buf = binary.LittleEndian.AppendUint32(buf, bits)
	buf = append(buf, 0)
	return buf
}

// WriteSource writes a fake camera file whose bytes are a valid WebP preview
// so the copy stub produces decodable output. Its timestamps are set to
// created.
func WriteSource(t testing.TB, path string, created time.Time) {
	t.Helper()
	WriteBytes(t, path, WebP(64, 48))
	if err := os.Chtimes(path, created, created); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// WriteBytes creates parent directories and writes data to path.
func WriteBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
