package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SecretPocketCat/chela/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CullRoot = filepath.Join(base, "photos")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Preview.Workers = 2
	cfgVal.Preview.NotifyRetryMS = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers overrides the pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Preview.Workers = n
	}
}

// WithSubdir overrides the preview subdirectory on the test config.
func WithSubdir(subdir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Preview.Subdir = subdir
	}
}

// WithStubMagick writes a converter stub named after the configured preview
// binary and prepends it to PATH. The stub copies its first argument to its
// last, so a source holding a valid preview encoding yields a valid preview.
// Sources whose name contains "corrupt" make it exit 1 with a message.
func WithStubMagick() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		WriteStubBinary(b.t, binDir, b.cfg.Preview.Binary, MagickCopyScript)
		oldPath := os.Getenv("PATH")
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath)
	}
}

// MagickCopyScript is a shell stand-in for the ImageMagick CLI.
const MagickCopyScript = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "Version: ImageMagick 7.1.1-29 (stub)"
  exit 0
fi
src="$1"
for last; do :; done
case "$src" in
  *corrupt*) echo "magick: no decode delegate for this image format" >&2; exit 1 ;;
esac
cp "$src" "$last"
`

// WriteStubBinary writes an executable script into dir.
func WriteStubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
