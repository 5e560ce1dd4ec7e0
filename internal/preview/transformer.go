package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Constraints bound the rendered preview.
type Constraints struct {
	MaxWidth    int
	MaxHeight   int
	Quality     int
	ThreadLimit int
}

// Geometry returns the shrink-only ImageMagick resize geometry.
func (c Constraints) Geometry() string {
	return fmt.Sprintf("%dx%d>", c.MaxWidth, c.MaxHeight)
}

// Transformer produces a preview at dest from source.
type Transformer interface {
	Transform(ctx context.Context, source, dest string, c Constraints) error
}

// CommandError reports a converter process that failed to start or exited
// non-zero. Output holds the combined stdout and stderr.
type CommandError struct {
	Binary string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Binary, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Binary, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Option configures the Magick transformer.
type Option func(*Magick)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(m *Magick) {
		if binary = strings.TrimSpace(binary); binary != "" {
			m.binary = binary
		}
	}
}

// Magick renders previews with the ImageMagick CLI.
type Magick struct {
	binary string
}

// NewMagick constructs a transformer using defaults.
func NewMagick(opts ...Option) *Magick {
	m := &Magick{binary: "magick"}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Binary returns the executable the transformer invokes.
func (m *Magick) Binary() string {
	return m.binary
}

// Args builds the converter argument list for one render.
func (m *Magick) Args(source, dest string, c Constraints) []string {
	threads := c.ThreadLimit
	if threads <= 0 {
		threads = 1
	}
	return []string{
		source,
		"-quality", strconv.Itoa(c.Quality),
		"-auto-orient",
		"-resize", c.Geometry(),
		"-limit", "thread", strconv.Itoa(threads),
		dest,
	}
}

// Transform renders source into dest. The converter writes a sibling
// temporary file with the same extension which is renamed over dest.
func (m *Magick) Transform(ctx context.Context, source, dest string, c Constraints) error {
	if source == "" || dest == "" {
		return errors.New("source and destination required")
	}

	dir := filepath.Dir(dest)
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(filepath.Base(dest), ext)
	tmp, err := os.CreateTemp(dir, "."+stem+"-*"+ext)
	if err != nil {
		return fmt.Errorf("create temp preview: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	cmd := commandContext(ctx, m.binary, m.Args(source, tmpPath, c)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(tmpPath)
		return &CommandError{Binary: m.binary, Output: strings.TrimSpace(string(output)), Err: err}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize preview: %w", err)
	}
	return nil
}
