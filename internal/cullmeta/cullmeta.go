package cullmeta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/SecretPocketCat/chela/internal/fileutil"
)

// Extension is appended to the preview base name to form the sidecar path.
const Extension = ".cull.json"

// State is the user-assigned disposition of a source image.
type State string

const (
	StateNew      State = "new"
	StateSelected State = "selected"
	StateRejected State = "rejected"
)

// ParseState validates a cull state string.
func ParseState(value string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(value))) {
	case StateNew:
		return StateNew, nil
	case StateSelected:
		return StateSelected, nil
	case StateRejected:
		return StateRejected, nil
	default:
		return "", fmt.Errorf("unknown cull state %q", value)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Meta is the sidecar payload.
type Meta struct {
	CullState State `json:"cullState"`
}

// SidecarPath derives the sidecar location for a preview path.
func SidecarPath(previewPath string) string {
	return strings.TrimSuffix(previewPath, filepath.Ext(previewPath)) + Extension
}

// ReadOrDefault loads the sidecar for previewPath. Any read or decode failure
// yields a Meta with StateNew.
func ReadOrDefault(previewPath string) Meta {
	meta, err := Read(previewPath)
	if err != nil {
		return Meta{CullState: StateNew}
	}
	return meta
}

// Read loads the sidecar for previewPath, returning fs.ErrNotExist when absent.
func Read(previewPath string) (Meta, error) {
	data, err := os.ReadFile(SidecarPath(previewPath))
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("decode cull sidecar: %w", err)
	}
	if meta.CullState == "" {
		meta.CullState = StateNew
	}
	return meta, nil
}

// Write stores meta for previewPath, creating the preview directory if needed.
func Write(previewPath string, meta Meta) error {
	path := SidecarPath(previewPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sidecar directory: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cull sidecar: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write cull sidecar: %w", err)
	}
	return nil
}

// Update sets the state for each preview path, writing only sidecars whose
// state changed. It returns the number of sidecars written.
func Update(states map[string]State) (int, error) {
	written := 0
	var errs []error
	for previewPath, state := range states {
		current := ReadOrDefault(previewPath)
		if current.CullState == state {
			continue
		}
		current.CullState = state
		if err := Write(previewPath, current); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", previewPath, err))
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}
