package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SecretPocketCat/chela/internal/cullmeta"
	"github.com/SecretPocketCat/chela/internal/fileutil"
	"github.com/SecretPocketCat/chela/internal/images"
	"github.com/SecretPocketCat/chela/internal/logging"
	"github.com/SecretPocketCat/chela/internal/previewcache"
)

// ErrInvalidDir reports an open request for a path that is not a directory.
var ErrInvalidDir = errors.New("not a directory")

// ImageDir is the result of opening a directory.
type ImageDir struct {
	Path    string         `json:"path"`
	DirName string         `json:"dirName"`
	Images  []images.Image `json:"images"`
	Pending int            `json:"pending"`
	BatchID string         `json:"batchId,omitempty"`
}

type activeDir struct {
	path     string
	previews map[string]struct{}
}

func (a *activeDir) has(previewPath string) bool {
	if a == nil {
		return false
	}
	_, ok := a.previews[previewcache.Canonical(previewPath)]
	return ok
}

// OpenDir makes dir the active directory. The status map is reset to the
// previews that do not exist yet and the batch is dispatched before OpenDir
// returns; concurrent calls are serialized.
func (d *Daemon) OpenDir(ctx context.Context, dir string) (ImageDir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ImageDir{}, fmt.Errorf("%w: %v", ErrInvalidDir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return ImageDir{}, fmt.Errorf("%w: %s: %v", ErrInvalidDir, abs, err)
	}
	if !info.IsDir() {
		return ImageDir{}, fmt.Errorf("%w: %s", ErrInvalidDir, abs)
	}

	d.openMu.Lock()
	defer d.openMu.Unlock()

	imgs, err := images.Enumerate(ctx, abs, images.Options{
		Subdir:    d.cfg.Preview.Subdir,
		Extension: d.cfg.PreviewExtension(),
	})
	if err != nil {
		return ImageDir{}, err
	}

	known := make(map[string]struct{}, len(imgs))
	pendingPaths := make([]string, 0, len(imgs))
	pendingJobs := make([]images.Job, 0, len(imgs))
	for _, img := range imgs {
		known[previewcache.Canonical(img.PreviewPath)] = struct{}{}
		exists, err := fileutil.Exists(img.PreviewPath)
		if err != nil {
			return ImageDir{}, fmt.Errorf("%w: %v", images.ErrEnumeration, err)
		}
		if exists {
			continue
		}
		pendingPaths = append(pendingPaths, img.PreviewPath)
		pendingJobs = append(pendingJobs, img.Job)
	}

	// The active directory is published before the reset so a request for a
	// preview that already exists is never checked against the old one.
	previous := d.active.Swap(&activeDir{path: abs, previews: known})
	invalidated := d.cache.Reset(pendingPaths)

	result := ImageDir{
		Path:    abs,
		DirName: filepath.Base(abs),
		Images:  imgs,
		Pending: len(pendingJobs),
	}
	logger := logging.WithContext(ctx, d.logger).With(logging.String("dir", abs))

	if len(pendingJobs) > 0 {
		batchID, err := d.pool.Submit(ctx, pendingJobs)
		if err != nil {
			// Nothing was queued, so no worker will ever complete these
			// entries. Drop them and fall back to the previous directory.
			d.cache.Reset(nil)
			d.active.Store(previous)
			logging.WarnWithContext(logger, "directory open abandoned", "open_dir_dispatch_failed",
				logging.Int("pending", len(pendingJobs)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "retry the open once the current batch is scheduled"),
				logging.String(logging.FieldImpact, "previews of this directory were not queued"),
			)
			return ImageDir{}, fmt.Errorf("queue previews: %w", err)
		}
		result.BatchID = batchID
		logger = logger.With(logging.String(logging.FieldBatchID, batchID))
	}

	logger.Info("directory opened",
		logging.Int("images", len(imgs)),
		logging.Int("pending", len(pendingJobs)),
		logging.Int("invalidated", invalidated),
	)
	return result, nil
}

// Cull records cull states for previews of the active directory. A path that
// is not a preview of the active directory rejects the whole request.
func (d *Daemon) Cull(states map[string]cullmeta.State) (int, error) {
	active := d.active.Load()
	if active == nil {
		return 0, fmt.Errorf("%w: no directory open", ErrUnknownPreview)
	}
	for path := range states {
		if !active.has(path) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownPreview, path)
		}
	}
	written, err := cullmeta.Update(states)
	if err != nil {
		return written, err
	}
	d.logger.Debug("cull states recorded", logging.Int("requested", len(states)), logging.Int("written", written))
	return written, nil
}

// ErrUnknownPreview reports a path that is not a preview of the active directory.
var ErrUnknownPreview = errors.New("unknown preview")

// ActiveDir returns the path of the active directory, or "".
func (d *Daemon) ActiveDir() string {
	if dir := d.active.Load(); dir != nil {
		return dir.path
	}
	return ""
}

func (d *Daemon) isActivePreview(path string) bool {
	return d.active.Load().has(path)
}
