package images

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/SecretPocketCat/chela/internal/cullmeta"
)

var (
	// ErrEnumeration marks filesystem failures while listing a directory.
	ErrEnumeration = errors.New("enumerate images")
	// ErrNoImages is returned when a directory holds no supported images.
	ErrNoImages = errors.New("no images")
)

// RawExtensions lists the camera RAW extensions recognised by Enumerate.
var RawExtensions = []string{".arw", ".cr2", ".cr3", ".nef", ".raf", ".orf", ".rw2", ".dng"}

// FallbackExtensions are matched only when a directory contains no RAW files.
var FallbackExtensions = []string{".jpg", ".jpeg", ".png"}

const metadataConcurrency = 16

// Job is one source image queued for preview generation. PreviewPath is its identity.
type Job struct {
	SourcePath  string    `json:"path"`
	PreviewPath string    `json:"previewPath"`
	Created     time.Time `json:"created"`
}

// Image is a job together with its recorded cull state.
type Image struct {
	Job
	State cullmeta.State `json:"state"`
}

// Options controls preview path derivation.
type Options struct {
	// Subdir is the sibling directory previews are written to, e.g. "_preview".
	Subdir string
	// Extension is the preview file extension without the dot, e.g. "webp".
	Extension string
}

// PreviewPath maps .../100MSDCF/DSC001.ARW to .../100MSDCF/<subdir>/DSC001.<ext>.
func PreviewPath(source string, opts Options) (string, error) {
	base := filepath.Base(source)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", fmt.Errorf("invalid source path %q", source)
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "", fmt.Errorf("source path %q has no file name", source)
	}
	ext := strings.TrimPrefix(opts.Extension, ".")
	return filepath.Join(filepath.Dir(source), opts.Subdir, stem+"."+ext), nil
}

// HasExtension reports whether path ends in one of exts, ignoring case.
func HasExtension(path string, exts []string) bool {
	folder := cases.Fold()
	ext := folder.String(filepath.Ext(path))
	for _, candidate := range exts {
		if ext == folder.String(candidate) {
			return true
		}
	}
	return false
}

// Enumerate lists the images of dir (non-recursive) sorted by capture time.
func Enumerate(ctx context.Context, dir string, opts Options) ([]Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrEnumeration, dir, err)
	}

	sources := matchEntries(dir, entries, RawExtensions)
	if len(sources) == 0 {
		sources = matchEntries(dir, entries, FallbackExtensions)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}

	images := make([]Image, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataConcurrency)
	for i, source := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := describe(source, opts)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrEnumeration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}

	SortByCreated(images)
	return images, nil
}

func matchEntries(dir string, entries []os.DirEntry, exts []string) []string {
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if HasExtension(entry.Name(), exts) {
			out = append(out, filepath.Join(dir, entry.Name()))
		}
	}
	return out
}

func describe(source string, opts Options) (Image, error) {
	preview, err := PreviewPath(source, opts)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}
	created, err := createdTime(source)
	if err != nil {
		return Image{}, fmt.Errorf("%w: stat %s: %w", ErrEnumeration, source, err)
	}
	return Image{
		Job: Job{
			SourcePath:  source,
			PreviewPath: preview,
			Created:     created,
		},
		State: cullmeta.ReadOrDefault(preview).CullState,
	}, nil
}

// SortByCreated orders images by capture time, breaking ties by source path.
func SortByCreated(images []Image) {
	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		return a.SourcePath < b.SourcePath
	})
}

// GroupBursts splits time-ordered images wherever consecutive capture times
// differ by more than gap. A non-positive gap yields one group per image.
func GroupBursts(images []Image, gap time.Duration) [][]Image {
	if len(images) == 0 {
		return nil
	}
	groups := [][]Image{{images[0]}}
	for i := 1; i < len(images); i++ {
		delta := images[i].Created.Sub(images[i-1].Created)
		if delta < 0 {
			delta = -delta
		}
		if delta > gap || gap <= 0 {
			groups = append(groups, []Image{images[i]})
			continue
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], images[i])
	}
	return groups
}
