package preflight

import (
	"context"

	"github.com/SecretPocketCat/chela/internal/config"
)

// MinFreeBytes is the free space below which the preview volume check fails.
const MinFreeBytes = 512 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Paths.CullRoot != "" {
		results = append(results,
			CheckDirectoryAccess("Cull root", cfg.Paths.CullRoot),
			CheckFreeSpace("Preview volume", cfg.Paths.CullRoot, MinFreeBytes),
		)
	}

	return results
}
