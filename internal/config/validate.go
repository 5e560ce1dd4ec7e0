package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validatePreview() error {
	switch c.Preview.Format {
	case "webp", "jpg", "png":
	default:
		return fmt.Errorf("preview.format: unsupported value %q (expected webp, jpg, or png)", c.Preview.Format)
	}
	if strings.ContainsAny(c.Preview.Subdir, `/\`) || c.Preview.Subdir == "." || c.Preview.Subdir == ".." || filepath.IsAbs(c.Preview.Subdir) {
		return fmt.Errorf("preview.subdir must be a single directory name, got %q", c.Preview.Subdir)
	}
	if err := ensurePositiveMap(map[string]int{
		"preview.max_width":  c.Preview.MaxWidth,
		"preview.max_height": c.Preview.MaxHeight,
		"preview.quality":    c.Preview.Quality,
	}); err != nil {
		return err
	}
	if c.Preview.Quality > 100 {
		return errors.New("preview.quality must be between 1 and 100")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
