package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePreview()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CullRoot) == "" {
		c.Paths.CullRoot = defaultCullRoot
	}
	if c.Paths.CullRoot, err = expandPath(strings.TrimSpace(c.Paths.CullRoot)); err != nil {
		return fmt.Errorf("paths.cull_root: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizePreview() {
	c.Preview.Binary = strings.TrimSpace(c.Preview.Binary)
	if c.Preview.Binary == "" {
		c.Preview.Binary = defaultPreviewBinary
	}
	c.Preview.Format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Preview.Format)), ".")
	switch c.Preview.Format {
	case "":
		c.Preview.Format = defaultPreviewFormat
	case "jpeg":
		c.Preview.Format = "jpg"
	}
	c.Preview.Subdir = strings.TrimSpace(c.Preview.Subdir)
	if c.Preview.Subdir == "" {
		c.Preview.Subdir = defaultPreviewSubdir
	}
	if c.Preview.ThreadLimit <= 0 {
		c.Preview.ThreadLimit = defaultThreadLimit
	}
	if c.Preview.ReservedCores < 0 {
		c.Preview.ReservedCores = 0
	}
	if c.Preview.Workers < 0 {
		c.Preview.Workers = 0
	}
	if c.Preview.NotifyRetryMS <= 0 {
		c.Preview.NotifyRetryMS = defaultNotifyRetryMillis
	}
	if c.Preview.BurstGapMS < 0 {
		c.Preview.BurstGapMS = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
