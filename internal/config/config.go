package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	CullRoot string `toml:"cull_root"`
	APIBind  string `toml:"api_bind"`
}

// Preview contains configuration for preview rendering and the worker pool.
type Preview struct {
	Binary         string `toml:"binary"`
	Format         string `toml:"format"`
	Subdir         string `toml:"subdir"`
	MaxWidth       int    `toml:"max_width"`
	MaxHeight      int    `toml:"max_height"`
	Quality        int    `toml:"quality"`
	ThreadLimit    int    `toml:"thread_limit"`
	ReservedCores  int    `toml:"reserved_cores"`
	Workers        int    `toml:"workers"`
	NotifyRetryMS  int    `toml:"notify_retry_ms"`
	ValidateOutput bool   `toml:"validate_output"`
	BurstGapMS     int    `toml:"burst_gap_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for chela.
//
// Configuration sections by subsystem:
//   - Paths: log directory, default cull root, and API bind address
//   - Preview: converter invocation, output format, and pool sizing
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Preview Preview `toml:"preview"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chela/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chela.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "chela.log")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "chelad.lock")
}

// PreviewExtension returns the file extension (without dot) of rendered previews.
func (c *Config) PreviewExtension() string {
	return c.Preview.Format
}

// PreviewContentType returns the HTTP content type matching the configured preview format.
func (c *Config) PreviewContentType() string {
	switch c.Preview.Format {
	case "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "image/webp"
	}
}

// NotifyRetryInterval returns the delay between wake attempts in the completion protocol.
func (c *Config) NotifyRetryInterval() time.Duration {
	return time.Duration(c.Preview.NotifyRetryMS) * time.Millisecond
}

// BurstGap returns the capture-time gap that separates bursts.
func (c *Config) BurstGap() time.Duration {
	return time.Duration(c.Preview.BurstGapMS) * time.Millisecond
}

// ResizeGeometry returns the ImageMagick geometry that only ever shrinks, e.g. "2000x1400>".
func (c *Config) ResizeGeometry() string {
	return fmt.Sprintf("%dx%d>", c.Preview.MaxWidth, c.Preview.MaxHeight)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
