// Package config loads, normalizes, and validates chela configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: where logs and the daemon lock live, which address the
// preview API binds, and how previews are rendered by the external converter.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
