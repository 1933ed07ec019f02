// Package config loads, validates, and normalizes curator's TOML
// configuration. It owns the well-known paths (lock artifacts, template
// store, provenance database) derived from the configured directories.
package config
