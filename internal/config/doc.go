// Package config loads, normalizes, and validates Interlude configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the server daemon
// and CLI need: data/log directories, the API bind address, CORS origins,
// rate limits, and playback commit behavior.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
