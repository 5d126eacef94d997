// Package config loads, normalizes, and validates vidsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, overlays the keys of an optional .env file, and
// honours the GROQ_API_KEY environment fallback. The Config type centralizes
// every knob the CLI and batch runner need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
