// Package config loads, validates, and normalizes animehub configuration.
//
// Configuration lives in a TOML file (default ~/.config/animehub/config.toml,
// with a project-local animehub.toml fallback). Load applies defaults, expands
// tilde paths, and validates every section before returning, so the rest of
// the system can treat a *Config as trusted input. A sample file is embedded
// for the `config init` command.
package config
