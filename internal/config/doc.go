// Package config loads and validates uplift configuration.
//
// Configuration is read from a TOML file (default ~/.config/uplift/config.toml
// or ./uplift.toml), merged over built-in defaults, path-expanded, and
// validated before anything else starts. All consumers receive a *Config and
// never re-read the file.
package config
