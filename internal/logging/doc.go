// Package logging builds the slog loggers used across uplift.
//
// Two output formats are supported: a human-oriented console format with
// optional ANSI colors, and line-delimited JSON. When a log directory is
// configured, records are mirrored to an append-only uplift.log file in
// addition to stdout.
package logging
