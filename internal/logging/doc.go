// Package logging constructs the slog loggers used across Interlude.
//
// It offers two output formats: a human-oriented console handler with
// optional color when attached to a terminal, and line-delimited JSON for
// ingestion. Both honour the configured level and can fan output to stdout
// plus a log file. Field name constants keep structured keys consistent
// between the daemon, the HTTP layer, and the playback engine.
package logging
