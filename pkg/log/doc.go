// Package log provides structured protocol tracing for the NUT client.
//
// This package defines the Logger interface and Event types for capturing
// everything that crosses a upsd connection: raw lines in both directions,
// session state changes, and errors. It is separate from operational logging
// (slog) - protocol capture produces a machine-readable trace suitable for
// debugging daemon interoperability issues.
//
// # Basic Usage
//
// Applications configure tracing by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For capture: write to a binary trace file
//	cfg.Logger, _ = log.NewFileLogger("/tmp/upsd.trace")
//
//	// Both at once
//	cfg.Logger = log.NewMultiLogger(...)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded Event values. ReadFile decodes a
// captured trace back into events.
//
// Credentials are redacted before events are emitted: the session layer logs
// USERNAME and PASSWORD lines with their arguments masked.
package log
