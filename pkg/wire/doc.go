// Package wire implements the line-oriented text format spoken by upsd.
//
// The NUT network protocol exchanges one command and one response per
// newline-terminated line. Each line is a sequence of whitespace-separated
// tokens; tokens containing spaces, quotes or backslashes are transmitted
// inside double quotes with backslash escaping, exactly like shell words.
//
// # Components
//
// The package is pure and performs no I/O:
//   - EncodeLine / DecodeLine: the token codec. Decoding is the inverse of
//     encoding for any token set without embedded newlines.
//   - Command: typed constructors for every protocol verb the client sends.
//   - Classify: maps one decoded line to a success reply, an error reply,
//     a list-begin/list-end marker, or a data row.
//   - ErrorKind / DaemonError: the closed taxonomy of ERR reply codes, with
//     an explicit fallback for codes this client does not recognize.
//
// # List framing
//
// Multi-line responses are bracketed between "BEGIN LIST <subject> ..." and
// "END LIST <subject> ..." lines. Classification itself is stateless; the
// session layer tracks the active list subject and validates that items and
// the END marker match it.
package wire
