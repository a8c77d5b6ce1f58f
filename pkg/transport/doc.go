// Package transport provides the line-duplex transport the protocol engine
// runs on.
//
// The NUT protocol is strictly request/response: one newline-terminated line
// out, one or more newline-terminated lines back. This package implements
// that capability twice over a single shared framing core:
//
//   - Conn: a blocking connection. Each call occupies the calling goroutine
//     until the operation completes, bounded by the configured read/write
//     timeouts.
//   - ContextConn: a cancellation-aware connection. Each call additionally
//     honors its context mid-operation; cancellation interrupts the socket
//     and poisons the connection, because the wire position can no longer
//     be trusted.
//
// Both satisfy LineConn, so session logic is written once.
//
// # STARTTLS
//
// The daemon upgrades a plaintext connection in place: the client sends
// STARTTLS, consumes the plaintext "OK STARTTLS" reply, and then both ends
// begin the TLS handshake on the same TCP stream. StartTLS refuses to run
// while decoded-but-unread bytes sit in the read buffer - that would mean
// response data was received past the acknowledgement line and the upgrade
// would corrupt the stream.
package transport
