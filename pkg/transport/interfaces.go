package transport

import (
	"context"
	"crypto/tls"
	"net"
)

// LineConn is the capability the protocol engine consumes: send one line,
// receive one line, upgrade the stream to TLS in place.
//
// Implementations own their underlying duplex byte stream exclusively and
// are not safe for concurrent use; the protocol allows only one outstanding
// command per connection.
type LineConn interface {
	// WriteLine sends one line. The trailing newline is appended if absent.
	WriteLine(ctx context.Context, line string) error

	// ReadLine receives one line, stripped of its trailing newline.
	ReadLine(ctx context.Context) (string, error)

	// StartTLS wraps the existing stream in a TLS session. It must be
	// called only when no buffered response bytes remain unread.
	StartTLS(ctx context.Context, cfg *tls.Config) error

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// Close closes the connection.
	Close() error
}

// Compile-time interface satisfaction checks.
var (
	_ LineConn = (*Conn)(nil)
	_ LineConn = (*ContextConn)(nil)
)
