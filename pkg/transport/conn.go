package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Transport constants.
const (
	// DefaultMaxLineLength is the maximum accepted line length (64 KB).
	// Real upsd lines are far shorter; the limit bounds memory on a
	// misbehaving peer.
	DefaultMaxLineLength = 65536

	// DefaultDialTimeout is the default connection timeout.
	DefaultDialTimeout = 5 * time.Second
)

// Transport errors.
var (
	// ErrConnectionClosed indicates an operation on a closed or poisoned
	// connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrIncompleteLine indicates the stream closed before a newline
	// delimiter was received.
	ErrIncompleteLine = errors.New("connection closed mid-line")

	// ErrLineTooLong indicates a received line exceeded the maximum length.
	ErrLineTooLong = errors.New("line too long")

	// ErrTLSBufferedData indicates StartTLS was attempted while unread
	// response bytes were still buffered.
	ErrTLSBufferedData = errors.New("buffered data before tls upgrade")

	// ErrTLSAlreadyActive indicates StartTLS was attempted twice.
	ErrTLSAlreadyActive = errors.New("tls already active")
)

// Config configures a connection.
type Config struct {
	// DialTimeout bounds connection establishment (default: 5s).
	DialTimeout time.Duration

	// ReadTimeout bounds each ReadLine call. Zero means no timeout.
	ReadTimeout time.Duration

	// WriteTimeout bounds each WriteLine call. Zero means no timeout.
	WriteTimeout time.Duration

	// MaxLineLength is the maximum accepted line length (default: 64KB).
	MaxLineLength int
}

func (c Config) withDefaults() Config {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.MaxLineLength == 0 {
		c.MaxLineLength = DefaultMaxLineLength
	}
	return c
}

// Conn is a blocking line connection over a TCP (or TLS-upgraded) stream.
// Each call blocks the calling goroutine until the operation completes or
// the configured timeout expires. The context is consulted at call entry
// and for its deadline; use ContextConn for mid-operation cancellation.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
	cfg  Config

	tlsActive bool

	closeOnce sync.Once
	closeCh   chan struct{}
}

// Dial connects to a upsd address ("host:port").
func Dial(ctx context.Context, address string, cfg Config) (*Conn, error) {
	cfg = cfg.withDefaults()
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return NewConn(conn, cfg), nil
}

// NewConn wraps an established duplex stream.
func NewConn(conn net.Conn, cfg Config) *Conn {
	cfg = cfg.withDefaults()
	return &Conn{
		conn:    conn,
		br:      bufio.NewReader(conn),
		cfg:     cfg,
		closeCh: make(chan struct{}),
	}
}

// WriteLine sends one line, appending the trailing newline if absent.
func (c *Conn) WriteLine(ctx context.Context, line string) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	if deadline, ok := c.deadline(ctx, c.cfg.WriteTimeout); ok {
		c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}

	if _, err := io.WriteString(c.conn, line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// ReadLine receives one line, stripped of its trailing newline.
// A stream that closes before the delimiter yields ErrIncompleteLine.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	if c.isClosed() {
		return "", ErrConnectionClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if deadline, ok := c.deadline(ctx, c.cfg.ReadTimeout); ok {
		c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}

	line, err := c.br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return "", ErrIncompleteLine
			}
			return "", fmt.Errorf("read line: %w", io.EOF)
		}
		return "", fmt.Errorf("read line: %w", err)
	}
	if len(line) > c.cfg.MaxLineLength {
		return "", fmt.Errorf("%w: %d > %d", ErrLineTooLong, len(line), c.cfg.MaxLineLength)
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// StartTLS wraps the existing stream in a TLS session.
//
// The caller must have fully consumed the plaintext STARTTLS acknowledgement
// first: if any response bytes are buffered past it, the upgrade is refused
// with ErrTLSBufferedData. A failed handshake closes the connection - the
// wire position can no longer be trusted.
func (c *Conn) StartTLS(ctx context.Context, cfg *tls.Config) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	if c.tlsActive {
		return ErrTLSAlreadyActive
	}
	if n := c.br.Buffered(); n > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTLSBufferedData, n)
	}

	tlsConn := tls.Client(c.conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		c.Close()
		return fmt.Errorf("tls handshake: %w", err)
	}

	c.conn = tlsConn
	c.br.Reset(tlsConn)
	c.tlsActive = true
	return nil
}

// TLSActive reports whether the stream has been upgraded.
func (c *Conn) TLSActive() bool { return c.tlsActive }

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Close closes the connection. It is safe to call multiple times.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// deadline picks the earlier of the configured timeout and the context
// deadline. The second return value is false when neither applies.
func (c *Conn) deadline(ctx context.Context, timeout time.Duration) (time.Time, bool) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok {
		if deadline.IsZero() || ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
	}
	return deadline, !deadline.IsZero()
}
