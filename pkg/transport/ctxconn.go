package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// ContextConn is a cancellation-aware line connection. Unlike Conn, whose
// calls honor only static timeouts, every ContextConn call is interrupted
// promptly when its context is cancelled.
//
// Cancellation mid-operation leaves the wire position indeterminate (a
// request may be half-sent, a response half-read), so the connection is
// poisoned: every subsequent call fails with ErrConnectionClosed.
type ContextConn struct {
	conn *Conn

	poisoned atomic.Bool
}

// DialContext connects to a upsd address with cancellation support.
func DialContext(ctx context.Context, address string, cfg Config) (*ContextConn, error) {
	conn, err := Dial(ctx, address, cfg)
	if err != nil {
		return nil, err
	}
	return NewContextConn(conn), nil
}

// NewContextConn wraps a blocking connection with cancellation support.
func NewContextConn(conn *Conn) *ContextConn {
	return &ContextConn{conn: conn}
}

// WriteLine sends one line, aborting if the context is cancelled.
func (c *ContextConn) WriteLine(ctx context.Context, line string) error {
	if c.poisoned.Load() {
		return ErrConnectionClosed
	}
	return c.withCancel(ctx, func() error {
		return c.conn.WriteLine(ctx, line)
	})
}

// ReadLine receives one line, aborting if the context is cancelled.
func (c *ContextConn) ReadLine(ctx context.Context) (string, error) {
	if c.poisoned.Load() {
		return "", ErrConnectionClosed
	}
	var line string
	err := c.withCancel(ctx, func() error {
		var err error
		line, err = c.conn.ReadLine(ctx)
		return err
	})
	return line, err
}

// StartTLS upgrades the stream, aborting if the context is cancelled.
func (c *ContextConn) StartTLS(ctx context.Context, cfg *tls.Config) error {
	if c.poisoned.Load() {
		return ErrConnectionClosed
	}
	return c.withCancel(ctx, func() error {
		return c.conn.StartTLS(ctx, cfg)
	})
}

// TLSActive reports whether the stream has been upgraded.
func (c *ContextConn) TLSActive() bool { return c.conn.TLSActive() }

// RemoteAddr returns the remote network address.
func (c *ContextConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Close closes the connection. It is safe to call multiple times.
func (c *ContextConn) Close() error {
	c.poisoned.Store(true)
	return c.conn.Close()
}

// withCancel runs op while a watcher goroutine waits on the context. When the
// context is cancelled first, the watcher forces the in-flight socket call to
// return by setting an already-expired deadline, and the connection is
// poisoned.
func (c *ContextConn) withCancel(ctx context.Context, op func() error) error {
	if err := ctx.Err(); err != nil {
		c.poison()
		return err
	}

	done := make(chan struct{})
	watcher := make(chan bool)
	go func() {
		select {
		case <-ctx.Done():
			// Unblocks the pending read or write immediately.
			c.conn.conn.SetDeadline(time.Now().Add(-time.Second))
			watcher <- true
		case <-done:
			watcher <- false
		}
	}()

	err := op()
	close(done)

	if <-watcher {
		c.poison()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrConnectionClosed, ctxErr)
		}
		return ErrConnectionClosed
	}

	if err != nil && isFatal(err) {
		c.poison()
	}
	return err
}

func (c *ContextConn) poison() {
	if c.poisoned.CompareAndSwap(false, true) {
		c.conn.Close()
	}
}

// isFatal reports whether the connection cannot be used after err.
// Timeouts on the blocking path are retryable; stream-level failures are not.
func isFatal(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	return errors.Is(err, ErrIncompleteLine) ||
		errors.Is(err, ErrConnectionClosed) ||
		errors.Is(err, ErrLineTooLong)
}
