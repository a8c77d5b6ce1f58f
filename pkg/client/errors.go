package client

import "errors"

// Session errors. Daemon-reported failures surface as *wire.DaemonError;
// the sentinels here cover client-side failures.
var (
	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrProtocolMismatch indicates the daemon's list framing did not echo
	// the request (wrong subject or context arguments). The session is
	// closed when this is returned: the stream position is untrusted.
	ErrProtocolMismatch = errors.New("response does not match request")

	// ErrUnexpectedResponse indicates a reply whose shape does not fit the
	// command that was sent. The session is closed when this is returned.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrTLSNotSupported indicates the daemon is not configured for TLS.
	ErrTLSNotSupported = errors.New("daemon does not support tls")
)
