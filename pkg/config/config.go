package config

import (
	"crypto/x509"
	"net"
	"strconv"
	"time"
)

// Defaults for daemon connections.
const (
	// DefaultHost is used when no host is given.
	DefaultHost = "localhost"

	// DefaultPort is the IANA-registered upsd port.
	DefaultPort = 3493

	// DefaultTimeout bounds individual network operations.
	DefaultTimeout = 5 * time.Second
)

// TLSMode selects the transport security policy for a connection.
type TLSMode uint8

const (
	// TLSOff keeps the connection plaintext.
	TLSOff TLSMode = iota

	// TLSStrict upgrades via STARTTLS and verifies the daemon certificate.
	TLSStrict

	// TLSInsecure upgrades via STARTTLS but skips certificate verification.
	TLSInsecure
)

// String returns the TLS mode name.
func (m TLSMode) String() string {
	switch m {
	case TLSOff:
		return "off"
	case TLSStrict:
		return "strict"
	case TLSInsecure:
		return "insecure"
	default:
		return "unknown"
	}
}

// Auth holds upsd credentials.
type Auth struct {
	Username string
	Password string
}

// String renders the credentials with the password masked, so an Auth
// value is safe to pass to %v formatting and loggers.
func (a Auth) String() string {
	return "Auth{Username: " + strconv.Quote(a.Username) + ", Password: ****}"
}

// Config describes how to reach and talk to a upsd instance.
type Config struct {
	// Host is the daemon host name or address (default: localhost).
	Host string

	// Port is the daemon TCP port (default: 3493).
	Port uint16

	// Auth holds the optional credentials sent after connecting.
	// Nil means the session stays unauthenticated.
	Auth *Auth

	// Timeout bounds each network operation (default: 5s).
	Timeout time.Duration

	// TLS selects the transport security policy (default: TLSOff).
	TLS TLSMode

	// ServerName overrides the name verified against the daemon
	// certificate. Empty means Host is used.
	ServerName string

	// RootCAs holds the trusted roots for TLSStrict.
	// Nil means the host's root set.
	RootCAs *x509.CertPool
}

// WithDefaults returns a copy with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Address returns the "host:port" dial address.
func (c Config) Address() string {
	c = c.WithDefaults()
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// TLSServerName returns the name to verify the daemon certificate against.
func (c Config) TLSServerName() string {
	if c.ServerName != "" {
		return c.ServerName
	}
	return c.WithDefaults().Host
}
