package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
)

// ErrServerNameRequired indicates strict TLS verification was requested
// without a server name to verify against.
var ErrServerNameRequired = errors.New("server name required for tls verification")

// TLSSettings describes how the upgraded stream should be verified.
type TLSSettings struct {
	// ServerName is the expected name on the daemon's certificate.
	// Required unless InsecureSkipVerify is set.
	ServerName string

	// RootCAs holds the trusted roots. Nil means the host's root set.
	RootCAs *x509.CertPool

	// InsecureSkipVerify disables certificate verification entirely.
	// Connections remain encrypted but are open to interception.
	InsecureSkipVerify bool
}

// NewUpgradeTLSConfig builds the tls.Config used for the in-place upgrade.
func NewUpgradeTLSConfig(settings TLSSettings) (*tls.Config, error) {
	if !settings.InsecureSkipVerify && settings.ServerName == "" {
		return nil, ErrServerNameRequired
	}
	return &tls.Config{
		ServerName:         settings.ServerName,
		RootCAs:            settings.RootCAs,
		InsecureSkipVerify: settings.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}, nil
}
