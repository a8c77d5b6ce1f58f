package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Target parsing errors.
var (
	// ErrInvalidPort indicates the port part of a target did not parse.
	ErrInvalidPort = errors.New("invalid port")
)

// Target is a parsed "[ups][@host[:port]]" expression. Every part is
// optional: a bare device name, a bare host, or the full triple all parse.
type Target struct {
	// UPS is the device name. Empty when the target names only a host.
	UPS string

	// Host is the daemon host (default: localhost).
	Host string

	// Port is the daemon port (default: 3493).
	Port uint16
}

// ParseTarget parses a "[ups][@host[:port]]" expression. Omitted parts take
// their defaults. A target without '@' and without ':' is a device name; a
// target without '@' but with ':' is host:port.
func ParseTarget(s string) (Target, error) {
	target := Target{Host: DefaultHost, Port: DefaultPort}
	if s == "" {
		return target, nil
	}

	hostPart := s
	if ups, rest, found := strings.Cut(s, "@"); found {
		target.UPS = ups
		hostPart = rest
	} else if !strings.Contains(s, ":") {
		target.UPS = s
		hostPart = ""
	}

	if hostPart == "" {
		return target, nil
	}

	if host, portStr, err := net.SplitHostPort(hostPart); err == nil {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %q", ErrInvalidPort, portStr)
		}
		target.Host = host
		target.Port = uint16(port)
	} else {
		target.Host = hostPart
	}
	return target, nil
}

// String renders the target back to "[ups@]host:port" form.
func (t Target) String() string {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
	if t.UPS == "" {
		return addr
	}
	return t.UPS + "@" + addr
}

// Config builds a connection configuration for the target's host and port.
func (t Target) Config() Config {
	return Config{Host: t.Host, Port: t.Port}.WithDefaults()
}
