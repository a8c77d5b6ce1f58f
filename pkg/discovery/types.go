package discovery

import (
	"net"
	"strconv"
	"time"
)

// mDNS service parameters for upsd.
const (
	// ServiceType is the DNS-SD service type upsd announces under.
	ServiceType = "_nut._tcp"

	// Domain is the mDNS browse domain.
	Domain = "local."

	// DefaultBrowseTimeout bounds a one-shot FindAll browse.
	DefaultBrowseTimeout = 10 * time.Second
)

// Server is one announced upsd instance.
type Server struct {
	// Instance is the mDNS instance name, usually the daemon's host name.
	Instance string

	// Host is the announced target host name.
	Host string

	// Port is the announced TCP port.
	Port uint16

	// Addresses are the resolved IPv4 and IPv6 addresses, as strings.
	Addresses []string

	// Text holds the raw TXT records, if the daemon announced any.
	Text []string
}

// Address returns a dialable "host:port" for the server, preferring a
// resolved address over the announced host name.
func (s *Server) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// mergeAddresses combines address lists without duplicates, keeping order.
func mergeAddresses(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, addr := range existing {
		seen[addr] = struct{}{}
	}
	for _, addr := range incoming {
		if _, ok := seen[addr]; !ok {
			existing = append(existing, addr)
			seen[addr] = struct{}{}
		}
	}
	return existing
}
