package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures browse behavior.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	// Empty string means all interfaces.
	Interface string
}

// Browser finds announced upsd instances.
type Browser struct {
	config BrowserConfig

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewBrowser creates an mDNS browser for upsd services.
func NewBrowser(config BrowserConfig) *Browser {
	return &Browser{config: config}
}

// Browse watches for upsd announcements until the context is cancelled.
// Announcements from multiple interfaces are aggregated by instance name,
// so each daemon is emitted once with its combined address list. The
// returned channel is closed when browsing ends.
func (b *Browser) Browse(ctx context.Context) (<-chan *Server, error) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil, fmt.Errorf("browser stopped")
	}
	ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	out := make(chan *Server)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		servers := make(map[string]*Server)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				server := entryToServer(entry)

				if existing, found := servers[server.Instance]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, server.Addresses)
					continue
				}
				servers[server.Instance] = server
				select {
				case out <- server:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				delete(servers, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, b.options()...)
	}()

	return out, nil
}

// FindAll collects every upsd instance announced within the timeout.
func (b *Browser) FindAll(ctx context.Context) ([]*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultBrowseTimeout)
	defer cancel()

	ch, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	var servers []*Server
	for server := range ch {
		servers = append(servers, server)
	}
	return servers, nil
}

// Stop cancels any active browse.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Browser) options() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		if iface, err := net.InterfaceByName(b.config.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

func entryToServer(entry *zeroconf.ServiceEntry) *Server {
	server := &Server{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     uint16(entry.Port),
		Text:     entry.Text,
	}
	for _, ip := range entry.AddrIPv4 {
		server.Addresses = append(server.Addresses, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		server.Addresses = append(server.Addresses, ip.String())
	}
	return server
}
