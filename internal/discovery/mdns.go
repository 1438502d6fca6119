// ABOUTME: mDNS discovery for synth servers on the local network
// ABOUTME: Advertises the player and browses for speech synthesizers
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/hashicorp/mdns"
)

// Service types on the local network. The player advertises itself so
// synth servers can push to it; synth servers advertise the synth type.
const (
	playerService = "_vocalis._tcp"
	synthService  = "_vocalis-synth._tcp"
)

// browseInterval spaces out repeated mDNS queries.
const browseInterval = 5 * time.Second

// Config holds discovery configuration.
type Config struct {
	// InstanceName is the advertised player name.
	InstanceName string

	// Port is the player's stream port.
	Port int
}

// ServerInfo describes a discovered synth server.
type ServerInfo struct {
	Name string
	Host string
	Port int
}

// Addr returns the dialable host:port.
func (s ServerInfo) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Manager advertises this player and browses for synth servers.
// Discovered servers are deduplicated by address and delivered on the
// Servers channel.
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan ServerInfo
	seen    map[string]bool
}

// NewManager creates a discovery manager.
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan ServerInfo, 10),
		seen:    make(map[string]bool),
	}
}

// Advertise announces this player on the local network until Stop.
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.InstanceName,
		playerService,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"role=player"},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Discovery: advertising %s on port %d", m.config.InstanceName, m.config.Port)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse starts the repeated synth-server query loop.
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				if entry.AddrV4 == nil {
					continue
				}
				m.deliver(ServerInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				})
			}
		}()

		params := &mdns.QueryParam{
			Service: synthService,
			Domain:  "local",
			Timeout: 3 * time.Second,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			log.Printf("Discovery: query failed: %v", err)
		}
		close(entries)
		<-done

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(browseInterval):
		}
	}
}

// deliver forwards a server unless its address was already announced.
func (m *Manager) deliver(server ServerInfo) {
	addr := server.Addr()
	if m.seen[addr] {
		return
	}
	m.seen[addr] = true

	log.Printf("Discovery: found synth server %s at %s", server.Name, addr)

	select {
	case m.servers <- server:
	case <-m.ctx.Done():
	}
}

// Servers returns the channel of newly discovered synth servers.
func (m *Manager) Servers() <-chan ServerInfo {
	return m.servers
}

// Stop shuts down advertisement and browsing.
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns non-loopback IPv4 addresses of up interfaces.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
