// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager creation and server deduplication
package discovery

import (
	"testing"
)

func TestNewManager(t *testing.T) {
	config := Config{
		InstanceName: "Test Player",
		Port:         8927,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
}

func TestServerInfoAddr(t *testing.T) {
	s := ServerInfo{Name: "synth", Host: "192.168.1.20", Port: 9000}
	if got := s.Addr(); got != "192.168.1.20:9000" {
		t.Errorf("expected 192.168.1.20:9000, got %q", got)
	}
}

func TestDeliverDeduplicates(t *testing.T) {
	mgr := NewManager(Config{InstanceName: "Test Player"})
	defer mgr.Stop()

	server := ServerInfo{Name: "synth", Host: "192.168.1.20", Port: 9000}
	mgr.deliver(server)
	mgr.deliver(server)
	mgr.deliver(ServerInfo{Name: "other", Host: "192.168.1.21", Port: 9000})

	if got := len(mgr.servers); got != 2 {
		t.Errorf("expected 2 unique servers delivered, got %d", got)
	}
}
