package announce

import (
	"fmt"
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
	}{
		{
			name: "agent with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "living-room"},
				HostName:      "living-room.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.1")},
				Text:          []string{"version=1.0.0", "state=ap_mode"},
			},
			wantInstance: "living-room",
			wantIP:       "192.168.4.1",
			wantPort:     80,
		},
		{
			name: "agent with custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "garage"},
				HostName:      "garage.local",
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantInstance: "garage",
			wantIP:       "10.0.0.5",
			wantPort:     8080,
		},
		{
			name: "no port defaults to 80",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "attic"},
				HostName:      "attic.local",
				Port:          0,
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantInstance: "attic",
			wantIP:       "172.16.0.1",
			wantPort:     80,
		},
		{
			name: "empty instance",
			entry: &zeroconf.ServiceEntry{
				HostName: "anon.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				HostName:      "ghost.local",
				Port:          80,
				AddrIPv4:      []net.IP{},
				AddrIPv6:      []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "hallway"},
				HostName:      "hallway.local",
				Port:          80,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantInstance: "hallway",
			wantIP:       "fe80::1",
			wantPort:     80,
		},
		{
			name: "prefers IPv4 over IPv6",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "porch"},
				HostName:      "porch.local",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantInstance: "porch",
			wantIP:       "192.168.1.50",
			wantPort:     80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if agent != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", agent)
				}
				return
			}

			if agent == nil {
				t.Fatal("parseServiceEntry() = nil, want agent")
			}
			if agent.Instance != tt.wantInstance {
				t.Errorf("Instance = %q, want %q", agent.Instance, tt.wantInstance)
			}
			if agent.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", agent.IP, tt.wantIP)
			}
			if agent.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", agent.Port, tt.wantPort)
			}
		})
	}
}

// TestScanner_collectAgents feeds entries from another goroutine and checks
// that the published slice holds everything sent before the channel closed.
// The result channel must not yield until collection has finished.
func TestScanner_collectAgents(t *testing.T) {
	scanner := NewScanner()
	entries := make(chan *zeroconf.ServiceEntry)
	collected := scanner.collectAgents(entries)

	go func() {
		for i := 0; i < 20; i++ {
			entries <- &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: fmt.Sprintf("agent-%d", i)},
				HostName:      "agent.local",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.1")},
			}
		}
		// An entry that parses to nil must not count
		entries <- &zeroconf.ServiceEntry{HostName: "anon.local", Port: 80}
		close(entries)
	}()

	agents := <-collected
	if len(agents) != 20 {
		t.Fatalf("collected %d agents, want 20", len(agents))
	}
	for i, agent := range agents {
		if want := fmt.Sprintf("agent-%d", i); agent.Instance != want {
			t.Errorf("agents[%d].Instance = %q, want %q", i, agent.Instance, want)
		}
	}
}

func TestAgent_Metadata(t *testing.T) {
	scanner := NewScanner()

	agent := scanner.parseServiceEntry(&zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "kitchen"},
		HostName:      "kitchen.local",
		Port:          80,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.4.1")},
		Text:          []string{"version=1.0.0", "state=ap_mode", "flag"},
	})
	if agent == nil {
		t.Fatal("parseServiceEntry() = nil")
	}

	if got := agent.GetMetadata("version"); got != "1.0.0" {
		t.Errorf("GetMetadata(version) = %q, want 1.0.0", got)
	}
	if got := agent.GetMetadata("state"); got != "ap_mode" {
		t.Errorf("GetMetadata(state) = %q, want ap_mode", got)
	}
	if got := agent.GetMetadata("flag"); got != "" {
		t.Errorf("GetMetadata(flag) = %q, want empty", got)
	}
	if got := agent.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	if got := agent.BaseURL(); got != "http://192.168.4.1:80" {
		t.Errorf("BaseURL() = %q", got)
	}
}
