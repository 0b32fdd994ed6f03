package radio

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Simulator is an in-memory Driver backed by a table of known networks.
// It drives tests and `provisiond serve --simulate` runs on machines
// without provisioning-capable wireless hardware.
type Simulator struct {
	// JoinLatency is how long an association attempt stays in
	// LinkConnecting before resolving. Zero resolves on the next Status poll.
	JoinLatency time.Duration

	mu       sync.Mutex
	networks map[string]string // ssid -> passphrase
	status   LinkStatus
	ip       net.IP
	resolve  time.Time
	pending  bool
	apSSID   string
}

// NewSimulator creates a simulator that knows the given networks.
func NewSimulator(networks map[string]string) *Simulator {
	if networks == nil {
		networks = make(map[string]string)
	}
	return &Simulator{
		networks: networks,
		status:   LinkIdle,
	}
}

// AddNetwork makes a network joinable. Used by tests and the serve command
// when loading the simulator table from configuration.
func (s *Simulator) AddNetwork(ssid, passphrase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks[ssid] = passphrase
}

func (s *Simulator) StartAccessPoint(ssid, passphrase string) (net.IP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ssid == "" {
		return nil, fmt.Errorf("access point SSID must not be empty")
	}

	s.apSSID = ssid
	s.status = LinkIdle
	s.pending = false
	s.ip = net.IPv4(192, 168, 4, 1)
	return s.ip, nil
}

func (s *Simulator) Join(ssid, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apSSID = ""
	s.ip = nil
	s.status = LinkConnecting
	s.resolve = time.Now().Add(s.JoinLatency)

	want, known := s.networks[ssid]
	s.pending = known && want == passphrase
	return nil
}

func (s *Simulator) Status() LinkStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == LinkConnecting && !time.Now().Before(s.resolve) {
		if s.pending {
			s.status = LinkUp
			s.ip = net.IPv4(192, 168, 1, 50)
		} else {
			s.status = LinkDown
		}
	}
	return s.status
}

func (s *Simulator) LocalIP() net.IP {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != LinkUp {
		return nil
	}
	return s.ip
}

func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = LinkIdle
	s.pending = false
	s.ip = nil
	s.apSSID = ""
	return nil
}

// AccessPointSSID reports the SSID the simulator is broadcasting, or empty
// when not in broadcast mode. Test hook.
func (s *Simulator) AccessPointSSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apSSID
}
