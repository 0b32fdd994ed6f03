package announce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultScanTimeout is the default timeout for agent discovery.
const DefaultScanTimeout = 10 * time.Second

// Scanner handles mDNS agent discovery.
type Scanner struct {
	// Timeout is the maximum time to wait for agent discovery.
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForAgents discovers all provisioning agents on the local network.
func (s *Scanner) ScanForAgents() ([]*Agent, error) {
	return s.ScanForAgentsWithContext(context.Background())
}

// ScanForAgentsWithContext discovers agents with a custom context.
func (s *Scanner) ScanForAgentsWithContext(ctx context.Context) ([]*Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// The collector owns the slice until Browse closes the entries channel,
	// so the receive below cannot observe a partially built result.
	collected := s.collectAgents(entries)

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	return <-collected, nil
}

// collectAgents drains the entries channel into a slice and publishes the
// completed slice once the channel closes. Browse closes the channel when
// its context expires.
func (s *Scanner) collectAgents(entries <-chan *zeroconf.ServiceEntry) <-chan []*Agent {
	out := make(chan []*Agent, 1)
	go func() {
		agents := make([]*Agent, 0)
		for entry := range entries {
			if agent := s.parseServiceEntry(entry); agent != nil {
				agents = append(agents, agent)
			}
		}
		out <- agents
	}()
	return out
}

// WaitForAgent waits for a specific agent by instance name.
func (s *Scanner) WaitForAgent(instance string) (*Agent, error) {
	return s.WaitForAgentWithContext(context.Background(), instance)
}

// WaitForAgentWithContext waits for a specific agent with a custom context.
func (s *Scanner) WaitForAgentWithContext(ctx context.Context, instance string) (*Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	agentChan := make(chan *Agent, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			agent := s.parseServiceEntry(entry)
			if agent != nil && agent.Instance == instance {
				agentChan <- agent
				cancel()
				return
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case agent := <-agentChan:
		return agent, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("agent %s not found within timeout", instance)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Agent.
// Returns nil if the entry lacks a usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Agent {
	if entry.Instance == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Agent{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
