// Package announce publishes the provisioning endpoint over mDNS and
// discovers other agents on the local network.
//
// A freshly booted device sits on an unknown address (its own access
// point, or a DHCP lease on the home network). Announcing the HTTP
// endpoint as a "_provisiond._tcp" service lets the companion CLI find
// it without the user typing an IP.
package announce

import (
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/logging"
	"github.com/provkit/provisiond/internal/version"
)

const (
	// ServiceType is the mDNS service type advertised by the agent.
	ServiceType = "_provisiond._tcp"

	// ServiceDomain is the mDNS domain (typically "local.").
	ServiceDomain = "local."

	// DefaultPort is the provisioning HTTP port.
	DefaultPort = 80
)

// Announcer registers the provisioning service on the local network
// and keeps it registered until shut down.
type Announcer struct {
	instance string
	port     int
	state    func() string

	server *zeroconf.Server
}

// NewAnnouncer prepares an announcement for the named device instance.
// The state callback is sampled at registration time and published as
// a TXT record so scanners can tell provisioned devices from ones
// still in setup mode.
func NewAnnouncer(instance string, port int, state func() string) *Announcer {
	return &Announcer{
		instance: instance,
		port:     port,
		state:    state,
	}
}

// Start registers the service. It returns an error if the host has no
// usable multicast interface.
func (a *Announcer) Start() error {
	txt := []string{
		"version=" + version.Version,
		"state=" + a.state(),
	}

	server, err := zeroconf.Register(a.instance, ServiceType, ServiceDomain, a.port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	logging.Info("mDNS service registered",
		zap.String("instance", a.instance),
		zap.String("type", ServiceType),
		zap.Int("port", a.port))
	return nil
}

// Shutdown withdraws the announcement. Safe to call if Start failed.
func (a *Announcer) Shutdown() {
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logging.Debug("mDNS service withdrawn", zap.String("instance", a.instance))
}

// Agent is a provisioning agent discovered on the local network.
type Agent struct {
	// Instance is the advertised instance name.
	Instance string

	// Hostname is the mDNS hostname.
	Hostname string

	// IP is the agent address, preferring IPv4.
	IP string

	// Port is the provisioning HTTP port.
	Port int

	// Metadata holds the TXT record key/value pairs. Agents publish
	// "version" and "state".
	Metadata map[string]string

	// DiscoveredAt is when the agent was discovered.
	DiscoveredAt time.Time
}

// String returns a human-readable one-line summary of the agent.
func (a *Agent) String() string {
	return fmt.Sprintf("provisiond %s (%s) at %s:%d", a.Instance, a.Hostname, a.IP, a.Port)
}

// BaseURL returns the HTTP base URL for the agent.
func (a *Agent) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", a.IP, a.Port)
}

// GetMetadata retrieves a TXT value by key, or "" if absent.
func (a *Agent) GetMetadata(key string) string {
	if a.Metadata == nil {
		return ""
	}
	return a.Metadata[key]
}
