package radio

import "net"

// LinkStatus reports the radio's current association state. The connection
// manager polls it at a fixed cadence during an attempt rather than blocking
// on the driver.
type LinkStatus int

const (
	// LinkIdle means the radio is not associating with any network
	LinkIdle LinkStatus = iota
	// LinkConnecting means an association attempt is in progress
	LinkConnecting
	// LinkUp means the radio is associated and has an address
	LinkUp
	// LinkDown means the last association attempt failed or was dropped
	LinkDown
)

// String returns a human-readable name for the link status
func (s LinkStatus) String() string {
	switch s {
	case LinkIdle:
		return "idle"
	case LinkConnecting:
		return "connecting"
	case LinkUp:
		return "up"
	case LinkDown:
		return "down"
	default:
		return "unknown"
	}
}

// Driver abstracts the wireless hardware. It is the single exclusive
// resource of the agent: the connection manager guarantees at most one
// station attempt is in flight, so implementations do not need to be safe
// for concurrent Join calls. Status and LocalIP may be called from other
// goroutines.
//
// Device-specific initialization (firmware loading, regulatory setup) must
// complete before the driver is handed to the connection manager.
type Driver interface {
	// StartAccessPoint brings up broadcast mode with the given SSID and
	// passphrase and returns the address the provisioning endpoint is
	// reachable on. Any station association is dropped first.
	StartAccessPoint(ssid, passphrase string) (net.IP, error)

	// Join begins a station-mode association. It returns once the attempt
	// has started; completion is observed by polling Status.
	Join(ssid, passphrase string) error

	// Status reports the current association state.
	Status() LinkStatus

	// LocalIP returns the station address once Status reports LinkUp,
	// nil otherwise.
	LocalIP() net.IP

	// Disconnect drops any association or access point.
	Disconnect() error
}
