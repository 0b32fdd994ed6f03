package connmgr

import "fmt"

// State is the connection manager's mode. The radio is in exactly one
// state at any time.
type State int

const (
	// StateAPMode means the device broadcasts the fallback setup network
	// and waits for provisioning. This is the initial state.
	StateAPMode State = iota
	// StateConnecting means a station attempt is burning through its
	// retry budget.
	StateConnecting
	// StateConnected means the station link is up. Terminal for the
	// session: only a fresh credential event after a radio drop leaves it,
	// and that path is not implemented here.
	StateConnected
	// StateFailed means the retry budget ran out. Always yields StateAPMode
	// on the next transition so the device stays reachable.
	StateFailed
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateAPMode:
		return "ap_mode"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event drives the state machine.
type Event int

const (
	// EventCredentials is a validated credential pair arriving from boot
	// or from a provisioning request.
	EventCredentials Event = iota
	// EventLinkUp is the radio reporting an established link.
	EventLinkUp
	// EventRetriesExhausted is the retry budget running out.
	EventRetriesExhausted
	// EventFallback is the unconditional Failed -> APMode recovery.
	EventFallback
)

// String returns a human-readable name for the event
func (e Event) String() string {
	switch e {
	case EventCredentials:
		return "credentials"
	case EventLinkUp:
		return "link_up"
	case EventRetriesExhausted:
		return "retries_exhausted"
	case EventFallback:
		return "fallback"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Next is the pure transition function. It holds the two safety
// invariants of the machine: Connected is reachable only from Connecting,
// and Failed transitions only to APMode.
func Next(s State, e Event) (State, error) {
	switch s {
	case StateAPMode:
		if e == EventCredentials {
			return StateConnecting, nil
		}

	case StateConnecting:
		switch e {
		case EventLinkUp:
			return StateConnected, nil
		case EventRetriesExhausted:
			return StateFailed, nil
		}

	case StateConnected:
		// Terminal for the session; see the StateConnected doc comment.

	case StateFailed:
		if e == EventFallback {
			return StateAPMode, nil
		}
	}

	return s, fmt.Errorf("no transition from %s on %s", s, e)
}
