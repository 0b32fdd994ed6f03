package connmgr

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "ap mode accepts credentials", state: StateAPMode, event: EventCredentials, want: StateConnecting},
		{name: "connecting to connected", state: StateConnecting, event: EventLinkUp, want: StateConnected},
		{name: "connecting to failed", state: StateConnecting, event: EventRetriesExhausted, want: StateFailed},
		{name: "failed falls back to ap mode", state: StateFailed, event: EventFallback, want: StateAPMode},

		{name: "ap mode rejects link up", state: StateAPMode, event: EventLinkUp, wantErr: true},
		{name: "ap mode rejects fallback", state: StateAPMode, event: EventFallback, wantErr: true},
		{name: "connecting rejects credentials", state: StateConnecting, event: EventCredentials, wantErr: true},
		{name: "connected is terminal", state: StateConnected, event: EventCredentials, wantErr: true},
		{name: "connected rejects link up", state: StateConnected, event: EventLinkUp, wantErr: true},
		{name: "failed rejects credentials", state: StateFailed, event: EventCredentials, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.state, tt.event)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Next(%s, %s) = %s, want error", tt.state, tt.event, got)
				}
				if got != tt.state {
					t.Errorf("rejected transition moved state: %s -> %s", tt.state, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Next(%s, %s) error = %v", tt.state, tt.event, err)
			}
			if got != tt.want {
				t.Errorf("Next(%s, %s) = %s, want %s", tt.state, tt.event, got, tt.want)
			}
		})
	}
}

// TestConnectedOnlyViaConnecting proves the reachability invariant over the
// whole transition relation: no (state, event) pair other than
// (Connecting, LinkUp) yields Connected.
func TestConnectedOnlyViaConnecting(t *testing.T) {
	states := []State{StateAPMode, StateConnecting, StateConnected, StateFailed}
	events := []Event{EventCredentials, EventLinkUp, EventRetriesExhausted, EventFallback}

	for _, s := range states {
		for _, e := range events {
			got, err := Next(s, e)
			if err != nil {
				continue
			}
			if got == StateConnected && !(s == StateConnecting && e == EventLinkUp) {
				t.Errorf("Connected reached from %s on %s", s, e)
			}
		}
	}
}

// TestFailedOnlyYieldsAPMode proves Failed has exactly one outgoing edge.
func TestFailedOnlyYieldsAPMode(t *testing.T) {
	events := []Event{EventCredentials, EventLinkUp, EventRetriesExhausted, EventFallback}

	for _, e := range events {
		got, err := Next(StateFailed, e)
		if err != nil {
			continue
		}
		if got != StateAPMode {
			t.Errorf("Next(Failed, %s) = %s, want APMode", e, got)
		}
	}
}
