package radio

import (
	"testing"
	"time"
)

func TestSimulatorJoinKnownNetwork(t *testing.T) {
	sim := NewSimulator(map[string]string{"HomeNet": "hunter22"})

	if err := sim.Join("HomeNet", "hunter22"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if got := sim.Status(); got != LinkUp {
		t.Fatalf("Status() = %v, want LinkUp", got)
	}
	if ip := sim.LocalIP(); ip == nil {
		t.Error("LocalIP() = nil after LinkUp")
	}
}

func TestSimulatorJoinFailures(t *testing.T) {
	tests := []struct {
		name       string
		ssid       string
		passphrase string
	}{
		{name: "unknown network", ssid: "NoSuchNet", passphrase: "whatever"},
		{name: "wrong passphrase", ssid: "HomeNet", passphrase: "wrong"},
		{name: "empty credentials", ssid: "", passphrase: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewSimulator(map[string]string{"HomeNet": "hunter22"})

			if err := sim.Join(tt.ssid, tt.passphrase); err != nil {
				t.Fatalf("Join() error = %v", err)
			}
			if got := sim.Status(); got != LinkDown {
				t.Errorf("Status() = %v, want LinkDown", got)
			}
			if ip := sim.LocalIP(); ip != nil {
				t.Errorf("LocalIP() = %v, want nil", ip)
			}
		})
	}
}

func TestSimulatorJoinLatency(t *testing.T) {
	sim := NewSimulator(map[string]string{"HomeNet": "hunter22"})
	sim.JoinLatency = 20 * time.Millisecond

	if err := sim.Join("HomeNet", "hunter22"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if got := sim.Status(); got != LinkConnecting {
		t.Fatalf("Status() before latency elapsed = %v, want LinkConnecting", got)
	}

	time.Sleep(30 * time.Millisecond)
	if got := sim.Status(); got != LinkUp {
		t.Errorf("Status() after latency elapsed = %v, want LinkUp", got)
	}
}

func TestSimulatorAccessPoint(t *testing.T) {
	sim := NewSimulator(nil)

	ip, err := sim.StartAccessPoint("provisiond-setup", "12345678")
	if err != nil {
		t.Fatalf("StartAccessPoint() error = %v", err)
	}
	if ip == nil {
		t.Fatal("StartAccessPoint() returned nil IP")
	}
	if got := sim.AccessPointSSID(); got != "provisiond-setup" {
		t.Errorf("AccessPointSSID() = %q, want %q", got, "provisiond-setup")
	}

	// Joining drops broadcast mode
	if err := sim.Join("HomeNet", "x"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if got := sim.AccessPointSSID(); got != "" {
		t.Errorf("AccessPointSSID() after Join = %q, want empty", got)
	}

	if _, err := sim.StartAccessPoint("", ""); err == nil {
		t.Error("StartAccessPoint with empty SSID did not fail")
	}
}
