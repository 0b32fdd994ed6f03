package resetbutton

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/provkit/provisiond/internal/credentials"
	"github.com/provkit/provisiond/internal/display"
	"github.com/provkit/provisiond/internal/store"
)

type fakeInput struct {
	pressed bool
	err     error
}

func (f *fakeInput) Pressed() (bool, error) {
	return f.pressed, f.err
}

type countingRestarter struct {
	calls int
}

func (r *countingRestarter) Restart() error {
	r.calls++
	return nil
}

func newTestWatcher() (*Watcher, *fakeInput, *store.MemoryStore, *countingRestarter) {
	input := &fakeInput{}
	st := store.NewMemoryStore()
	_ = st.Put(credentials.Credentials{SSID: "HomeNet", Secret: "hunter22"})
	restarter := &countingRestarter{}
	w := NewWatcher(input, st, display.NewLogSink(), restarter)
	return w, input, st, restarter
}

func TestHoldWindowBoundary(t *testing.T) {
	tests := []struct {
		name     string
		heldFor  time.Duration
		wantFire bool
	}{
		{"one sample short of window", 4900 * time.Millisecond, false},
		{"just under window", 4999 * time.Millisecond, false},
		{"exactly the window", 5000 * time.Millisecond, true},
		{"past the window", 5100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, input, _, _ := newTestWatcher()
			input.pressed = true

			start := time.Now()
			if w.sample(start) {
				t.Fatal("fired on first pressed sample")
			}
			if got := w.sample(start.Add(tt.heldFor)); got != tt.wantFire {
				t.Errorf("sample(+%v) fired = %v, want %v", tt.heldFor, got, tt.wantFire)
			}
		})
	}
}

func TestReleaseCancelsHold(t *testing.T) {
	w, input, st, restarter := newTestWatcher()
	start := time.Now()

	input.pressed = true
	w.sample(start)
	w.sample(start.Add(3 * time.Second))

	input.pressed = false
	w.sample(start.Add(4 * time.Second))

	// The second press starts a fresh window
	input.pressed = true
	w.sample(start.Add(5 * time.Second))
	if w.sample(start.Add(9 * time.Second)) {
		t.Error("fired before the new window elapsed")
	}
	if !w.sample(start.Add(10 * time.Second)) {
		t.Error("did not fire after the new window elapsed")
	}

	if restarter.calls != 1 {
		t.Errorf("restarter called %d times, want 1", restarter.calls)
	}
	if _, ok, _ := st.Get(); ok {
		t.Error("credentials survived factory reset")
	}
}

func TestFiresOncePerHold(t *testing.T) {
	w, input, _, restarter := newTestWatcher()
	input.pressed = true
	start := time.Now()

	w.sample(start)
	for i := 0; i < 5; i++ {
		w.sample(start.Add(w.Hold + time.Duration(i)*w.Interval))
	}

	if restarter.calls != 1 {
		t.Errorf("restarter called %d times while held, want 1", restarter.calls)
	}
}

func TestReadErrorCancelsHold(t *testing.T) {
	w, input, _, _ := newTestWatcher()
	start := time.Now()

	input.pressed = true
	w.sample(start)

	input.err = errors.New("gpio gone")
	w.sample(start.Add(3 * time.Second))
	input.err = nil

	if w.sample(start.Add(6 * time.Second)) {
		t.Error("fired across a read error; window should have restarted")
	}
}

func TestGPIOInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "value")

	tests := []struct {
		name      string
		level     string
		activeLow bool
		want      bool
	}{
		{"active low pressed", "0\n", true, true},
		{"active low released", "1\n", true, false},
		{"active high pressed", "1\n", false, true},
		{"active high released", "0\n", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(tt.level), 0o600); err != nil {
				t.Fatal(err)
			}
			input := &GPIOInput{Path: path, ActiveLow: tt.activeLow}
			got, err := input.Pressed()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Pressed() = %v, want %v", got, tt.want)
			}
		})
	}

	missing := &GPIOInput{Path: filepath.Join(dir, "nope")}
	if _, err := missing.Pressed(); err == nil {
		t.Error("Pressed() on missing value file returned nil error")
	}
}
