// Package resetbutton watches a physical input and performs a factory
// reset after a sustained hold.
//
// The watcher samples the input on a fixed interval. A press that is
// held continuously for the full hold window clears the credential
// store, announces the reset on the display, and restarts the device.
// Releasing the button before the window elapses cancels the hold, so
// an accidental tap never wipes anything.
package resetbutton

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/display"
	"github.com/provkit/provisiond/internal/logging"
	"github.com/provkit/provisiond/internal/store"
)

const (
	// DefaultInterval is how often the input is sampled.
	DefaultInterval = 100 * time.Millisecond

	// DefaultHold is how long the button must stay pressed before the
	// reset fires.
	DefaultHold = 5000 * time.Millisecond
)

// Input reports the instantaneous pressed state of the reset control.
type Input interface {
	Pressed() (bool, error)
}

// GPIOInput reads a sysfs GPIO value file. Buttons wired to ground with
// a pull-up read 0 while pressed, which is the ActiveLow case.
type GPIOInput struct {
	Path      string
	ActiveLow bool
}

func (g *GPIOInput) Pressed() (bool, error) {
	raw, err := os.ReadFile(g.Path)
	if err != nil {
		return false, err
	}
	level := strings.TrimSpace(string(raw))
	if g.ActiveLow {
		return level == "0", nil
	}
	return level == "1", nil
}

// Restarter restarts the device after a completed factory reset.
type Restarter interface {
	Restart() error
}

// ExecRestarter shells out to a configured reboot command.
type ExecRestarter struct {
	Command []string
}

func (r *ExecRestarter) Restart() error {
	if len(r.Command) == 0 {
		return nil
	}
	cmd := exec.Command(r.Command[0], r.Command[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Watcher polls an Input and fires a factory reset after a sustained
// hold. It is not safe for concurrent use; Run drives it from a single
// goroutine.
type Watcher struct {
	Input     Input
	Store     store.Store
	Sink      display.Sink
	Restarter Restarter

	Interval time.Duration
	Hold     time.Duration

	holding   bool
	heldSince time.Time
	fired     bool
}

// NewWatcher returns a Watcher with the default sampling interval and
// hold window.
func NewWatcher(input Input, st store.Store, sink display.Sink, restarter Restarter) *Watcher {
	return &Watcher{
		Input:     input,
		Store:     st,
		Sink:      sink,
		Restarter: restarter,
		Interval:  DefaultInterval,
		Hold:      DefaultHold,
	}
}

// Run samples the input until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.sample(now)
		}
	}
}

// sample processes one observation of the input at the given time and
// reports whether a factory reset fired. A hold is measured from the
// first pressed sample; it completes when a later pressed sample is at
// least Hold after it. Release or a read error cancels the hold.
func (w *Watcher) sample(now time.Time) bool {
	pressed, err := w.Input.Pressed()
	if err != nil {
		logging.Warn("Reset input read failed", zap.Error(err))
		w.holding = false
		w.fired = false
		return false
	}

	if !pressed {
		w.holding = false
		w.fired = false
		return false
	}

	if !w.holding {
		w.holding = true
		w.heldSince = now
		return false
	}

	if w.fired || now.Sub(w.heldSince) < w.Hold {
		return false
	}

	// Latch until release so one hold triggers exactly one reset
	w.fired = true
	w.reset()
	return true
}

func (w *Watcher) reset() {
	logging.Info("Factory reset triggered",
		zap.Duration("hold", w.Hold))

	if err := w.Store.Clear(); err != nil {
		logging.Error("Failed to clear stored credentials", zap.Error(err))
	}
	if err := w.Sink.Show("Factory Reset"); err != nil {
		logging.Warn("Failed to announce factory reset", zap.Error(err))
	}
	if err := w.Restarter.Restart(); err != nil {
		logging.Error("Restart command failed", zap.Error(err))
	}
}
