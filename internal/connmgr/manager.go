package connmgr

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/credentials"
	"github.com/provkit/provisiond/internal/display"
	"github.com/provkit/provisiond/internal/logging"
	"github.com/provkit/provisiond/internal/radio"
	"github.com/provkit/provisiond/internal/store"
)

// Retry budget for a single connection attempt: 20 polls at 500ms, a
// 10-second ceiling.
const (
	DefaultAttempts     = 20
	DefaultAttemptDelay = 500 * time.Millisecond
)

// Transition is a single observed state change, delivered to listeners in
// the order it occurred.
type Transition struct {
	From    State
	To      State
	Message string
}

// Manager owns the radio and drives it between broadcast (access point)
// and station mode. Station attempts run as detached workers so the HTTP
// boundary is never blocked for the retry window; a single-slot guard
// keeps the radio exclusive to one attempt at a time.
type Manager struct {
	radio radio.Driver
	store store.Store
	sink  display.Sink

	apSSID       string
	apPassphrase string

	// Attempts and AttemptDelay bound the station retry loop. Tests
	// shrink them; production uses the defaults.
	Attempts     int
	AttemptDelay time.Duration

	mu        sync.Mutex
	state     State
	listeners []func(Transition)

	// attemptMu is the single-slot worker guard. An attempt that cannot
	// take it is dropped, not queued: the radio is exclusive and the
	// operator resubmits after a failure anyway.
	attemptMu sync.Mutex

	wg sync.WaitGroup
}

// New creates a manager in APMode (not yet broadcasting; Bootstrap or the
// first fallback brings the access point up).
func New(driver radio.Driver, st store.Store, sink display.Sink, apSSID, apPassphrase string) *Manager {
	return &Manager{
		radio:        driver,
		store:        st,
		sink:         sink,
		apSSID:       apSSID,
		apPassphrase: apPassphrase,
		Attempts:     DefaultAttempts,
		AttemptDelay: DefaultAttemptDelay,
		state:        StateAPMode,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnTransition registers a listener invoked synchronously for every state
// change. Register before Bootstrap to observe the boot transitions.
func (m *Manager) OnTransition(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Bootstrap seeds the manager at boot: persisted credentials go straight
// into a synchronous connection attempt, otherwise the fallback access
// point comes up. Blocks for up to the retry budget.
func (m *Manager) Bootstrap() {
	creds, ok, err := m.store.Get()
	if err != nil {
		logging.Error("Failed to read credential store", zap.Error(err))
	}

	if ok {
		logging.Info("Stored credentials found, connecting", zap.String("ssid", creds.SSID))
		// Boot attempts skip persistence: the pair is already stored.
		m.attemptMu.Lock()
		m.runAttempt(creds, false)
		m.attemptMu.Unlock()
		return
	}

	logging.Info("No stored credentials, starting AP mode")
	m.enterAPMode()
}

// StartAttempt hands validated credentials to a detached worker and
// returns immediately. Ownership of the pair moves to the worker; it is
// released on every exit path (busy drop, rejected transition, retry
// exhaustion, success).
func (m *Manager) StartAttempt(creds credentials.Credentials) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		if !m.attemptMu.TryLock() {
			// Another attempt owns the radio. Drop rather than queue.
			logging.Warn("Connection attempt already in flight, dropping request",
				zap.String("ssid", creds.SSID))
			return
		}
		defer m.attemptMu.Unlock()

		m.runAttempt(creds, true)
	}()
}

// Wait blocks until all detached workers have finished. An in-flight
// attempt is never cancelled; shutdown joins it instead.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// runAttempt drives one full station attempt: Connecting, then either
// Connected (persisting if asked) or Failed with an immediate fallback to
// the access point. Caller holds the single-slot guard on the detached
// path; the boot path runs before any worker exists.
func (m *Manager) runAttempt(creds credentials.Credentials, persist bool) {
	if err := m.transition(EventCredentials, "Connecting:", creds.SSID); err != nil {
		// Connected is terminal for the session; late credentials are dropped.
		logging.Warn("Credential event ignored", zap.Error(err))
		return
	}

	m.sink.Connecting(true)
	defer m.sink.Connecting(false)

	if err := m.radio.Disconnect(); err != nil {
		logging.Debug("Radio disconnect before join", zap.Error(err))
	}

	up := false
	if err := m.radio.Join(creds.SSID, creds.Secret); err != nil {
		logging.Error("Radio join failed", zap.String("ssid", creds.SSID), zap.Error(err))
	} else {
		for attempt := 0; attempt < m.Attempts; attempt++ {
			if m.radio.Status() == radio.LinkUp {
				up = true
				break
			}
			time.Sleep(m.AttemptDelay)
		}
		// Final poll so a link that came up during the last delay counts
		if !up {
			up = m.radio.Status() == radio.LinkUp
		}
	}

	if !up {
		logging.Warn("WiFi connection failed",
			zap.String("ssid", creds.SSID),
			zap.Int("attempts", m.Attempts),
		)
		if err := m.transition(EventRetriesExhausted, "Connection failed"); err != nil {
			logging.Error("Failure transition rejected", zap.Error(err))
			return
		}
		// Failed always falls straight back to the setup network so the
		// device stays reachable for re-provisioning.
		if err := m.transition(EventFallback, "Starting AP mode"); err != nil {
			logging.Error("Fallback transition rejected", zap.Error(err))
			return
		}
		m.enterAPMode()
		return
	}

	if persist {
		if err := m.store.Put(creds); err != nil {
			logging.Error("Failed to persist credentials", zap.Error(err))
		}
	}

	ip := "unknown"
	if addr := m.radio.LocalIP(); addr != nil {
		ip = addr.String()
	}
	logging.Info("Connected to WiFi",
		zap.String("ssid", creds.SSID),
		zap.String("ip", ip),
	)
	if err := m.transition(EventLinkUp, "Connected:", creds.SSID, "IP: "+ip); err != nil {
		logging.Error("Link-up transition rejected", zap.Error(err))
	}
}

// enterAPMode brings the fallback access point up and reports its address.
// The state is already APMode when this runs.
func (m *Manager) enterAPMode() {
	ip, err := m.radio.StartAccessPoint(m.apSSID, m.apPassphrase)
	if err != nil {
		logging.Error("Failed to start access point", zap.Error(err))
		_ = m.sink.Show("AP start failed")
		return
	}

	logging.Info("AP mode active",
		zap.String("ssid", m.apSSID),
		zap.String("ip", ip.String()),
	)
	_ = m.sink.Show("AP Mode Active", ip.String())
}

// transition applies the pure transition function, updates the sink, and
// notifies listeners. The message lines go to the sink verbatim.
func (m *Manager) transition(event Event, sinkLines ...string) error {
	m.mu.Lock()
	next, err := Next(m.state, event)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	from := m.state
	m.state = next
	listeners := make([]func(Transition), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	logging.LogStateChange(from.String(), next.String(), event.String())
	_ = m.sink.Show(sinkLines...)

	tr := Transition{From: from, To: next, Message: sinkLines[0]}
	for _, fn := range listeners {
		fn(tr)
	}
	return nil
}
