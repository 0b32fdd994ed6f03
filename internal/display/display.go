package display

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/logging"
)

// ErrInit indicates the status sink hardware (or its stand-in) could not be
// initialized. The sink is the only feedback channel the device has before
// networking exists, so the boot sequence treats this as fatal and halts
// instead of continuing blind.
var ErrInit = errors.New("status sink initialization failed")

// Sink is the status surface the provisioning pipeline reports to. It
// accepts short human-readable text only; it is not a general UI.
type Sink interface {
	// Show replaces the sink content with the given lines.
	Show(lines ...string) error

	// Connecting toggles the in-progress indicator shown while a
	// connection attempt is running.
	Connecting(active bool)

	// Close releases the sink.
	Close() error
}

// LogSink reports status text through the structured logger. It is the
// default sink for headless runs.
type LogSink struct{}

// NewLogSink creates a sink backed by the package logger.
func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Show(lines ...string) error {
	logging.Info("Status", zap.String("text", strings.Join(lines, " / ")))
	return nil
}

func (s *LogSink) Connecting(active bool) {
	logging.Debug("Status spinner", zap.Bool("connecting", active))
}

func (s *LogSink) Close() error {
	return nil
}
