// Package logging provides structured logging for the provisioning agent.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the agent. It provides both general logging
// functions and specialized functions for provisioning-specific events.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (payload sizes, retry attempts)
//   - Info: Normal operations (requests, state changes, persistence)
//   - Warn: Non-fatal issues (connection retries, rejected payloads)
//   - Error: Fatal issues (startup failures, store corruption)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Credentials accepted",
//	    zap.String("remote_addr", "192.168.4.2"),
//	    zap.String("ssid", "HomeNet"),
//	)
//
// # Configuration
//
// Initialize logging at agent startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// CLI commands that want silent output by default should use
// InitializeFromEnv, which only enables output when PROVISIOND_LOG_LEVEL
// is set.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
