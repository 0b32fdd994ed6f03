// Package radio abstracts the wireless hardware behind a small Driver
// interface with two modes: broadcast (access point, for provisioning) and
// station (joining an existing network).
//
// The Driver is treated as a single exclusive resource. The connection
// manager serializes station attempts; drivers only need Status and
// LocalIP to be safe for concurrent use.
//
// # Implementations
//
//   - Simulator: in-memory driver with a configurable table of joinable
//     networks. Used by tests and `provisiond serve --simulate`.
//   - WPACLIDriver: shells out to wpa_cli on embedded Linux, using a
//     mode=2 network block for AP mode.
package radio
