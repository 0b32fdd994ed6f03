// Package connmgr drives the radio between broadcast (access point) and
// station mode.
//
// The state machine has four states: APMode, Connecting, Connected and
// Failed. Next is the pure transition function; Manager wraps it with the
// radio driver, the credential store and the status sink. Two invariants
// hold everywhere: Connected is reachable only through Connecting, and
// Failed immediately falls back to APMode so the device always stays
// reachable for re-provisioning.
//
// A station attempt polls the radio up to 20 times at 500ms intervals.
// Attempts triggered by provisioning requests run as detached workers
// behind a single-slot guard (the radio is one exclusive resource);
// the boot attempt runs synchronously before the HTTP boundary exists.
// Nothing cancels an in-flight attempt: it runs to completion and
// shutdown joins it via Wait.
package connmgr
