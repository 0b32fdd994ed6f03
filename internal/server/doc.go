// Package server implements the provisioning HTTP boundary.
//
// The endpoint is an unauthenticated local channel, reachable on the
// device's setup access point. It accepts an encrypted credential payload,
// validates it synchronously, and runs the connection attempt as detached
// work so the responder never blocks on the radio.
//
// # Endpoints
//
//   - POST /set_wifi: body {"data": "<base64(IV||ciphertext)>"}.
//     400 with a short diagnostic on malformed JSON, missing field, or any
//     decrypt/parse failure; nothing changes state. 200
//     "WiFi Credentials Processing..." on success, acknowledged BEFORE
//     the connection attempt begins, so the response never reports the
//     connection outcome.
//   - GET /: fixed liveness text.
//   - GET /display?msg=: pushes msg to the status sink and echoes it.
//   - GET /status: WebSocket stream of connection state transitions.
//
// # Ordering
//
// The 200 acknowledgment for /set_wifi is flushed to the wire before the
// credentials are handed to the connection manager. Clients that need the
// connection outcome subscribe to /status or probe the device on its new
// address.
//
// # Graceful Shutdown
//
// Shutdown closes the listener, finishes in-flight requests, and drops
// status subscribers. In-flight connection attempts are owned by the
// connection manager and joined there, not here.
package server
