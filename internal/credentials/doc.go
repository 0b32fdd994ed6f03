// Package credentials parses and sanitizes WiFi credential pairs.
//
// Plaintext recovered by the payload cipher has the layout "NAME|SECRET".
// Parse captures both fields with a 63-byte bound and strips every byte
// outside printable ASCII, which also disposes of cipher pad bytes left
// behind by the padding-free decrypt.
package credentials
