// Package payload implements the credential cipher for provisioning
// requests.
//
// A provisioning payload is base64(IV || ciphertext) where the ciphertext
// is AES-128-CBC under a key compiled into the binary. Decrypt enforces
// three explicit capacity invariants before touching any output buffer:
//
//   - the decoded payload fits in DecodeCapacity (64 bytes)
//   - the decoded payload holds at least an IV (16 bytes)
//   - the ciphertext is smaller than PlaintextCapacity (128 bytes)
//
// # Security model
//
// The shared compiled-in key and the absence of any integrity check are
// deliberate characteristics of the device firmware this agent implements,
// not oversights of this package. See the credentialKey doc comment. Do not
// treat a successful Decrypt as proof the payload came from a trusted
// sender.
package payload
