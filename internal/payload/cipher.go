package payload

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Capacity invariants for provisioning payloads. These mirror the fixed
// buffer sizes of the original firmware and are enforced explicitly rather
// than falling out of buffer allocation.
const (
	// DecodeCapacity is the maximum decoded payload size (IV + ciphertext)
	DecodeCapacity = 64

	// IVSize is the AES-CBC initialization vector size
	IVSize = 16

	// PlaintextCapacity is the maximum decrypted plaintext size
	PlaintextCapacity = 128

	// FieldCapacity is the maximum size of a single credential field
	FieldCapacity = 63
)

// credentialKey is the AES-128 key used to decrypt provisioning payloads.
//
// KNOWN WEAKNESS: this key is compiled into the binary and identical across
// every unit of a build. It provides obfuscation of credentials in transit
// on the setup network, not per-device secrecy. CBC mode carries no
// integrity check either: a tampered ciphertext decrypts "successfully" to
// garbage bytes instead of being rejected. Both properties are intentional
// firmware behavior and are pinned by tests.
var credentialKey = []byte("thisismypassword")

// Payload decode/decrypt errors. Handlers map all of these to 400-class
// responses without mutating any state.
var (
	// ErrDecode indicates the transport encoding was malformed or the
	// decoded payload exceeds DecodeCapacity
	ErrDecode = errors.New("payload decode failed")

	// ErrShortPayload indicates the decoded payload has no room for an IV
	ErrShortPayload = errors.New("payload too short")

	// ErrPayloadTooLarge indicates the ciphertext would overflow the
	// plaintext capacity
	ErrPayloadTooLarge = errors.New("payload exceeds plaintext capacity")
)

// Decrypt decodes a base64 provisioning payload and reverses the AES-128-CBC
// transform, returning the raw plaintext bytes.
//
// The decoded payload is IV (16 bytes) followed by ciphertext. No padding
// scheme is validated and no integrity check is performed: the decrypted
// byte stream is returned as-is, trailing pad bytes included. Non-printable
// pad bytes are dropped later by credential sanitization.
func Decrypt(encoded string) ([]byte, error) {
	decoded, err := decode(encoded)
	if err != nil {
		return nil, err
	}

	if len(decoded) < IVSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d for IV", ErrShortPayload, len(decoded), IVSize)
	}

	iv := decoded[:IVSize]
	ciphertext := decoded[IVSize:]

	return decryptRaw(iv, ciphertext)
}

// decode reverses the transport encoding into a bounded buffer.
// Payloads that would exceed DecodeCapacity are rejected before decoding.
func decode(encoded string) ([]byte, error) {
	// base64 length check up front so an oversized payload never decodes
	if base64.StdEncoding.DecodedLen(len(encoded)) > DecodeCapacity+2 {
		return nil, fmt.Errorf("%w: encoded payload too long (%d chars)", ErrDecode, len(encoded))
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(decoded) > DecodeCapacity {
		return nil, fmt.Errorf("%w: decoded payload is %d bytes, capacity is %d", ErrDecode, len(decoded), DecodeCapacity)
	}

	return decoded, nil
}

// decryptRaw decrypts ciphertext with the fixed key and the given IV.
// The capacity check runs before any write to the output buffer.
func decryptRaw(iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) >= PlaintextCapacity {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, output capacity is %d", ErrPayloadTooLarge, len(ciphertext), PlaintextCapacity)
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", ErrDecode, len(ciphertext))
	}

	block, err := aes.NewCipher(credentialKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

// Encrypt is the inverse transform used by the operator CLI and round-trip
// tests: PKCS#7 pad, AES-128-CBC with a random IV, then base64(IV || ct).
// The padded plaintext must fit within the ciphertext budget implied by
// DecodeCapacity so that the agent will accept the result.
func Encrypt(plaintext []byte) (string, error) {
	padded := pkcs7Pad(plaintext, aes.BlockSize)

	if IVSize+len(padded) > DecodeCapacity {
		return "", fmt.Errorf("%w: %d bytes after padding, agent accepts at most %d",
			ErrPayloadTooLarge, len(padded), DecodeCapacity-IVSize)
	}

	block, err := aes.NewCipher(credentialKey)
	if err != nil {
		return "", err
	}

	buf := make([]byte, IVSize+len(padded))
	iv := buf[:IVSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf[IVSize:], padded)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// pkcs7Pad pads data to a multiple of blockSize. The pad bytes are all
// below 0x20, so the parser's sanitizer strips them after decryption.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}
