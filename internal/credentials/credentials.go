package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/provkit/provisiond/internal/payload"
)

// ErrFormat indicates plaintext that does not match the NAME|SECRET layout
// or carries a field over the 63-byte capture bound.
var ErrFormat = errors.New("invalid credentials format")

// Credentials is a network name/secret pair recovered from a provisioning
// payload or loaded from the store. Both fields are sanitized printable
// ASCII of at most payload.FieldCapacity bytes.
type Credentials struct {
	SSID   string
	Secret string
}

// String renders the pair for logs with the secret masked.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ssid=%q, secret=<%d bytes>}", c.SSID, len(c.Secret))
}

// Parse splits decrypted plaintext into a credentials pair.
//
// The expected layout is "NAME|SECRET" with each field at most 63 bytes
// before sanitization. A missing delimiter or an empty second field fails
// with ErrFormat. After capture, each field is sanitized: every byte outside
// printable ASCII (0x20-0x7E) is dropped and the remainder compacted in
// order. Sanitization itself never fails; a field stripped to nothing is
// still considered parsed.
func Parse(plaintext []byte) (Credentials, error) {
	idx := strings.IndexByte(string(plaintext), '|')
	if idx < 0 {
		return Credentials{}, fmt.Errorf("%w: missing '|' delimiter", ErrFormat)
	}

	name := plaintext[:idx]
	secret := plaintext[idx+1:]

	if len(secret) == 0 {
		return Credentials{}, fmt.Errorf("%w: missing secret field", ErrFormat)
	}
	if len(name) > payload.FieldCapacity {
		return Credentials{}, fmt.Errorf("%w: network name is %d bytes, capture bound is %d",
			ErrFormat, len(name), payload.FieldCapacity)
	}
	// The secret capture is bounded, not validated: bytes past the bound
	// (typically cipher pad bytes behind a maximum-length secret) are
	// dropped rather than rejected.
	if len(secret) > payload.FieldCapacity {
		secret = secret[:payload.FieldCapacity]
	}

	return Credentials{
		SSID:   sanitize(name),
		Secret: sanitize(secret),
	}, nil
}

// sanitize drops every byte outside the printable ASCII range and compacts
// the survivors in their original order. Decryption leaves trailing pad
// bytes on the secret field; they land below 0x20 and are removed here.
func sanitize(field []byte) string {
	out := make([]byte, 0, len(field))
	for _, b := range field {
		if b > 0x1F && b < 0x7F {
			out = append(out, b)
		}
	}
	return string(out)
}
