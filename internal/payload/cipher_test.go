package payload

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// encryptWithIV builds a payload with a caller-controlled IV so tests are
// deterministic. No padding is applied; callers supply block-aligned input.
func encryptWithIV(t *testing.T, iv, plaintext []byte) string {
	t.Helper()

	if len(plaintext)%aes.BlockSize != 0 {
		t.Fatalf("test plaintext length %d is not block aligned", len(plaintext))
	}

	block, err := aes.NewCipher(credentialKey)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}

	buf := make([]byte, len(iv)+len(plaintext))
	copy(buf, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf[len(iv):], plaintext)
	return base64.StdEncoding.EncodeToString(buf)
}

func TestDecryptRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "typical credentials", plaintext: "HomeNet|hunter22"},
		{name: "full block of separators", plaintext: strings.Repeat("|", 16)},
		{name: "two blocks", plaintext: "CoffeeShop Guest|correct horse b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := bytes.Repeat([]byte{0x42}, IVSize)
			encoded := encryptWithIV(t, iv, []byte(tt.plaintext))

			got, err := Decrypt(encoded)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if string(got) != tt.plaintext {
				t.Errorf("Decrypt() = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	// Encrypt pads with PKCS#7; the pad bytes survive Decrypt by design
	// (no padding validation) and must prefix-match the input exactly.
	plaintext := []byte("HomeNet|hunter22")

	encoded, err := Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	got, err := Decrypt(encoded)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}

	if !bytes.HasPrefix(got, plaintext) {
		t.Errorf("Decrypt() = %q, want prefix %q", got, plaintext)
	}
	// Trailing bytes are the PKCS#7 pad: all identical, all below 0x20
	pad := got[len(plaintext):]
	if len(pad) == 0 || len(pad) > aes.BlockSize {
		t.Fatalf("pad length = %d, want 1..%d", len(pad), aes.BlockSize)
	}
	for _, b := range pad {
		if b != byte(len(pad)) {
			t.Errorf("pad byte = 0x%02x, want 0x%02x", b, len(pad))
		}
	}
}

func TestDecryptErrors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{
			name:    "not base64",
			encoded: "!!!not-base64!!!",
			wantErr: ErrDecode,
		},
		{
			name: "decoded payload exceeds capacity",
			// 68 raw bytes decode beyond the 64-byte buffer
			encoded: base64.StdEncoding.EncodeToString(make([]byte, 68)),
			wantErr: ErrDecode,
		},
		{
			name: "too short for IV",
			// 10 bytes total: no room for a 16-byte IV
			encoded: base64.StdEncoding.EncodeToString(make([]byte, 10)),
			wantErr: ErrShortPayload,
		},
		{
			name: "ciphertext not block aligned",
			// IV plus 5 trailing bytes
			encoded: base64.StdEncoding.EncodeToString(make([]byte, IVSize+5)),
			wantErr: ErrDecode,
		},
		{
			name:    "empty payload",
			encoded: "",
			wantErr: ErrShortPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decrypt(tt.encoded)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decrypt() error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("Decrypt() = %v, want nil on error", got)
			}
		})
	}
}

func TestDecryptRawOverflowGuard(t *testing.T) {
	// The guard must fire before any byte is written to the output buffer.
	// It is unreachable through Decrypt (DecodeCapacity bounds the
	// ciphertext to 48 bytes) but is pinned here as an explicit invariant.
	iv := make([]byte, IVSize)

	for _, n := range []int{PlaintextCapacity, PlaintextCapacity + aes.BlockSize} {
		got, err := decryptRaw(iv, make([]byte, n))
		if !errors.Is(err, ErrPayloadTooLarge) {
			t.Errorf("decryptRaw(%d bytes) error = %v, want ErrPayloadTooLarge", n, err)
		}
		if got != nil {
			t.Errorf("decryptRaw(%d bytes) = %v, want nil", n, got)
		}
	}

	// One block under capacity is still accepted
	if _, err := decryptRaw(iv, make([]byte, PlaintextCapacity-aes.BlockSize)); err != nil {
		t.Errorf("decryptRaw(%d bytes) error = %v, want nil", PlaintextCapacity-aes.BlockSize, err)
	}
}

func TestDecryptNoIntegrityCheck(t *testing.T) {
	// A flipped ciphertext bit decrypts "successfully" to different bytes.
	// This pins the documented weakness: CBC with no MAC never rejects
	// tampered input.
	iv := bytes.Repeat([]byte{0x01}, IVSize)
	encoded := encryptWithIV(t, iv, []byte("HomeNet|hunter22"))

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw[len(raw)-1] ^= 0x80
	tampered := base64.StdEncoding.EncodeToString(raw)

	got, err := Decrypt(tampered)
	if err != nil {
		t.Fatalf("Decrypt(tampered) error = %v, want nil", err)
	}
	if string(got) == "HomeNet|hunter22" {
		t.Error("tampered ciphertext decrypted to the original plaintext")
	}
}

func TestEncryptRejectsOversizedPlaintext(t *testing.T) {
	// 48 bytes of ciphertext is the most the agent will decode; one byte
	// over forces a 49..64-byte padded plaintext and must be rejected.
	oversized := make([]byte, DecodeCapacity-IVSize)
	if _, err := Encrypt(oversized); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Encrypt(%d bytes) error = %v, want ErrPayloadTooLarge", len(oversized), err)
	}

	// 47 bytes pads to exactly 48 and fits
	if _, err := Encrypt(oversized[:47]); err != nil {
		t.Errorf("Encrypt(47 bytes) error = %v, want nil", err)
	}
}
