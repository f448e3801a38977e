package session

import (
	"strings"
	"testing"
)

const testKeyHex = "6d79776174742d746f6b656e2d6369706865722d746573742d6b65792d313233"

func TestTokenCipher_RoundTrip(t *testing.T) {
	cipher, err := NewTokenCipher(testKeyHex)
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	sealed, err := cipher.Seal("bearer-token-value")
	if err != nil {
		t.Fatalf("failed to seal token: %v", err)
	}

	if strings.Contains(string(sealed), "bearer-token-value") {
		t.Error("sealed output contains the plaintext token")
	}

	token, err := cipher.Open(sealed)
	if err != nil {
		t.Fatalf("failed to open sealed token: %v", err)
	}
	if token != "bearer-token-value" {
		t.Errorf("expected original token, got %q", token)
	}
}

func TestNewTokenCipher_RejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not hex", "zz" + testKeyHex[2:]},
		{"too short", testKeyHex[:32]},
		{"too long", testKeyHex + "aa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenCipher(tt.key); err == nil {
				t.Errorf("expected error for key %q", tt.key)
			}
		})
	}
}

func TestTokenCipher_RejectsTamperedCiphertext(t *testing.T) {
	cipher, err := NewTokenCipher(testKeyHex)
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	sealed, err := cipher.Seal("bearer-token-value")
	if err != nil {
		t.Fatalf("failed to seal token: %v", err)
	}

	sealed[len(sealed)-1] ^= 0xff
	if _, err := cipher.Open(sealed); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestTokenCipher_RejectsTruncatedInput(t *testing.T) {
	cipher, err := NewTokenCipher(testKeyHex)
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	if _, err := cipher.Open([]byte("short")); err == nil {
		t.Error("expected error for input shorter than the nonce")
	}
}
