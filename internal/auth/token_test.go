package auth

import "testing"

func TestNewSessionToken_NonEmpty(t *testing.T) {
	token, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken() error = %v", err)
	}
	if token == "" {
		t.Error("NewSessionToken() returned empty token")
	}

	// 32 bytes base64url-encoded without padding is 43 characters.
	if len(token) != 43 {
		t.Errorf("token length = %d, want 43", len(token))
	}
}

func TestNewSessionToken_Unique(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		token, err := NewSessionToken()
		if err != nil {
			t.Fatalf("NewSessionToken() error = %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}
