package security

import (
	"testing"
	"time"
)

func TestCSRFTokenLifecycle(t *testing.T) {
	token := GenerateCSRFToken()
	if token == "" {
		t.Fatal("Generated token should not be empty")
	}

	if !ValidateCSRFToken(token) {
		t.Error("Fresh token should validate")
	}

	// Validation must not consume the token.
	if !ValidateCSRFToken(token) {
		t.Error("Token should remain valid after validation")
	}

	if ValidateCSRFToken("not-a-token") {
		t.Error("Unknown token should not validate")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token := GenerateCSRFToken()

	csrfTokensMu.Lock()
	csrfTokens[token] = time.Now().Add(-time.Minute)
	csrfTokensMu.Unlock()

	if ValidateCSRFToken(token) {
		t.Error("Expired token should not validate")
	}
}
