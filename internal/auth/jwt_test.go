package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService("unit-test-secret-key")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	userID, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.GenerateWithDuration("user-123", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	if _, err := svc.Validate(token); err == nil {
		t.Error("Validate() accepted an expired token")
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := svc.Validate(tampered); err == nil {
		t.Error("Validate() accepted a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService("a-completely-different-secret")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	token, err := svc.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := other.Validate(token); err == nil {
		t.Error("Validate() accepted a token signed with another secret")
	}
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("NewTokenService() accepted a too-short secret")
	}
}
