package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner("s3cret", "dev")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	token, err := signer.Sign(Principal{Role: RoleAdmin, ID: "google:42"}, "ops@filmdecks.com", "Ops")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	p, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Role != RoleAdmin || p.ID != "google:42" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	a, _ := NewSigner("one", "dev")
	b, _ := NewSigner("two", "dev")
	token, err := a.Sign(Principal{Role: RoleViewer, ID: "u1"}, "", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer, _ := NewSigner("s3cret", "dev")
	signer.now = func() time.Time { return time.Now().Add(-13 * time.Hour) }
	token, err := signer.Sign(Principal{Role: RoleAdmin, ID: "admin"}, "", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestNewSignerRequiresSecretInProduction(t *testing.T) {
	if _, err := NewSigner("", "production"); err == nil {
		t.Fatalf("expected error without secret in production")
	}
	if _, err := NewSigner("", "dev"); err != nil {
		t.Fatalf("dev should fall back to a default secret: %v", err)
	}
}

func TestSignRejectsAnonymous(t *testing.T) {
	signer, _ := NewSigner("s3cret", "dev")
	if _, err := signer.Sign(Anonymous(), "", ""); err == nil {
		t.Fatalf("expected error for anonymous principal")
	}
}

func TestPasswordChecker(t *testing.T) {
	hash, err := HashPassword("clapperboard")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	checker := NewPasswordChecker(hash)
	if !checker.Check("admin", "clapperboard") {
		t.Fatalf("expected valid credentials to pass")
	}
	if checker.Check("admin", "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
	if checker.Check("root", "clapperboard") {
		t.Fatalf("expected wrong user to fail")
	}
	if NewPasswordChecker("").Check("admin", "clapperboard") {
		t.Fatalf("expected empty hash to reject")
	}
}
