package auth

import (
	"errors"
	"testing"
	"time"

	"produce-marketplace/internal/domain"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret")
	token, err := m.Issue("cust-1", domain.RoleCustomer, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "cust-1" || claims.Role != domain.RoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue("cust-1", domain.RoleCustomer, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	m.now = time.Now
	if _, err := m.Verify(token); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("a").Issue("cust-1", domain.RoleFarmer, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewTokenManager("b").Verify(token); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestIssueValidation(t *testing.T) {
	m := NewTokenManager("secret")
	if _, err := m.Issue("", domain.RoleCustomer, time.Hour); err == nil {
		t.Fatalf("expected error for empty subject")
	}
	if _, err := m.Issue("x", domain.Role("admin"), time.Hour); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := BearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("unexpected %q %v", tok, ok)
	}
	if tok, ok := BearerToken("bearer  xyz "); !ok || tok != "xyz" {
		t.Fatalf("unexpected %q %v", tok, ok)
	}
	for _, h := range []string{"", "Bearer ", "Basic abc", "abc"} {
		if _, ok := BearerToken(h); ok {
			t.Fatalf("expected %q to be rejected", h)
		}
	}
}
