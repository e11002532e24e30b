package domain

import (
	"testing"
	"time"
)

func TestParsePaymentMethod(t *testing.T) {
	cases := map[string]PaymentMethod{"": PaymentCOD, "COD": PaymentCOD, " online ": PaymentOnline}
	for in, want := range cases {
		got, ok := ParsePaymentMethod(in)
		if !ok || got != want {
			t.Fatalf("ParsePaymentMethod(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParsePaymentMethod("barter"); ok {
		t.Fatalf("expected unknown method to be rejected")
	}
}

func TestInitialStatus(t *testing.T) {
	if InitialStatus(PaymentCOD) != OrderStatusPlaced {
		t.Fatalf("cod orders start placed")
	}
	if InitialStatus(PaymentOnline) != OrderStatusPending {
		t.Fatalf("online orders start pending")
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(OrderStatusPending, OrderStatusPlaced) {
		t.Fatalf("pending -> placed should be allowed")
	}
	if !CanTransition(OrderStatusPending, OrderStatusPaymentFailed) {
		t.Fatalf("pending -> payment_failed should be allowed")
	}
	if CanTransition(OrderStatusPlaced, OrderStatusPaymentFailed) {
		t.Fatalf("placed is terminal")
	}
	if !OrderStatusPaymentFailed.IsTerminal() || OrderStatusPending.IsTerminal() {
		t.Fatalf("unexpected terminal states")
	}
}

func TestIdentity(t *testing.T) {
	now := time.Now()
	if Guest().Authenticated {
		t.Fatalf("guest must be unauthenticated")
	}
	id := Identity{Authenticated: true, Token: "t", Subject: "c1", ExpiresAt: now.Add(-time.Second)}
	if !id.Expired(now) {
		t.Fatalf("expected expired")
	}
	if (Identity{Authenticated: true}).Expired(now) {
		t.Fatalf("zero expiry never expires")
	}
	if !Guest().SameAccount(Identity{}) {
		t.Fatalf("two guests are the same session owner")
	}
	if id.SameAccount(Identity{Authenticated: true, Token: "other", Subject: "c1"}) {
		t.Fatalf("a token change must be detected")
	}
}
