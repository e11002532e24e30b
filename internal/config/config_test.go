package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "SHUTDOWN_TIMEOUT_SECONDS", "CORS_ORIGINS", "STOREFRONT_API_URL", "STOREFRONT_GUEST_ID"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %v", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.Storefront.GuestID != "" {
		t.Fatalf("unexpected guest id %q", cfg.Storefront.GuestID)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test ,")
	t.Setenv("STOREFRONT_API_URL", "http://api.test/")
	t.Setenv("STOREFRONT_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("STOREFRONT_GUEST_FILE", "/tmp/cart.json")

	cfg := FromEnv()
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %v", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.Storefront.APIURL != "http://api.test" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.Storefront.APIURL)
	}
	if cfg.Storefront.Timeout != 10*time.Second {
		t.Fatalf("invalid duration should fall back, got %v", cfg.Storefront.Timeout)
	}
	if cfg.Storefront.GuestFile != "/tmp/cart.json" {
		t.Fatalf("unexpected guest file %q", cfg.Storefront.GuestFile)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if got := expandHome("~/x/y.json"); got != filepath.Join("/home/tester", "x/y.json") {
		t.Fatalf("unexpected expansion %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Fatalf("absolute path changed: %q", got)
	}
}
