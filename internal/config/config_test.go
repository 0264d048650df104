package config

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "private.key")
	out := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WALLET_ADDRESS_URL", "https://wallet.example/merchant")
	t.Setenv("KEY_ID", "key-1")
	t.Setenv("PRIVATE_KEY_PATH", writeTestKey(t))
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "3007" {
		t.Fatalf("expected default port 3007, got %s", cfg.Port)
	}
	if cfg.Address() != ":3007" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
	if cfg.ShutdownPeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown period %v", cfg.ShutdownPeriod)
	}
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		t.Fatal("expected parsed private key")
	}
	if cfg.PaymentRateLimit != 30 {
		t.Fatalf("expected default payment rate limit 30, got %d", cfg.PaymentRateLimit)
	}
}

func TestLoadPaymentRateLimitOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENT_RATE_LIMIT_PER_MIN", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PaymentRateLimit != 5 {
		t.Fatalf("unexpected payment rate limit %d", cfg.PaymentRateLimit)
	}
}

func TestLoadRejectsNonPositiveRateLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENT_RATE_LIMIT_PER_MIN", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive rate limit")
	}
}

func TestLoadRequiresWalletAddress(t *testing.T) {
	t.Setenv("WALLET_ADDRESS_URL", "")
	t.Setenv("KEY_ID", "key-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without WALLET_ADDRESS_URL")
	}
}

func TestLoadRequiresKeyID(t *testing.T) {
	t.Setenv("WALLET_ADDRESS_URL", "https://wallet.example/merchant")
	t.Setenv("KEY_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without KEY_ID")
	}
}

func TestLoadRejectsMissingKeyFile(t *testing.T) {
	t.Setenv("WALLET_ADDRESS_URL", "https://wallet.example/merchant")
	t.Setenv("KEY_ID", "key-1")
	t.Setenv("PRIVATE_KEY_PATH", filepath.Join(t.TempDir(), "absent.key"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing key file")
	}
}

func TestLoadRejectsMalformedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.key")
	if err := os.WriteFile(path, []byte("not a pem"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	t.Setenv("WALLET_ADDRESS_URL", "https://wallet.example/merchant")
	t.Setenv("KEY_ID", "key-1")
	t.Setenv("PRIVATE_KEY_PATH", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestLoadShutdownOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 25*time.Second {
		t.Fatalf("unexpected shutdown period %v", cfg.ShutdownPeriod)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WALLET_CACHE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed WALLET_CACHE_TTL")
	}
}
