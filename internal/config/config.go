package config

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "SokoPay"
	defaultAppEnv         = "development"
	defaultPort           = "3007"
	defaultLogLevel       = "info"
	defaultKeyPath        = "private.key"
	defaultShutdownDelay  = 10 * time.Second
	defaultWalletCacheTTL = 5 * time.Minute
	defaultHTTPTimeout    = 30 * time.Second

	// defaultPaymentRateLimit caps payment initiations per client IP per minute.
	defaultPaymentRateLimit = 30

	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	walletCacheTTLEnvVar   = "WALLET_CACHE_TTL"
	httpTimeoutEnvVar      = "OPEN_PAYMENTS_TIMEOUT"
	paymentRateLimitEnvVar = "PAYMENT_RATE_LIMIT_PER_MIN"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// Merchant identity for the open-payments client.
	WalletAddressURL string
	KeyID            string
	PrivateKeyPath   string
	PrivateKey       ed25519.PrivateKey

	// Optional payer wallet used by the demo endpoints when the request omits one.
	DemoSenderWallet string

	RedisURL       string
	ShutdownPeriod time.Duration
	WalletCacheTTL time.Duration
	HTTPTimeout    time.Duration

	// PaymentRateLimit is the per-IP budget of payment initiations per minute.
	PaymentRateLimit int
}

// Load reads configuration values from the environment and populates a Config
// instance. Missing or malformed required values are reported before the
// server ever accepts a request.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		WalletAddressURL: os.Getenv("WALLET_ADDRESS_URL"),
		KeyID:            os.Getenv("KEY_ID"),
		PrivateKeyPath:   getEnv("PRIVATE_KEY_PATH", defaultKeyPath),
		DemoSenderWallet: os.Getenv("DEMO_SENDER_WALLET"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ShutdownPeriod:   defaultShutdownDelay,
		WalletCacheTTL:   defaultWalletCacheTTL,
		HTTPTimeout:      defaultHTTPTimeout,
		PaymentRateLimit: defaultPaymentRateLimit,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(walletCacheTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", walletCacheTTLEnvVar, err)
		}
		cfg.WalletCacheTTL = d
	}

	if v := os.Getenv(httpTimeoutEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", httpTimeoutEnvVar, err)
		}
		cfg.HTTPTimeout = d
	}

	if v := os.Getenv(paymentRateLimitEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", paymentRateLimitEnvVar, err)
		}
		if n <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive", paymentRateLimitEnvVar)
		}
		cfg.PaymentRateLimit = n
	}

	if cfg.WalletAddressURL == "" {
		return Config{}, fmt.Errorf("WALLET_ADDRESS_URL must be set")
	}

	if cfg.KeyID == "" {
		return Config{}, fmt.Errorf("KEY_ID must be set")
	}

	key, err := LoadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return Config{}, err
	}
	cfg.PrivateKey = key

	return cfg, nil
}

// LoadPrivateKey reads and parses the merchant's Ed25519 signing key from a
// PKCS#8 PEM file.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", path, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("private key %s: no PEM block found", path)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}

	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key %s: expected Ed25519, got %T", path, parsed)
	}

	return key, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
