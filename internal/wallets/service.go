package wallets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soko-pay/soko_pay/internal/opclient"
)

const cachePrefix = "wallet:v1:"

// ResolutionError indicates a wallet URL could not be resolved to a valid
// wallet descriptor.
type ResolutionError struct {
	URL string
	Err error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("resolve wallet %s: %v", e.URL, e.Err)
}

func (e ResolutionError) Unwrap() error {
	return e.Err
}

// AddressClient is the slice of the protocol client the resolver needs.
type AddressClient interface {
	WalletAddress(ctx context.Context, url string) (opclient.WalletAddress, error)
}

// Service resolves wallet URLs to their descriptors. Descriptors are
// immutable once fetched, so resolved entries are cached in Redis under a
// staleness TTL. Cache failures fall through to a live resolve.
type Service struct {
	client AddressClient
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewService builds a wallet resolver. cache may be nil, in which case every
// call resolves live.
func NewService(client AddressClient, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{client: client, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the descriptor for a wallet URL. Read-only and idempotent.
func (s *Service) Resolve(ctx context.Context, walletURL string) (opclient.WalletAddress, error) {
	if walletURL == "" {
		return opclient.WalletAddress{}, ResolutionError{URL: walletURL, Err: fmt.Errorf("wallet url is empty")}
	}

	if cached, ok := s.fromCache(ctx, walletURL); ok {
		return cached, nil
	}

	info, err := s.client.WalletAddress(ctx, walletURL)
	if err != nil {
		return opclient.WalletAddress{}, ResolutionError{URL: walletURL, Err: err}
	}
	if info.ID == "" || info.AuthServer == "" || info.ResourceServer == "" {
		return opclient.WalletAddress{}, ResolutionError{URL: walletURL, Err: fmt.Errorf("response is not a wallet descriptor")}
	}

	s.toCache(ctx, walletURL, info)

	return info, nil
}

func (s *Service) fromCache(ctx context.Context, walletURL string) (opclient.WalletAddress, bool) {
	if s.cache == nil {
		return opclient.WalletAddress{}, false
	}

	raw, err := s.cache.Get(ctx, cachePrefix+walletURL).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("wallet cache lookup failed", "wallet", walletURL, "error", err)
		}
		return opclient.WalletAddress{}, false
	}

	var info opclient.WalletAddress
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		s.logger.Warn("wallet cache entry corrupt", "wallet", walletURL, "error", err)
		return opclient.WalletAddress{}, false
	}

	return info, true
}

func (s *Service) toCache(ctx context.Context, walletURL string, info opclient.WalletAddress) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(info)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cachePrefix+walletURL, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("wallet cache store failed", "wallet", walletURL, "error", err)
	}
}
