package quotes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soko-pay/soko_pay/internal/grants"
	"github.com/soko-pay/soko_pay/internal/opclient"
)

// QuoteError wraps a downstream failure while obtaining a quote.
type QuoteError struct {
	Err error
}

func (e QuoteError) Error() string {
	return fmt.Sprintf("create quote: %v", e.Err)
}

func (e QuoteError) Unwrap() error {
	return e.Err
}

// Resolver resolves wallet URLs to descriptors.
type Resolver interface {
	Resolve(ctx context.Context, walletURL string) (opclient.WalletAddress, error)
}

// Granter negotiates access grants.
type Granter interface {
	Request(ctx context.Context, authServer string, scope grants.Scope) (grants.Grant, error)
}

// QuoteClient is the slice of the protocol client this service needs.
type QuoteClient interface {
	CreateQuote(ctx context.Context, resourceServer, accessToken string, req opclient.QuoteRequest) (opclient.Quote, error)
}

// Service obtains binding cost quotes on the payer's wallet. A quote carries
// an expiry enforced upstream, so results are never cached here.
type Service struct {
	resolver Resolver
	granter  Granter
	client   QuoteClient
	logger   *slog.Logger
}

// NewService builds the quote service.
func NewService(resolver Resolver, granter Granter, client QuoteClient, logger *slog.Logger) *Service {
	return &Service{resolver: resolver, granter: granter, client: client, logger: logger}
}

// Create quotes the cost of paying the given receivable from the payer's
// wallet.
func (s *Service) Create(ctx context.Context, receivableID, payerWallet string) (opclient.Quote, error) {
	if receivableID == "" {
		return opclient.Quote{}, QuoteError{Err: fmt.Errorf("receivable id is required")}
	}

	wallet, err := s.resolver.Resolve(ctx, payerWallet)
	if err != nil {
		return opclient.Quote{}, err
	}

	grant, err := s.granter.Request(ctx, wallet.AuthServer, grants.Scope{
		Type:    grants.TypeQuote,
		Actions: []string{grants.ActionCreate, grants.ActionRead},
	})
	if err != nil {
		return opclient.Quote{}, err
	}

	finalized, err := grants.RequireFinalized(grant)
	if err != nil {
		return opclient.Quote{}, err
	}

	quote, err := s.client.CreateQuote(ctx, wallet.ResourceServer, finalized.AccessToken, opclient.QuoteRequest{
		Method:        "ilp",
		WalletAddress: wallet.ID,
		Receiver:      receivableID,
	})
	if err != nil {
		return opclient.Quote{}, QuoteError{Err: err}
	}

	s.logger.Info("quote created",
		"id", quote.ID,
		"debit", quote.DebitAmount.Format(),
		"receive", quote.ReceiveAmount.Format(),
	)

	return quote, nil
}
