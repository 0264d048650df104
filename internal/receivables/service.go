package receivables

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soko-pay/soko_pay/internal/grants"
	"github.com/soko-pay/soko_pay/internal/notification"
	"github.com/soko-pay/soko_pay/internal/opclient"
)

const (
	defaultExpiry      = 60 * time.Minute
	defaultDescription = "Payment request"
)

// ErrInvalidAmount rejects non-positive payment amounts before any network
// call is made.
var ErrInvalidAmount = errors.New("amount must be positive")

// CreationError wraps a downstream failure while issuing a receivable.
type CreationError struct {
	Err error
}

func (e CreationError) Error() string {
	return fmt.Sprintf("create receivable: %v", e.Err)
}

func (e CreationError) Unwrap() error {
	return e.Err
}

// StatusError wraps a downstream failure while reading a receivable's state.
type StatusError struct {
	Err error
}

func (e StatusError) Error() string {
	return fmt.Sprintf("payment status: %v", e.Err)
}

func (e StatusError) Unwrap() error {
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

// ResourceClient is the slice of the protocol client this service needs.
type ResourceClient interface {
	CreateIncomingPayment(ctx context.Context, resourceServer, accessToken string, req opclient.IncomingPaymentRequest) (opclient.IncomingPayment, error)
	GetIncomingPayment(ctx context.Context, url, accessToken string) (opclient.IncomingPayment, error)
}

// Service issues receivables on the merchant's wallet and reads their
// fulfillment state.
type Service struct {
	merchantWallet string
	resolver       Resolver
	granter        Granter
	client         ResourceClient
	notifier       notification.Notifier
	logger         *slog.Logger
}

// NewService builds the receivable service for the given merchant wallet.
func NewService(merchantWallet string, resolver Resolver, granter Granter, client ResourceClient, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		merchantWallet: merchantWallet,
		resolver:       resolver,
		granter:        granter,
		client:         client,
		notifier:       notifier,
		logger:         logger,
	}
}

// CreateInput captures the merchant's request for money.
type CreateInput struct {
	// AmountMajor is the requested amount in major units of the merchant's
	// asset, e.g. 10.50.
	AmountMajor decimal.Decimal
	Description string
	ExpiresIn   time.Duration
}

// Create issues a new receivable. Each call creates a distinct upstream
// resource; there is no deduplication key, so repeated identical calls yield
// repeated receivables.
func (s *Service) Create(ctx context.Context, input CreateInput) (opclient.IncomingPayment, error) {
	if input.AmountMajor.Sign() <= 0 {
		return opclient.IncomingPayment{}, ErrInvalidAmount
	}
	if input.ExpiresIn <= 0 {
		input.ExpiresIn = defaultExpiry
	}
	if input.Description == "" {
		input.Description = defaultDescription
	}

	wallet, err := s.resolver.Resolve(ctx, s.merchantWallet)
	if err != nil {
		return opclient.IncomingPayment{}, err
	}

	grant, err := s.granter.Request(ctx, wallet.AuthServer, grants.Scope{
		Type:    grants.TypeIncomingPayment,
		Actions: []string{grants.ActionRead, grants.ActionComplete, grants.ActionCreate},
	})
	if err != nil {
		return opclient.IncomingPayment{}, err
	}

	finalized, err := grants.RequireFinalized(grant)
	if err != nil {
		return opclient.IncomingPayment{}, err
	}

	payment, err := s.client.CreateIncomingPayment(ctx, wallet.ResourceServer, finalized.AccessToken, opclient.IncomingPaymentRequest{
		WalletAddress: wallet.ID,
		IncomingAmount: opclient.Amount{
			Value:      opclient.MinorFromMajor(input.AmountMajor, wallet.AssetScale),
			AssetCode:  wallet.AssetCode,
			AssetScale: wallet.AssetScale,
		},
		ExpiresAt: time.Now().UTC().Add(input.ExpiresIn),
		Metadata:  map[string]any{"description": input.Description},
	})
	if err != nil {
		return opclient.IncomingPayment{}, CreationError{Err: err}
	}

	s.logger.Info("receivable created", "id", payment.ID, "amount", payment.IncomingAmount.Format())

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindReceivableCreated,
			Destination: wallet.ID,
			Body:        fmt.Sprintf("Expecting %s: %s", payment.IncomingAmount.Format(), input.Description),
		})
	}

	return payment, nil
}

// StatusResult is the read-only fulfillment state of a receivable.
type StatusResult struct {
	Completed      bool            `json:"completed"`
	ReceivedAmount opclient.Amount `json:"receivedAmount"`
	IncomingAmount opclient.Amount `json:"incomingAmount"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// Status checks a receivable's fulfillment state. Each check negotiates a
// fresh minimal read grant; checks are independent of each other.
func (s *Service) Status(ctx context.Context, receivableID string) (StatusResult, error) {
	if receivableID == "" {
		return StatusResult{}, StatusError{Err: fmt.Errorf("receivable id is required")}
	}

	wallet, err := s.resolver.Resolve(ctx, s.merchantWallet)
	if err != nil {
		return StatusResult{}, err
	}

	grant, err := s.granter.Request(ctx, wallet.AuthServer, grants.Scope{
		Type:    grants.TypeIncomingPayment,
		Actions: []string{grants.ActionRead},
	})
	if err != nil {
		return StatusResult{}, err
	}

	finalized, err := grants.RequireFinalized(grant)
	if err != nil {
		return StatusResult{}, err
	}

	payment, err := s.client.GetIncomingPayment(ctx, receivableID, finalized.AccessToken)
	if err != nil {
		return StatusResult{}, StatusError{Err: err}
	}

	return StatusResult{
		Completed:      payment.Completed,
		ReceivedAmount: payment.ReceivedAmount,
		IncomingAmount: payment.IncomingAmount,
		ExpiresAt:      payment.ExpiresAt,
		Metadata:       payment.Metadata,
	}, nil
}
