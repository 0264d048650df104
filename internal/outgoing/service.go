package outgoing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soko-pay/soko_pay/internal/grants"
	"github.com/soko-pay/soko_pay/internal/notification"
	"github.com/soko-pay/soko_pay/internal/opclient"
)

// Flow status labels reported to callers.
const (
	StatusPendingAuthorization = "PENDING_AUTHORIZATION"
	StatusCompleted            = "COMPLETED"
	StatusFailed               = "FAILED"
)

// CreationError wraps a downstream failure while creating the final payment
// resource.
type CreationError struct {
	Err error
}

func (e CreationError) Error() string {
	return fmt.Sprintf("create outgoing payment: %v", e.Err)
}

func (e CreationError) Unwrap() error {
	return e.Err
}

// Resolver resolves wallet URLs to descriptors.
type Resolver interface {
	Resolve(ctx context.Context, walletURL string) (opclient.WalletAddress, error)
}

// Granter negotiates and continues access grants.
type Granter interface {
	Request(ctx context.Context, authServer string, scope grants.Scope) (grants.Grant, error)
	Continue(ctx context.Context, continueURI, continueToken string) (grants.Grant, error)
}

// PaymentClient is the slice of the protocol client this service needs.
type PaymentClient interface {
	CreateOutgoingPayment(ctx context.Context, resourceServer, accessToken string, req opclient.OutgoingPaymentRequest) (opclient.OutgoingPayment, error)
}

// Quoter obtains quotes for the composite demo flow.
type Quoter interface {
	Create(ctx context.Context, receivableID, payerWallet string) (opclient.Quote, error)
}

// Service drives the payer-side authorization in two phases. Phase A requests
// an interactive grant constrained to the quote's debit amount and hands back
// the interaction redirect plus continuation credentials. Phase B, invoked
// after the human approval lands, continues the grant and creates the payment
// resource. The service holds no session state between the phases; the
// continuation triple is the caller's handle.
type Service struct {
	resolver Resolver
	granter  Granter
	client   PaymentClient
	quotes   Quoter
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds the orchestrator.
func NewService(resolver Resolver, granter Granter, client PaymentClient, quotes Quoter, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		resolver: resolver,
		granter:  granter,
		client:   client,
		quotes:   quotes,
		notifier: notifier,
		logger:   logger,
	}
}

// Authorization is the Phase A outcome: the payer must visit InteractionURL,
// and the caller must hold the continuation credentials until the approval
// event fires. They are bearer secrets.
type Authorization struct {
	RequiresInteraction bool
	InteractionURL      string
	ContinueURI         string
	ContinueToken       string
}

// Initiate is Phase A. It requests the constrained interactive grant for the
// quote. The protocol always answers interactive outgoing-payment requests
// with a pending grant; a finalized grant here indicates a protocol-version
// mismatch and surfaces as grants.UnexpectedStateError, fatal and not
// retried.
func (s *Service) Initiate(ctx context.Context, quote opclient.Quote, payerWallet string) (Authorization, error) {
	wallet, err := s.resolver.Resolve(ctx, payerWallet)
	if err != nil {
		return Authorization{}, err
	}

	debit := quote.DebitAmount
	grant, err := s.granter.Request(ctx, wallet.AuthServer, grants.Scope{
		Type:        grants.TypeOutgoingPayment,
		Actions:     []string{grants.ActionRead, grants.ActionCreate},
		Identifier:  wallet.ID,
		Limits:      &opclient.Limits{DebitAmount: &debit},
		Interactive: true,
	})
	if err != nil {
		return Authorization{}, err
	}

	pending, err := grants.RequirePending(grant)
	if err != nil {
		return Authorization{}, err
	}

	s.logger.Info("payment awaiting authorization", "quote", quote.ID, "wallet", wallet.ID)

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPaymentPending,
			Destination: wallet.ID,
			Body:        fmt.Sprintf("Authorize payment of %s", quote.DebitAmount.Format()),
		})
	}

	return Authorization{
		RequiresInteraction: true,
		InteractionURL:      pending.InteractionURL,
		ContinueURI:         pending.ContinueURI,
		ContinueToken:       pending.ContinueToken,
	}, nil
}

// CompleteInput is the continuation triple plus the payer wallet, everything
// Phase B needs to resume.
type CompleteInput struct {
	QuoteID       string
	ContinueURI   string
	ContinueToken string
	PayerWallet   string
}

// Complete is Phase B, invoked only after the out-of-band approval. A grant
// that is still pending returns grants.ErrNotReady and the caller may retry
// later. A consumed continuation token fails upstream without duplicating the
// payment; completion tracking is the caller's concern.
func (s *Service) Complete(ctx context.Context, input CompleteInput) (opclient.OutgoingPayment, error) {
	if input.QuoteID == "" {
		return opclient.OutgoingPayment{}, CreationError{Err: fmt.Errorf("quote id is required")}
	}

	wallet, err := s.resolver.Resolve(ctx, input.PayerWallet)
	if err != nil {
		return opclient.OutgoingPayment{}, err
	}

	grant, err := s.granter.Continue(ctx, input.ContinueURI, input.ContinueToken)
	if err != nil {
		return opclient.OutgoingPayment{}, err
	}

	finalized, err := grants.RequireFinalized(grant)
	if err != nil {
		return opclient.OutgoingPayment{}, err
	}

	payment, err := s.client.CreateOutgoingPayment(ctx, wallet.ResourceServer, finalized.AccessToken, opclient.OutgoingPaymentRequest{
		WalletAddress: wallet.ID,
		QuoteID:       input.QuoteID,
	})
	if err != nil {
		return opclient.OutgoingPayment{}, CreationError{Err: err}
	}

	s.logger.Info("payment created", "id", payment.ID, "state", payment.State)

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPaymentCompleted,
			Destination: wallet.ID,
			Body:        fmt.Sprintf("Payment %s created", payment.ID),
		})
	}

	return payment, nil
}

// FormattedAmount pairs a human-readable value with its asset code.
type FormattedAmount struct {
	Value     string `json:"value"`
	AssetCode string `json:"assetCode"`
	Formatted string `json:"formatted"`
}

// DemoResult is the uniform response shape of the simulated payer flow. All
// failures are folded into it rather than propagated.
type DemoResult struct {
	Success             bool             `json:"success"`
	Status              string           `json:"status"`
	RequiresInteraction bool             `json:"requiresInteraction,omitempty"`
	AuthorizationURL    string           `json:"authorizationUrl,omitempty"`
	ContinueURI         string           `json:"continueUri,omitempty"`
	ContinueToken       string           `json:"continueToken,omitempty"`
	QuoteID             string           `json:"quoteId,omitempty"`
	DebitAmount         *FormattedAmount `json:"debitAmount,omitempty"`
	ReceiveAmount       *FormattedAmount `json:"receiveAmount,omitempty"`
	Message             string           `json:"message,omitempty"`
	Error               string           `json:"error,omitempty"`
	Timestamp           string           `json:"timestamp,omitempty"`
}

// RunDemoFlow chains quote creation and Phase A for a payer wallet, stopping
// at PENDING_AUTHORIZATION. Approval is inherently external; the flow never
// fakes it.
func (s *Service) RunDemoFlow(ctx context.Context, receivableID, payerWallet string) DemoResult {
	quote, err := s.quotes.Create(ctx, receivableID, payerWallet)
	if err != nil {
		return failedResult(err)
	}

	auth, err := s.Initiate(ctx, quote, payerWallet)
	if err != nil {
		return failedResult(err)
	}

	return DemoResult{
		Success:             true,
		Status:              StatusPendingAuthorization,
		RequiresInteraction: true,
		AuthorizationURL:    auth.InteractionURL,
		ContinueURI:         auth.ContinueURI,
		ContinueToken:       auth.ContinueToken,
		QuoteID:             quote.ID,
		DebitAmount:         formatAmount(quote.DebitAmount),
		ReceiveAmount:       formatAmount(quote.ReceiveAmount),
		Message:             "Payer must authorize the payment in their wallet",
	}
}

func failedResult(err error) DemoResult {
	return DemoResult{
		Success:   false,
		Status:    StatusFailed,
		Error:     err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func formatAmount(a opclient.Amount) *FormattedAmount {
	human, err := a.Human()
	if err != nil {
		human = a.Value
	}
	return &FormattedAmount{
		Value:     human,
		AssetCode: a.AssetCode,
		Formatted: fmt.Sprintf("%s %s", human, a.AssetCode),
	}
}
