package outgoing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/soko-pay/soko_pay/internal/grants"
	"github.com/soko-pay/soko_pay/internal/logging"
	"github.com/soko-pay/soko_pay/internal/opclient"
)

const payerWallet = "https://wallet.example/alice"

type stubResolver struct {
	descriptor opclient.WalletAddress
	err        error
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (opclient.WalletAddress, error) {
	return s.descriptor, s.err
}

type stubGranter struct {
	requestGrant grants.Grant
	requestErr   error
	requestScope grants.Scope

	continueGrants []grants.Grant
	continueErrs   []error
	continueCalls  int
}

func (s *stubGranter) Request(_ context.Context, _ string, scope grants.Scope) (grants.Grant, error) {
	s.requestScope = scope
	return s.requestGrant, s.requestErr
}

func (s *stubGranter) Continue(_ context.Context, _, _ string) (grants.Grant, error) {
	i := s.continueCalls
	s.continueCalls++
	if i < len(s.continueErrs) && s.continueErrs[i] != nil {
		return nil, s.continueErrs[i]
	}
	if i < len(s.continueGrants) {
		return s.continueGrants[i], nil
	}
	return nil, fmt.Errorf("unexpected continue call %d", i)
}

type stubPaymentClient struct {
	payment opclient.OutgoingPayment
	err     error
	calls   int
	last    opclient.OutgoingPaymentRequest
}

func (s *stubPaymentClient) CreateOutgoingPayment(_ context.Context, _, _ string, req opclient.OutgoingPaymentRequest) (opclient.OutgoingPayment, error) {
	s.calls++
	s.last = req
	return s.payment, s.err
}

type stubQuoter struct {
	quote opclient.Quote
	err   error
}

func (s *stubQuoter) Create(_ context.Context, _, _ string) (opclient.Quote, error) {
	return s.quote, s.err
}

func payerDescriptor() opclient.WalletAddress {
	return opclient.WalletAddress{
		ID:             payerWallet,
		AssetCode:      "EUR",
		AssetScale:     2,
		AuthServer:     "https://auth.example",
		ResourceServer: "https://rs.example",
	}
}

func testQuote() opclient.Quote {
	return opclient.Quote{
		ID:            "https://rs.example/quotes/q1",
		DebitAmount:   opclient.Amount{Value: "1050", AssetCode: "EUR", AssetScale: 2},
		ReceiveAmount: opclient.Amount{Value: "1000", AssetCode: "USD", AssetScale: 2},
	}
}

func pendingGrant() grants.Pending {
	return grants.Pending{
		InteractionURL: "https://auth.example/interact/1",
		ContinueURI:    "https://auth.example/continue/1",
		ContinueToken:  "cont-1",
	}
}

func newTestService(resolver *stubResolver, granter *stubGranter, client *stubPaymentClient, quoter *stubQuoter) *Service {
	return NewService(resolver, granter, client, quoter, nil, logging.Discard())
}

func TestInitiateReturnsAuthorization(t *testing.T) {
	resolver := &stubResolver{descriptor: payerDescriptor()}
	granter := &stubGranter{requestGrant: pendingGrant()}
	svc := newTestService(resolver, granter, &stubPaymentClient{}, &stubQuoter{})

	auth, err := svc.Initiate(context.Background(), testQuote(), payerWallet)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if !auth.RequiresInteraction {
		t.Fatal("initiate must always require interaction")
	}
	if auth.InteractionURL == "" || auth.ContinueURI == "" || auth.ContinueToken == "" {
		t.Fatalf("continuation fields missing: %+v", auth)
	}

	scope := granter.requestScope
	if scope.Type != grants.TypeOutgoingPayment || !scope.Interactive {
		t.Fatalf("unexpected scope %+v", scope)
	}
	if scope.Identifier != payerWallet {
		t.Fatalf("grant must be restricted to the payer wallet, got %q", scope.Identifier)
	}
	if scope.Limits == nil || scope.Limits.DebitAmount == nil || scope.Limits.DebitAmount.Value != "1050" {
		t.Fatalf("grant must be capped at the quote debit amount, got %+v", scope.Limits)
	}
}

func TestInitiateFinalizedGrantIsFatal(t *testing.T) {
	resolver := &stubResolver{descriptor: payerDescriptor()}
	granter := &stubGranter{requestGrant: grants.Finalized{AccessToken: "tok"}}
	svc := newTestService(resolver, granter, &stubPaymentClient{}, &stubQuoter{})

	_, err := svc.Initiate(context.Background(), testQuote(), payerWallet)

	var unexpected grants.UnexpectedStateError
	if !errors.As(err, &unexpected) {
		t.Fatalf("expected UnexpectedStateError, got %v", err)
	}
}

func TestCompleteCreatesPayment(t *testing.T) {
	resolver := &stubResolver{descriptor: payerDescriptor()}
	granter := &stubGranter{continueGrants: []grants.Grant{grants.Finalized{AccessToken: "final-tok"}}}
	client := &stubPaymentClient{payment: opclient.OutgoingPayment{
		ID:    "https://rs.example/outgoing-payments/p1",
		State: "FUNDING",
	}}
	svc := newTestService(resolver, granter, client, &stubQuoter{})

	payment, err := svc.Complete(context.Background(), CompleteInput{
		QuoteID:       "https://rs.example/quotes/q1",
		ContinueURI:   "https://auth.example/continue/1",
		ContinueToken: "cont-1",
		PayerWallet:   payerWallet,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if payment.ID == "" {
		t.Fatal("expected payment id")
	}
	if client.last.QuoteID != "https://rs.example/quotes/q1" {
		t.Fatalf("payment must be bound to the quote, got %q", client.last.QuoteID)
	}
	if client.last.WalletAddress != payerWallet {
		t.Fatalf("unexpected wallet %q", client.last.WalletAddress)
	}
}

func TestCompleteStillPending(t *testing.T) {
	resolver := &stubResolver{descriptor: payerDescriptor()}
	granter := &stubGranter{continueErrs: []error{grants.ErrNotReady}}
	client := &stubPaymentClient{}
	svc := newTestService(resolver, granter, client, &stubQuoter{})

	_, err := svc.Complete(context.Background(), CompleteInput{
		QuoteID:       "https://rs.example/quotes/q1",
		ContinueURI:   "https://auth.example/continue/1",
		ContinueToken: "cont-1",
		PayerWallet:   payerWallet,
	})

	if !errors.Is(err, grants.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if client.calls != 0 {
		t.Fatal("no payment may be created while the grant is pending")
	}
}

func TestCompleteConsumedTokenDoesNotDuplicate(t *testing.T) {
	resolver := &stubResolver{descriptor: payerDescriptor()}
	granter := &stubGranter{
		continueGrants: []grants.Grant{grants.Finalized{AccessToken: "final-tok"}, nil},
		continueErrs: []error{
			nil,
			grants.RequestError{Op: "continue", Err: opclient.ProtocolError{StatusCode: 401, Message: "token already used"}},
		},
	}
	client := &stubPaymentClient{payment: opclient.OutgoingPayment{ID: "p1", State: "FUNDING"}}
	svc := newTestService(resolver, granter, client, &stubQuoter{})

	input := CompleteInput{
		QuoteID:       "https://rs.example/quotes/q1",
		ContinueURI:   "https://auth.example/continue/1",
		ContinueToken: "cont-1",
		PayerWallet:   payerWallet,
	}

	if _, err := svc.Complete(context.Background(), input); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	_, err := svc.Complete(context.Background(), input)
	var reqErr grants.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError on token reuse, got %v", err)
	}

	if client.calls != 1 {
		t.Fatalf("payment must not be duplicated, got %d creations", client.calls)
	}
}

func TestCompleteRequiresQuoteID(t *testing.T) {
	svc := newTestService(&stubResolver{}, &stubGranter{}, &stubPaymentClient{}, &stubQuoter{})

	var cErr CreationError
	_, err := svc.Complete(context.Background(), CompleteInput{
		ContinueURI:   "https://auth.example/continue/1",
		ContinueToken: "cont-1",
		PayerWallet:   payerWallet,
	})
	if !errors.As(err, &cErr) {
		t.Fatalf("expected CreationError, got %v", err)
	}
}

func TestRunDemoFlowPendingAuthorization(t *testing.T) {
	resolver := &stubResolver{descriptor: payerDescriptor()}
	granter := &stubGranter{requestGrant: pendingGrant()}
	quoter := &stubQuoter{quote: testQuote()}
	svc := newTestService(resolver, granter, &stubPaymentClient{}, quoter)

	result := svc.RunDemoFlow(context.Background(), "https://rs.example/incoming-payments/abc", payerWallet)

	if !result.Success || result.Status != StatusPendingAuthorization {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.AuthorizationURL == "" || result.ContinueURI == "" || result.ContinueToken == "" || result.QuoteID == "" {
		t.Fatalf("continuation fields missing: %+v", result)
	}
	if result.DebitAmount == nil || result.DebitAmount.Value != "10.50" {
		t.Fatalf("expected formatted debit amount, got %+v", result.DebitAmount)
	}
	if result.ReceiveAmount == nil || result.ReceiveAmount.Formatted != "10.00 USD" {
		t.Fatalf("expected formatted receive amount, got %+v", result.ReceiveAmount)
	}
}

func TestRunDemoFlowQuoteFailure(t *testing.T) {
	quoter := &stubQuoter{err: fmt.Errorf("receiver expired")}
	svc := newTestService(&stubResolver{}, &stubGranter{}, &stubPaymentClient{}, quoter)

	result := svc.RunDemoFlow(context.Background(), "https://rs.example/incoming-payments/abc", payerWallet)

	if result.Success || result.Status != StatusFailed {
		t.Fatalf("expected FAILED result, got %+v", result)
	}
	if result.Error == "" || result.Timestamp == "" {
		t.Fatalf("failure must carry error and timestamp: %+v", result)
	}
}

func TestRunDemoFlowInitiateFailure(t *testing.T) {
	resolver := &stubResolver{descriptor: payerDescriptor()}
	granter := &stubGranter{requestErr: fmt.Errorf("auth server down")}
	quoter := &stubQuoter{quote: testQuote()}
	svc := newTestService(resolver, granter, &stubPaymentClient{}, quoter)

	result := svc.RunDemoFlow(context.Background(), "https://rs.example/incoming-payments/abc", payerWallet)

	if result.Success || result.Status != StatusFailed {
		t.Fatalf("expected FAILED result, got %+v", result)
	}
}
