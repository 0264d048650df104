package grants

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soko-pay/soko_pay/internal/opclient"
)

// Resource types a grant can be scoped to.
const (
	TypeIncomingPayment = "incoming-payment"
	TypeQuote           = "quote"
	TypeOutgoingPayment = "outgoing-payment"
)

// Grant actions.
const (
	ActionRead     = "read"
	ActionCreate   = "create"
	ActionComplete = "complete"
)

// AuthClient is the slice of the protocol client the negotiator needs.
type AuthClient interface {
	RequestGrant(ctx context.Context, authServer string, req opclient.GrantRequest) (opclient.GrantResponse, error)
	ContinueGrant(ctx context.Context, continueURI, continueToken string) (opclient.GrantResponse, error)
}

// Scope describes the access a grant should carry.
type Scope struct {
	Type       string
	Actions    []string
	Identifier string
	Limits     *opclient.Limits

	// Interactive requests a redirect interaction, which makes the auth
	// server answer with a pending grant instead of a finalized one.
	Interactive bool
}

// Negotiator requests and continues grants against authorization servers.
type Negotiator struct {
	client AuthClient
	logger *slog.Logger
}

// NewNegotiator builds a grant negotiator.
func NewNegotiator(client AuthClient, logger *slog.Logger) *Negotiator {
	return &Negotiator{client: client, logger: logger}
}

// Request negotiates a grant with the given scope. The result is the Grant
// union: non-interactive scopes are expected to finalize immediately,
// interactive ones to come back pending, but classification is driven purely
// by the response shape.
func (n *Negotiator) Request(ctx context.Context, authServer string, scope Scope) (Grant, error) {
	if scope.Type == "" || len(scope.Actions) == 0 {
		return nil, RequestError{Op: "request", Err: fmt.Errorf("scope requires a type and at least one action")}
	}

	req := opclient.GrantRequest{}
	req.AccessToken.Access = []opclient.Access{{
		Type:       scope.Type,
		Actions:    scope.Actions,
		Identifier: scope.Identifier,
		Limits:     scope.Limits,
	}}

	// Start-only interaction: there is no callback endpoint to finish
	// against, so no finish object is sent. The payer approves in the
	// wallet and the caller polls the continuation.
	if scope.Interactive {
		req.Interact = &opclient.InteractStart{Start: []string{"redirect"}}
	}

	resp, err := n.client.RequestGrant(ctx, authServer, req)
	if err != nil {
		return nil, RequestError{Op: "request", Err: err}
	}

	grant, err := classify(resp)
	if err != nil {
		return nil, err
	}

	n.logger.Debug("grant negotiated",
		"auth_server", authServer,
		"type", scope.Type,
		"interactive", scope.Interactive,
	)

	return grant, nil
}

// Continue resumes a negotiation after the out-of-band approval. A response
// that is still pending maps to ErrNotReady; callers must not create payment
// resources in that case.
func (n *Negotiator) Continue(ctx context.Context, continueURI, continueToken string) (Grant, error) {
	if continueURI == "" || continueToken == "" {
		return nil, RequestError{Op: "continue", Err: fmt.Errorf("continuation credentials are required")}
	}

	resp, err := n.client.ContinueGrant(ctx, continueURI, continueToken)
	if err != nil {
		return nil, RequestError{Op: "continue", Err: err}
	}

	if resp.AccessToken != nil && resp.AccessToken.Value != "" {
		return classify(resp)
	}

	// A continue reply with fresh continuation credentials but no access
	// token means the approval has not landed yet.
	if resp.Continue != nil && resp.Continue.URI != "" {
		return nil, ErrNotReady
	}

	return nil, UnexpectedStateError{Detail: "continue response has neither an access token nor continuation credentials"}
}
