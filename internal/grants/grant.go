package grants

import "github.com/soko-pay/soko_pay/internal/opclient"

// Grant is the outcome of a grant negotiation. It has exactly two arms:
// Finalized and Pending. Call sites type-switch over both; anything the auth
// server returns that fits neither arm never becomes a Grant at all, it
// surfaces as UnexpectedStateError.
type Grant interface {
	grant()
}

// Finalized is a grant with a usable access token.
type Finalized struct {
	AccessToken   string
	ManageURL     string
	ContinueURI   string
	ContinueToken string
}

func (Finalized) grant() {}

// Pending is a grant that cannot be used until a human approves it
// out-of-band. The continuation credentials are the only handle needed to
// resume; they are bearer secrets.
type Pending struct {
	InteractionURL string
	ContinueURI    string
	ContinueToken  string
}

func (Pending) grant() {}

// classify maps a raw auth server response onto the Grant union.
func classify(resp opclient.GrantResponse) (Grant, error) {
	if resp.AccessToken != nil && resp.AccessToken.Value != "" {
		g := Finalized{
			AccessToken: resp.AccessToken.Value,
			ManageURL:   resp.AccessToken.Manage,
		}
		if resp.Continue != nil {
			g.ContinueURI = resp.Continue.URI
			g.ContinueToken = resp.Continue.AccessToken.Value
		}
		return g, nil
	}

	if resp.Interact != nil && resp.Interact.Redirect != "" && resp.Continue != nil && resp.Continue.URI != "" {
		return Pending{
			InteractionURL: resp.Interact.Redirect,
			ContinueURI:    resp.Continue.URI,
			ContinueToken:  resp.Continue.AccessToken.Value,
		}, nil
	}

	return nil, UnexpectedStateError{Detail: "grant response has neither an access token nor an interaction redirect"}
}

// RequireFinalized asserts the grant carries a usable access token. A Pending
// grant where finalization was expected is a protocol mismatch, not a
// transient fault.
func RequireFinalized(g Grant) (Finalized, error) {
	switch v := g.(type) {
	case Finalized:
		return v, nil
	case Pending:
		return Finalized{}, UnexpectedStateError{Detail: "grant unexpectedly requires interaction"}
	default:
		return Finalized{}, UnexpectedStateError{Detail: "unknown grant variant"}
	}
}

// RequirePending asserts the grant is awaiting out-of-band authorization.
func RequirePending(g Grant) (Pending, error) {
	switch v := g.(type) {
	case Pending:
		return v, nil
	case Finalized:
		return Pending{}, UnexpectedStateError{Detail: "grant finalized where interaction was required"}
	default:
		return Pending{}, UnexpectedStateError{Detail: "unknown grant variant"}
	}
}
