package opclient

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Provider hands out the process-wide authenticated client, constructing it
// lazily on first use. Concurrent first callers share a single construction
// through singleflight; afterwards reads are lock-free.
//
// Provider exposes the full protocol method set by delegating, so components
// can depend on it through narrow consumer interfaces without knowing whether
// the client exists yet.
type Provider struct {
	cfg    Config
	group  singleflight.Group
	client atomic.Pointer[Client]

	// build is swapped in tests to count constructions.
	build func(Config) (*Client, error)
}

// NewProvider prepares a lazy client provider for the given merchant identity.
func NewProvider(cfg Config) *Provider {
	return &Provider{cfg: cfg, build: New}
}

// Get returns the shared client, constructing it if this is the first use.
func (p *Provider) Get(ctx context.Context) (*Client, error) {
	if c := p.client.Load(); c != nil {
		return c, nil
	}

	v, err, _ := p.group.Do("client", func() (any, error) {
		if c := p.client.Load(); c != nil {
			return c, nil
		}
		c, err := p.build(p.cfg)
		if err != nil {
			return nil, err
		}
		p.client.Store(c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Client), nil
}

// WalletAddressURL reports the merchant wallet the provider authenticates as.
func (p *Provider) WalletAddressURL() string {
	return p.cfg.WalletAddressURL
}

// WalletAddress implements the protocol surface by delegating to the shared client.
func (p *Provider) WalletAddress(ctx context.Context, url string) (WalletAddress, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return WalletAddress{}, err
	}
	return c.WalletAddress(ctx, url)
}

// RequestGrant delegates to the shared client.
func (p *Provider) RequestGrant(ctx context.Context, authServer string, req GrantRequest) (GrantResponse, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return GrantResponse{}, err
	}
	return c.RequestGrant(ctx, authServer, req)
}

// ContinueGrant delegates to the shared client.
func (p *Provider) ContinueGrant(ctx context.Context, continueURI, continueToken string) (GrantResponse, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return GrantResponse{}, err
	}
	return c.ContinueGrant(ctx, continueURI, continueToken)
}

// CreateIncomingPayment delegates to the shared client.
func (p *Provider) CreateIncomingPayment(ctx context.Context, resourceServer, accessToken string, req IncomingPaymentRequest) (IncomingPayment, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return IncomingPayment{}, err
	}
	return c.CreateIncomingPayment(ctx, resourceServer, accessToken, req)
}

// GetIncomingPayment delegates to the shared client.
func (p *Provider) GetIncomingPayment(ctx context.Context, url, accessToken string) (IncomingPayment, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return IncomingPayment{}, err
	}
	return c.GetIncomingPayment(ctx, url, accessToken)
}

// CreateQuote delegates to the shared client.
func (p *Provider) CreateQuote(ctx context.Context, resourceServer, accessToken string, req QuoteRequest) (Quote, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return Quote{}, err
	}
	return c.CreateQuote(ctx, resourceServer, accessToken, req)
}

// CreateOutgoingPayment delegates to the shared client.
func (p *Provider) CreateOutgoingPayment(ctx context.Context, resourceServer, accessToken string, req OutgoingPaymentRequest) (OutgoingPayment, error) {
	c, err := p.Get(ctx)
	if err != nil {
		return OutgoingPayment{}, err
	}
	return c.CreateOutgoingPayment(ctx, resourceServer, accessToken, req)
}
