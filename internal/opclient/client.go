package opclient

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config describes the merchant identity the client authenticates as.
type Config struct {
	WalletAddressURL string
	KeyID            string
	PrivateKey       ed25519.PrivateKey
	Timeout          time.Duration
}

// Client is a typed HTTP client for the open-payments protocol: wallet
// address lookups, GNAP grant negotiation, and payment resource CRUD.
// Access tokens ride the GNAP authorization scheme; each request also carries
// a content digest and a detached Ed25519 signature over it. Full RFC 9421
// HTTP message signatures are out of scope here.
type Client struct {
	http    *http.Client
	wallet  string
	keyID   string
	privKey ed25519.PrivateKey
}

// New validates the merchant identity and builds a protocol client.
func New(cfg Config) (*Client, error) {
	if cfg.WalletAddressURL == "" {
		return nil, fmt.Errorf("wallet address url is required")
	}
	if cfg.KeyID == "" {
		return nil, fmt.Errorf("key id is required")
	}
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		wallet:  cfg.WalletAddressURL,
		keyID:   cfg.KeyID,
		privKey: cfg.PrivateKey,
	}, nil
}

// WalletAddressURL reports the merchant wallet this client authenticates as.
func (c *Client) WalletAddressURL() string {
	return c.wallet
}

// WalletAddress fetches the public descriptor of a wallet.
func (c *Client) WalletAddress(ctx context.Context, url string) (WalletAddress, error) {
	var out WalletAddress
	if err := c.do(ctx, http.MethodGet, url, "", nil, &out); err != nil {
		return WalletAddress{}, err
	}
	return out, nil
}

// RequestGrant negotiates a new grant with an authorization server.
func (c *Client) RequestGrant(ctx context.Context, authServer string, req GrantRequest) (GrantResponse, error) {
	req.Client = c.wallet
	var out GrantResponse
	if err := c.do(ctx, http.MethodPost, authServer, "", req, &out); err != nil {
		return GrantResponse{}, err
	}
	return out, nil
}

// ContinueGrant resumes a grant negotiation after the out-of-band interaction.
func (c *Client) ContinueGrant(ctx context.Context, continueURI, continueToken string) (GrantResponse, error) {
	var out GrantResponse
	if err := c.do(ctx, http.MethodPost, continueURI, continueToken, struct{}{}, &out); err != nil {
		return GrantResponse{}, err
	}
	return out, nil
}

// CreateIncomingPayment creates a receivable on the given resource server.
func (c *Client) CreateIncomingPayment(ctx context.Context, resourceServer, accessToken string, req IncomingPaymentRequest) (IncomingPayment, error) {
	var out IncomingPayment
	url := joinPath(resourceServer, "incoming-payments")
	if err := c.do(ctx, http.MethodPost, url, accessToken, req, &out); err != nil {
		return IncomingPayment{}, err
	}
	return out, nil
}

// GetIncomingPayment reads a receivable by its canonical URL.
func (c *Client) GetIncomingPayment(ctx context.Context, url, accessToken string) (IncomingPayment, error) {
	var out IncomingPayment
	if err := c.do(ctx, http.MethodGet, url, accessToken, nil, &out); err != nil {
		return IncomingPayment{}, err
	}
	return out, nil
}

// CreateQuote creates a quote on the payer's resource server.
func (c *Client) CreateQuote(ctx context.Context, resourceServer, accessToken string, req QuoteRequest) (Quote, error) {
	var out Quote
	url := joinPath(resourceServer, "quotes")
	if err := c.do(ctx, http.MethodPost, url, accessToken, req, &out); err != nil {
		return Quote{}, err
	}
	return out, nil
}

// CreateOutgoingPayment creates the final payer-side payment resource.
func (c *Client) CreateOutgoingPayment(ctx context.Context, resourceServer, accessToken string, req OutgoingPaymentRequest) (OutgoingPayment, error) {
	var out OutgoingPayment
	url := joinPath(resourceServer, "outgoing-payments")
	if err := c.do(ctx, http.MethodPost, url, accessToken, req, &out); err != nil {
		return OutgoingPayment{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, url, accessToken string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "GNAP "+accessToken)
	}
	c.sign(req, payload)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ProtocolError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// sign attaches a content digest and a detached Ed25519 signature binding the
// method, target, and digest to the merchant's key.
func (c *Client) sign(req *http.Request, payload []byte) {
	digest := sha256.Sum256(payload)
	encoded := base64.StdEncoding.EncodeToString(digest[:])
	req.Header.Set("Content-Digest", fmt.Sprintf("sha-256=:%s:", encoded))

	base := strings.Join([]string{req.Method, req.URL.String(), encoded}, "\n")
	sig := ed25519.Sign(c.privKey, []byte(base))
	req.Header.Set("Signature", base64.StdEncoding.EncodeToString(sig))
	req.Header.Set("Signature-Input", fmt.Sprintf(`sig1=("@method" "@target-uri" "content-digest");keyid=%q`, c.keyID))
}

func errorMessage(raw []byte) string {
	var wrapped struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped.Error.Description != "" {
			return wrapped.Error.Description
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "no response body"
	}
	return msg
}

func joinPath(base, segment string) string {
	return strings.TrimSuffix(base, "/") + "/" + segment
}
