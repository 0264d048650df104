package opclient

import "time"

// WalletAddress is the public descriptor of an open-payments wallet: its
// asset denomination and the servers that govern it.
type WalletAddress struct {
	ID             string `json:"id"`
	PublicName     string `json:"publicName,omitempty"`
	AssetCode      string `json:"assetCode"`
	AssetScale     int    `json:"assetScale"`
	AuthServer     string `json:"authServer"`
	ResourceServer string `json:"resourceServer"`
}

// IncomingPayment is a receivable resource on the merchant's resource server.
// Its ID doubles as the payment reference a payer uses to pay it.
type IncomingPayment struct {
	ID             string         `json:"id"`
	WalletAddress  string         `json:"walletAddress"`
	IncomingAmount Amount         `json:"incomingAmount"`
	ReceivedAmount Amount         `json:"receivedAmount"`
	Completed      bool           `json:"completed"`
	ExpiresAt      time.Time      `json:"expiresAt"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"createdAt,omitempty"`
}

// IncomingPaymentRequest is the creation body for an incoming payment.
type IncomingPaymentRequest struct {
	WalletAddress  string         `json:"walletAddress"`
	IncomingAmount Amount         `json:"incomingAmount"`
	ExpiresAt      time.Time      `json:"expiresAt"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Quote binds the cost of paying a receivable from a given wallet: what the
// payer is debited and what the merchant receives, conversion included.
type Quote struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress"`
	Receiver      string `json:"receiver"`
	DebitAmount   Amount `json:"debitAmount"`
	ReceiveAmount Amount `json:"receiveAmount"`
	Method        string `json:"method,omitempty"`
}

// QuoteRequest is the creation body for a quote.
type QuoteRequest struct {
	Method        string `json:"method"`
	WalletAddress string `json:"walletAddress"`
	Receiver      string `json:"receiver"`
}

// OutgoingPayment is the payer-side payment resource created once the
// authorizing grant is finalized.
type OutgoingPayment struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress"`
	QuoteID       string `json:"quoteId,omitempty"`
	State         string `json:"state,omitempty"`
	Receiver      string `json:"receiver,omitempty"`
	DebitAmount   Amount `json:"debitAmount,omitempty"`
	ReceiveAmount Amount `json:"receiveAmount,omitempty"`
	Failed        bool   `json:"failed,omitempty"`
}

// OutgoingPaymentRequest is the creation body for an outgoing payment.
type OutgoingPaymentRequest struct {
	WalletAddress string `json:"walletAddress"`
	QuoteID       string `json:"quoteId"`
}

// Limits constrains what an access grant may spend.
type Limits struct {
	DebitAmount *Amount `json:"debitAmount,omitempty"`
}

// Access describes one entry of a grant request's access array.
type Access struct {
	Type       string   `json:"type"`
	Actions    []string `json:"actions"`
	Identifier string   `json:"identifier,omitempty"`
	Limits     *Limits  `json:"limits,omitempty"`
}

// GrantRequest is the GNAP grant negotiation body sent to an auth server.
type GrantRequest struct {
	AccessToken struct {
		Access []Access `json:"access"`
	} `json:"access_token"`
	Client   string         `json:"client"`
	Interact *InteractStart `json:"interact,omitempty"`
}

// InteractStart asks the auth server to begin a redirect interaction.
type InteractStart struct {
	Start  []string        `json:"start"`
	Finish *InteractFinish `json:"finish,omitempty"`
}

// InteractFinish tells the auth server how to hand control back after the
// interaction completes.
type InteractFinish struct {
	Method string `json:"method"`
	URI    string `json:"uri"`
	Nonce  string `json:"nonce"`
}

// GrantAccessToken is the issued token of a finalized grant.
type GrantAccessToken struct {
	Value     string `json:"value"`
	Manage    string `json:"manage,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// GrantContinue carries the credentials for resuming a grant negotiation.
type GrantContinue struct {
	URI         string           `json:"uri"`
	AccessToken GrantAccessToken `json:"access_token"`
	Wait        int              `json:"wait,omitempty"`
}

// GrantInteract carries the redirect the payer must visit to authorize.
type GrantInteract struct {
	Redirect string `json:"redirect"`
	Finish   string `json:"finish,omitempty"`
}

// GrantResponse is the raw auth server reply to a grant request or
// continuation. Which fields are populated determines whether the grant is
// finalized, pending interaction, or in an unrecognized state; that
// classification belongs to the grants package, not here.
type GrantResponse struct {
	AccessToken *GrantAccessToken `json:"access_token,omitempty"`
	Continue    *GrantContinue    `json:"continue,omitempty"`
	Interact    *GrantInteract    `json:"interact,omitempty"`
}
