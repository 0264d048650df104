package opclient

import "fmt"

// ProtocolError is a non-2xx reply from a wallet, auth, or resource server.
// The upstream message is preserved verbatim for diagnostics.
type ProtocolError struct {
	StatusCode int
	Message    string
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("open payments: status %d: %s", e.StatusCode, e.Message)
}
