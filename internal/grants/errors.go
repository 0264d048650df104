package grants

import (
	"errors"
	"fmt"
)

// ErrNotReady indicates a continued grant is still awaiting authorization.
// Callers may retry the continuation later; nothing is broken.
var ErrNotReady = errors.New("grant not ready: authorization still pending")

// RequestError wraps a network or auth server failure during negotiation.
// Single attempt, no internal retries; retry policy belongs to the caller.
type RequestError struct {
	Op  string
	Err error
}

func (e RequestError) Error() string {
	return fmt.Sprintf("grant %s: %v", e.Op, e.Err)
}

func (e RequestError) Unwrap() error {
	return e.Err
}

// UnexpectedStateError indicates the auth server returned a shape the
// negotiator does not recognize. This is a fatal logic class, typically a
// protocol-version mismatch; it must never be treated as success.
type UnexpectedStateError struct {
	Detail string
}

func (e UnexpectedStateError) Error() string {
	return fmt.Sprintf("unexpected grant state: %s", e.Detail)
}
