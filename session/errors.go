package session

import "fmt"

// AuthError wraps any failure during authentication: invalid credentials,
// duplicate account or a network failure talking to the provider. The
// provider's message is surfaced to the user verbatim; nothing is retried.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
