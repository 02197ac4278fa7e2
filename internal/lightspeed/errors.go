package lightspeed

import (
	"errors"
	"fmt"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// Sentinel errors. Typed errors below match these with errors.Is.
var (
	// ErrStateMismatch is returned when the OAuth callback state does not
	// match the stored session state.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrAuthExpired is returned when a bearer token is rejected even after
	// one refresh attempt.
	ErrAuthExpired = errors.New("authorization expired")

	// ErrUpstreamUnavailable is returned when the vendor stays unreachable
	// after the retry budget is spent.
	ErrUpstreamUnavailable = errors.New("vendor API unavailable")
)

// StateMismatchError reports a callback whose state differs from the stored
// session. The login attempt must be restarted.
type StateMismatchError struct{}

func (*StateMismatchError) Error() string { return ErrStateMismatch.Error() }

// Is implements errors.Is.
func (*StateMismatchError) Is(target error) bool { return target == ErrStateMismatch }

// TokenExchangeError reports a rejected authorization code or refresh token.
type TokenExchangeError struct {
	Grant  string
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed (grant %s, status %d): %s", e.Grant, e.Status, e.Body)
}

// AuthExpiredError reports a bearer token the vendor keeps rejecting.
type AuthExpiredError struct {
	Generation domain.Generation
	Cause      error
}

func (e *AuthExpiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrAuthExpired, e.Generation, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrAuthExpired, e.Generation)
}

// Is implements errors.Is.
func (*AuthExpiredError) Is(target error) bool { return target == ErrAuthExpired }

// Unwrap returns the underlying cause.
func (e *AuthExpiredError) Unwrap() error { return e.Cause }

// UpstreamUnavailableError reports a page request that kept failing with
// transient errors, or a vendor host whose circuit breaker is open.
type UpstreamUnavailableError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", ErrUpstreamUnavailable, e.Op, e.Attempts, e.Err)
}

// Is implements errors.Is.
func (*UpstreamUnavailableError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// Unwrap returns the last transient error.
func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// VendorRequestError reports a non-auth 4xx response or an undecodable page.
// Retrying the same request will not help.
type VendorRequestError struct {
	Op     string
	Status int
	Body   string
}

func (e *VendorRequestError) Error() string {
	return fmt.Sprintf("vendor API error (%s, status %d): %s", e.Op, e.Status, e.Body)
}

// MalformedRecordError reports a single vendor record that could not be
// normalized. It is recovered locally by skipping the record.
type MalformedRecordError struct {
	Generation domain.Generation
	RecordID   string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	id := e.RecordID
	if id == "" {
		id = "<none>"
	}
	return fmt.Sprintf("malformed %s record %s: %s", e.Generation, id, e.Reason)
}
