package checkout

import (
	"errors"
	"fmt"
)

// Every failure the flow can hit maps to exactly one of these categories.
// All of them are caught inside the flow and converted to a status string
// plus a log entry; none escape to the caller unwrapped.
var (
	// ErrNotAuthenticated: no signed-in identity was supplied.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrConfiguration: the publishable key is missing or malformed. A
	// misconfigured deployment must never open a checkout that cannot
	// possibly succeed.
	ErrConfiguration = errors.New("payment configuration invalid")
	// ErrCheckoutNotReady: the checkout capability is not loaded.
	ErrCheckoutNotReady = errors.New("checkout not ready")
	// ErrMissingInvoiceID: the init endpoint answered 2xx without an id.
	ErrMissingInvoiceID = errors.New("invoice response missing invoiceId")
	// ErrNotPaid: the server cleanly reported the payment did not clear.
	// Distinct from VerifyError, which is a transport failure.
	ErrNotPaid = errors.New("payment not confirmed")
)

// InitError carries the body text of a failed invoice-init response.
type InitError struct {
	Body string
}

func (e *InitError) Error() string {
	return "Invoice init failed: " + e.Body
}

// OpenError wraps a checkout surface that threw on open.
type OpenError struct {
	Err error
}

func (e *OpenError) Error() string {
	return "checkout open failed: " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }

// VerifyError is a transport-level verification failure. It says nothing
// about whether the payment cleared, which is why it is retryable while
// ErrNotPaid is not.
type VerifyError struct {
	Err error
}

func (e *VerifyError) Error() string {
	return "verification error: " + e.Err.Error()
}

func (e *VerifyError) Unwrap() error { return e.Err }

// NotifyError marks the third outcome of the mark-paid path: the payment
// went through but the server-side bookkeeping call did not.
type NotifyError struct {
	StatusCode int
	Body       string
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("server notify failed: status=%d body=%s", e.StatusCode, e.Body)
}
