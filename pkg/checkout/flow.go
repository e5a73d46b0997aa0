package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Flow runs one subscription purchase end to end: precondition checks,
// invoice initiation, checkout presentation and verification. It is the
// single shared implementation behind every paying surface; pages differ
// only in the options they pass.
type Flow struct {
	publicKey string
	backend   Backend
	loader    *Loader
	sink      *LogSink
	reg       *registry

	prefix         string
	currency       string
	verifyAttempts int
	verifyBackoff  time.Duration

	notifyEnabled bool

	mu            sync.Mutex
	state         State
	status        string
	retryRef      string
	retryInvoice  string
	retryEligible bool
	pendingNotify *MarkPaidRequest
}

// Option tunes a Flow.
type Option func(*Flow)

// WithLogSink attaches the diagnostic trail. Without one, diagnostics are
// discarded.
func WithLogSink(sink *LogSink) Option {
	return func(f *Flow) { f.sink = sink }
}

// WithReferencePrefix sets the attempt-reference prefix.
func WithReferencePrefix(prefix string) Option {
	return func(f *Flow) { f.prefix = prefix }
}

// WithCurrency overrides the default GHS.
func WithCurrency(currency string) Option {
	return func(f *Flow) { f.currency = currency }
}

// WithVerifyRetry bounds the automatic retry of transport-level
// verification failures. Clean "not paid" answers are never retried.
func WithVerifyRetry(attempts int, backoff time.Duration) Option {
	return func(f *Flow) {
		if attempts > 0 {
			f.verifyAttempts = attempts
		}
		if backoff > 0 {
			f.verifyBackoff = backoff
		}
	}
}

// WithMarkPaidNotify turns on the bookkeeping notification after a verified
// payment. If that call fails the payment stays succeeded; the failure is a
// third outcome, distinct from both paid and not paid.
func WithMarkPaidNotify() Option {
	return func(f *Flow) { f.notifyEnabled = true }
}

// New builds a Flow. publicKey is the client-exposed "pk_" key; backend is
// the billing API; loader owns the checkout capability.
func New(publicKey string, backend Backend, loader *Loader, opts ...Option) *Flow {
	f := &Flow{
		publicKey:      publicKey,
		backend:        backend,
		loader:         loader,
		reg:            newRegistry(),
		prefix:         DefaultReferencePrefix,
		currency:       "GHS",
		verifyAttempts: 3,
		verifyBackoff:  2 * time.Second,
		state:          StateIdle,
		status:         "",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result is the terminal outcome of one purchase attempt.
type Result struct {
	State        State
	Status       string
	Reference    string
	InvoiceID    string
	Verification *VerificationResult
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Status returns the current user-visible status string.
func (f *Flow) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Logs returns the diagnostic trail, oldest first.
func (f *Flow) Logs() []string {
	return f.sink.Lines()
}

// Pay runs the whole flow for user and plan. Every failure category is
// converted to a terminal state and status string; the returned error
// carries the category for callers that branch on it.
func (f *Flow) Pay(ctx context.Context, user Identity, plan string) (*Result, error) {
	f.setState(StateProcessing, "Processing...")
	f.setPendingNotify(nil)

	if strings.TrimSpace(user.UserID) == "" {
		return f.fail("You must be signed in to pay.", ErrNotAuthenticated)
	}
	if !strings.HasPrefix(f.publicKey, "pk_") {
		return f.fail("Payment is not configured for this deployment.", ErrConfiguration)
	}

	// Re-attempt the capability load only if it is still absent, then gate
	// on readiness before any network call. A user who pays before the
	// capability finished loading gets a clean not-ready failure.
	_ = f.loader.EnsureLoaded(ctx)
	presenter := f.loader.Presenter()
	if presenter == nil {
		return f.fail("Checkout is not ready yet. Please try again.", ErrCheckoutNotReady)
	}

	inv, err := f.backend.CreateInvoice(ctx, user.UserID, plan)
	if err != nil {
		return f.fail("Payment initiation error: "+err.Error(), err)
	}
	amount, err := MinorUnits(inv.Price)
	if err != nil {
		return f.fail("Payment initiation error: "+err.Error(), &InitError{Body: err.Error()})
	}
	f.sink.Appendf("invoice %s created, amount=%d %s", inv.ID, amount, f.currency)

	session := Session{
		Reference: NewReference(f.prefix),
		Amount:    amount,
		Currency:  f.currency,
		Email:     user.Email,
		Metadata: map[string]string{
			"invoiceId": inv.ID,
			"plan":      plan,
			"userId":    user.UserID,
		},
	}

	wait := f.reg.register(session.Reference)
	defer f.reg.remove(session.Reference)
	cb := Callbacks{
		OnComplete: func(c Completion) {
			f.reg.resolve(session.Reference, outcome{completion: &c})
		},
		OnClose: func() {
			f.reg.resolve(session.Reference, outcome{closed: true})
		},
	}

	if err := presenter.Open(ctx, session, cb); err != nil {
		openErr := &OpenError{Err: err}
		return f.fail("Could not open checkout: "+err.Error(), openErr)
	}
	f.sink.Appendf("checkout opened reference=%s", session.Reference)

	select {
	case <-ctx.Done():
		return f.fail("Payment abandoned.", ctx.Err())
	case out := <-wait:
		if out.closed {
			// A user-initiated abort, not a failure. No verify call.
			f.sink.Append("checkout closed by user")
			f.setState(StateCancelled, "Checkout closed.")
			return f.result(session.Reference, inv.ID, nil), nil
		}
		reference := out.completion.Reference
		if reference == "" {
			reference = session.Reference
		}
		if f.notifyEnabled {
			f.setPendingNotify(&MarkPaidRequest{
				Reference: reference,
				UserID:    user.UserID,
				Email:     user.Email,
				FullName:  user.FullName,
				Amount:    inv.Price,
			})
		}
		// Completion only proves the user finished the popup; payment is
		// decided by verification alone.
		f.sink.Appendf("checkout completed reference=%s, verifying", reference)
		return f.verify(ctx, reference, inv.ID)
	}
}

// RetryVerification re-runs verification after a transport failure left the
// outcome unknown. It is only available while such an outcome is pending.
func (f *Flow) RetryVerification(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	eligible, ref, invoiceID := f.retryEligible, f.retryRef, f.retryInvoice
	f.mu.Unlock()
	if !eligible {
		return nil, errors.New("no verification to retry")
	}
	f.setState(StateProcessing, "Retrying verification...")
	return f.verify(ctx, ref, invoiceID)
}

func (f *Flow) verify(ctx context.Context, reference, invoiceID string) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= f.verifyAttempts; attempt++ {
		res, err := f.backend.VerifyPayment(ctx, reference, invoiceID)
		if err == nil {
			f.clearRetry()
			if res.Paid {
				f.sink.Appendf("payment verified reference=%s", reference)
				f.setState(StateSucceeded, "Payment verified. Subscription active.")
				if err := f.notifyRecorded(ctx, reference); err != nil {
					// Payment is real; only the bookkeeping call failed.
					f.sink.Appendf("payment recorded notification failed: %v", err)
					f.setState(StateSucceeded, "Payment received, but recording it failed. Support will follow up.")
					return f.result(reference, invoiceID, res), err
				}
				r := f.result(reference, invoiceID, res)
				return r, nil
			}
			f.sink.Appendf("verification returned not paid reference=%s", reference)
			f.setState(StateFailed, "Payment not confirmed.")
			r := f.result(reference, invoiceID, res)
			return r, ErrNotPaid
		}
		lastErr = err
		f.sink.Appendf("verification attempt %d failed: %v", attempt, err)
		if attempt < f.verifyAttempts {
			select {
			case <-ctx.Done():
				f.rememberRetry(reference, invoiceID)
				return f.fail("Verification interrupted.", ctx.Err())
			case <-time.After(f.verifyBackoff << (attempt - 1)):
			}
		}
	}
	// Outcome unknown, not a confirmed failure: keep a manual retry open
	// instead of silently losing the payment.
	f.rememberRetry(reference, invoiceID)
	f.setState(StateFailed, "Verification error. Payment state unknown; retry verification.")
	return f.result(reference, invoiceID, nil), lastErr
}

func (f *Flow) setPendingNotify(req *MarkPaidRequest) {
	f.mu.Lock()
	f.pendingNotify = req
	f.mu.Unlock()
}

// notifyRecorded fires the bookkeeping notification once per verified
// payment, when enabled.
func (f *Flow) notifyRecorded(ctx context.Context, reference string) error {
	f.mu.Lock()
	req := f.pendingNotify
	f.pendingNotify = nil
	f.mu.Unlock()
	if req == nil {
		return nil
	}
	req.Reference = reference
	return f.backend.MarkPaid(ctx, *req)
}

func (f *Flow) rememberRetry(reference, invoiceID string) {
	f.mu.Lock()
	f.retryRef, f.retryInvoice, f.retryEligible = reference, invoiceID, true
	f.mu.Unlock()
}

func (f *Flow) clearRetry() {
	f.mu.Lock()
	f.retryRef, f.retryInvoice, f.retryEligible = "", "", false
	f.mu.Unlock()
}

func (f *Flow) setState(s State, status string) {
	f.mu.Lock()
	f.state = s
	f.status = status
	f.mu.Unlock()
}

func (f *Flow) fail(status string, err error) (*Result, error) {
	f.sink.Append(err)
	f.setState(StateFailed, status)
	return f.result("", "", nil), err
}

func (f *Flow) result(reference, invoiceID string, v *VerificationResult) *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Result{
		State:        f.state,
		Status:       f.status,
		Reference:    reference,
		InvoiceID:    invoiceID,
		Verification: v,
	}
}
