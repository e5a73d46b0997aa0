// Package checkout implements the Paystack inline-checkout purchase flow:
// invoice initiation, checkout presentation and server-side verification,
// shared by every surface that sells a subscription.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"math"
)

// Identity is the signed-in user on whose behalf a checkout runs. Resolving
// it is the auth layer's job; an empty UserID aborts the flow before any
// network call.
type Identity struct {
	UserID   string
	Email    string
	FullName string
}

// Session is one checkout attempt. It lives in memory only and is discarded
// once the checkout closes; the reference is unique per attempt and never
// reused across retries.
type Session struct {
	Reference string
	Amount    int64 // minor currency units
	Currency  string
	Email     string
	Metadata  map[string]string
}

// Completion is the opaque response the checkout surface reports when the
// user finishes the popup flow. It is evidence of completion, never of
// payment; verification decides that.
type Completion struct {
	Reference string
	Raw       json.RawMessage
}

// Callbacks are the two terminal signals a checkout surface can emit.
// Exactly one fires per session.
type Callbacks struct {
	OnComplete func(Completion)
	OnClose    func()
}

// Presenter is the third-party checkout capability, injected explicitly
// rather than discovered through ambient globals. Open hands control to the
// checkout surface and returns once it is presented; the outcome arrives via
// the callbacks.
type Presenter interface {
	Open(ctx context.Context, s Session, cb Callbacks) error
}

// State is the terminal taxonomy of a checkout flow as surfaced to the UI.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MinorUnits converts a major-unit price to integer minor units. Rounding,
// not truncation, so fractional prices are never systematically undercharged.
func MinorUnits(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.New("price is not a number")
	}
	if price < 0 {
		return 0, errors.New("price must not be negative")
	}
	return int64(math.Round(price * 100)), nil
}
