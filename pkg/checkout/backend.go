package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// Invoice is the pending-payment record the init endpoint creates.
type Invoice struct {
	ID    string  `json:"invoiceId"`
	Price float64 `json:"price"`
}

// VerificationResult is the server's answer on whether a payment cleared.
// Paid is only trustworthy when the HTTP response itself succeeded and the
// body explicitly set paid=true; absence of error is not proof of payment.
type VerificationResult struct {
	Paid    bool
	Details json.RawMessage
}

// MarkPaidRequest is the alternate-flow bookkeeping notification sent after
// a completed checkout.
type MarkPaidRequest struct {
	Reference string  `json:"reference"`
	UserID    string  `json:"userId"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Amount    float64 `json:"amount"`
}

// Backend is the billing API the flow talks to.
type Backend interface {
	CreateInvoice(ctx context.Context, userID, plan string) (*Invoice, error)
	VerifyPayment(ctx context.Context, reference, invoiceID string) (*VerificationResult, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) error
}

// APIConfig points an APIClient at a billing backend. Paths are injectable
// so the same flow serves every product surface.
type APIConfig struct {
	BaseURL      string
	InitPath     string
	VerifyPath   string
	MarkPaidPath string
	AuthToken    string
	HTTPClient   *http.Client
}

// APIClient is the HTTP implementation of Backend.
type APIClient struct {
	cfg APIConfig
}

func NewAPIClient(cfg APIConfig) *APIClient {
	if cfg.InitPath == "" {
		cfg.InitPath = "/api/v1/billing/init"
	}
	if cfg.VerifyPath == "" {
		cfg.VerifyPath = "/api/v1/billing/verify"
	}
	if cfg.MarkPaidPath == "" {
		cfg.MarkPaidPath = "/api/v1/billing/mark-paid"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &APIClient{cfg: cfg}
}

// CreateInvoice obtains a pending invoice and its price before any checkout
// is shown.
func (c *APIClient) CreateInvoice(ctx context.Context, userID, plan string) (*Invoice, error) {
	status, body, err := c.post(ctx, c.cfg.InitPath, map[string]string{
		"userId": userID,
		"plan":   plan,
	})
	if err != nil {
		return nil, &InitError{Body: err.Error()}
	}
	if status < 200 || status > 299 {
		return nil, &InitError{Body: strings.TrimSpace(string(body))}
	}
	var inv Invoice
	if err := json.Unmarshal(body, &inv); err != nil {
		return nil, &InitError{Body: "malformed init response"}
	}
	if inv.ID == "" {
		return nil, ErrMissingInvoiceID
	}
	return &inv, nil
}

// VerifyPayment asks the server whether the referenced payment cleared.
// Transport failures come back as *VerifyError; every non-2xx status,
// paid!=true body or malformed body defaults safe to not paid.
func (c *APIClient) VerifyPayment(ctx context.Context, reference, invoiceID string) (*VerificationResult, error) {
	status, body, err := c.post(ctx, c.cfg.VerifyPath, map[string]string{
		"reference": reference,
		"invoiceId": invoiceID,
	})
	if err != nil {
		return nil, &VerifyError{Err: err}
	}
	res := &VerificationResult{Details: json.RawMessage(body)}
	if status < 200 || status > 299 {
		return res, nil
	}
	var payload struct {
		Paid *bool `json:"paid"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Paid == nil {
		return res, nil
	}
	res.Paid = *payload.Paid
	return res, nil
}

// MarkPaid records a completed checkout server-side. A non-200 answer is
// the distinct "payment recorded but server error" outcome.
func (c *APIClient) MarkPaid(ctx context.Context, req MarkPaidRequest) error {
	status, body, err := c.post(ctx, c.cfg.MarkPaidPath, req)
	if err != nil {
		return &NotifyError{StatusCode: 0, Body: err.Error()}
	}
	if status != http.StatusOK {
		return &NotifyError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

func (c *APIClient) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
