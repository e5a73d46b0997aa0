package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// APIError surfaces non-successful HTTP responses from Paystack.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ErrTransactionNotFound marks a verify call for an unknown reference.
var ErrTransactionNotFound = errors.New("transaction not found")

// Client is a minimal Paystack REST client covering transaction
// initialization and verification.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secretKey:  secretKey,
	}
}

// InitializeRequest starts a hosted checkout. Amount is in minor currency
// units (pesewas for GHS) as Paystack transacts in integers.
type InitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the verify-call payload. Raw keeps the opaque remainder for
// passthrough to clients.
type Transaction struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	Channel   string          `json:"channel"`
	Raw       json.RawMessage `json:"-"`
}

// Succeeded reports whether the charge actually cleared. Anything other than
// an explicit "success" is treated as not paid.
func (t *Transaction) Succeeded() bool {
	return strings.EqualFold(t.Status, "success")
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction registers a transaction and returns the hosted
// checkout authorization.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	if req.Email == "" {
		return nil, errors.New("email is required")
	}
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}
	var auth Authorization
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	if auth.Reference == "" {
		return nil, errors.New("initialize response missing reference")
	}
	return &auth, nil
}

// VerifyTransaction fetches the authoritative state of a transaction by
// reference. Callers must check Succeeded(); a non-error return is not proof
// of payment.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if reference == "" {
		return nil, errors.New("reference is required")
	}
	data, err := c.doRequest(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	var txn Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	txn.Raw = data
	return &txn, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("decode paystack envelope: %w", err)
	}
	if !env.Status {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: env.Message}
	}
	return env.Data, nil
}
