package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"velt/config"
	"velt/internal/domain"
	"velt/internal/models"
	"velt/pkg/paystack"
)

type fakeInvoiceStore struct {
	byID      map[string]*models.Invoice
	createErr error
}

func newFakeInvoiceStore(invoices ...*models.Invoice) *fakeInvoiceStore {
	s := &fakeInvoiceStore{byID: make(map[string]*models.Invoice)}
	for _, inv := range invoices {
		s.byID[inv.ID] = inv
	}
	return s
}

func (s *fakeInvoiceStore) Create(inv *models.Invoice) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.byID[inv.ID] = inv
	return nil
}

func (s *fakeInvoiceStore) GetByID(id string) (*models.Invoice, error) {
	inv, ok := s.byID[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return inv, nil
}

func (s *fakeInvoiceStore) GetByReference(reference string) (*models.Invoice, error) {
	for _, inv := range s.byID {
		if inv.Reference == reference {
			return inv, nil
		}
	}
	return nil, errors.New("record not found")
}

func (s *fakeInvoiceStore) Update(inv *models.Invoice) error {
	s.byID[inv.ID] = inv
	return nil
}

func (s *fakeInvoiceStore) MarkPaid(inv *models.Invoice, reference string) error {
	now := time.Now()
	inv.Status = domain.InvoiceStatusPaid
	inv.Reference = reference
	inv.VerifiedAt = &now
	s.byID[inv.ID] = inv
	return nil
}

type fakeSubscriptionStore struct {
	sub         *models.Subscription
	activations []string
}

func (s *fakeSubscriptionStore) GetByUser(userID string) (*models.Subscription, error) {
	return s.sub, nil
}

func (s *fakeSubscriptionStore) Activate(userID, plan, invoiceID string, interval time.Duration) (*models.Subscription, error) {
	s.activations = append(s.activations, invoiceID)
	s.sub = &models.Subscription{
		UserID:           userID,
		Plan:             plan,
		Status:           domain.SubscriptionStatusActive,
		CurrentPeriodEnd: time.Now().Add(interval),
		LastInvoiceID:    invoiceID,
	}
	return s.sub, nil
}

type fakeEventStore struct {
	events []models.PaymentEvent
}

func (s *fakeEventStore) Create(e *models.PaymentEvent) error {
	s.events = append(s.events, *e)
	return nil
}

func (s *fakeEventStore) actions() []string {
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

type fakeUserStore struct {
	upserts []models.User
}

func (s *fakeUserStore) Upsert(u *models.User) error {
	s.upserts = append(s.upserts, *u)
	return nil
}

type fakeVerifier struct {
	fn func(ctx context.Context, reference string) (*paystack.Transaction, error)
}

func (v *fakeVerifier) VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error) {
	return v.fn(ctx, reference)
}

type fakeNotifier struct {
	statuses []string
}

func (n *fakeNotifier) NotifyInvoiceStatus(userID, invoiceID, status string) {
	n.statuses = append(n.statuses, status)
}

type billingFixture struct {
	handler  *BillingHandler
	invoices *fakeInvoiceStore
	subs     *fakeSubscriptionStore
	events   *fakeEventStore
	users    *fakeUserStore
	notifier *fakeNotifier
}

func newBillingFixture(verifier TransactionVerifier, invoices *fakeInvoiceStore) *billingFixture {
	f := &billingFixture{
		invoices: invoices,
		subs:     &fakeSubscriptionStore{},
		events:   &fakeEventStore{},
		users:    &fakeUserStore{},
		notifier: &fakeNotifier{},
	}
	cfg := &config.Config{}
	cfg.Paystack.Currency = "GHS"
	f.handler = NewBillingHandler(cfg, invoices, f.subs, f.events, f.users, verifier, f.notifier)
	return f
}

func perform(h gin.HandlerFunc, userID string, body any) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	data, _ := json.Marshal(body)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", userID)
	h(c)
	return w
}

func pendingInvoice() *models.Invoice {
	return &models.Invoice{
		ID:       "inv-1",
		UserID:   "user-1",
		Plan:     domain.PlanPublisherMonthly,
		Price:    80.00,
		Currency: "GHS",
		Status:   domain.InvoiceStatusPending,
	}
}

func successTxn(reference string) *paystack.Transaction {
	return &paystack.Transaction{
		Status:    "success",
		Reference: reference,
		Amount:    8000,
		Currency:  "GHS",
	}
}

func TestInitCreatesPendingInvoice(t *testing.T) {
	f := newBillingFixture(nil, newFakeInvoiceStore())
	w := perform(f.handler.Init, "user-1", gin.H{"plan": domain.PlanPublisherMonthly})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		InvoiceID string  `json:"invoiceId"`
		Price     float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.InvoiceID)
	require.Equal(t, 80.00, resp.Price)

	inv, err := f.invoices.GetByID(resp.InvoiceID)
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceStatusPending, inv.Status)
	require.Equal(t, "user-1", inv.UserID)
}

func TestInitRejectsUnknownPlan(t *testing.T) {
	f := newBillingFixture(nil, newFakeInvoiceStore())
	w := perform(f.handler.Init, "user-1", gin.H{"plan": "gold_yearly"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitRejectsMismatchedUser(t *testing.T) {
	f := newBillingFixture(nil, newFakeInvoiceStore())
	w := perform(f.handler.Init, "user-1", gin.H{"plan": domain.PlanPublisherMonthly, "userId": "user-2"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestInitStoreFailureReturnsTextBody(t *testing.T) {
	store := newFakeInvoiceStore()
	store.createErr = errors.New("db unavailable")
	f := newBillingFixture(nil, store)
	w := perform(f.handler.Init, "user-1", gin.H{"plan": domain.PlanPublisherMonthly})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "invoice create failed", w.Body.String())
}

func TestVerifyConfirmsPaidCharge(t *testing.T) {
	verifier := &fakeVerifier{fn: func(ctx context.Context, reference string) (*paystack.Transaction, error) {
		return successTxn(reference), nil
	}}
	f := newBillingFixture(verifier, newFakeInvoiceStore(pendingInvoice()))

	w := perform(f.handler.Verify, "user-1", gin.H{"reference": "VELT-1-000001", "invoiceId": "inv-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Paid bool `json:"paid"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Paid)

	inv, _ := f.invoices.GetByID("inv-1")
	require.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	require.Equal(t, []string{"inv-1"}, f.subs.activations)
	require.Contains(t, f.events.actions(), "verify_confirmed")
	require.Contains(t, f.notifier.statuses, domain.InvoiceStatusPaid)
}

func TestVerifyNotPaidWhenChargeFailed(t *testing.T) {
	verifier := &fakeVerifier{fn: func(ctx context.Context, reference string) (*paystack.Transaction, error) {
		txn := successTxn(reference)
		txn.Status = "failed"
		return txn, nil
	}}
	f := newBillingFixture(verifier, newFakeInvoiceStore(pendingInvoice()))

	w := perform(f.handler.Verify, "user-1", gin.H{"reference": "r", "invoiceId": "inv-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"paid":false`)

	inv, _ := f.invoices.GetByID("inv-1")
	require.Equal(t, domain.InvoiceStatusFailed, inv.Status)
	require.Empty(t, f.subs.activations)
}

func TestVerifyRejectsAmountMismatch(t *testing.T) {
	verifier := &fakeVerifier{fn: func(ctx context.Context, reference string) (*paystack.Transaction, error) {
		txn := successTxn(reference)
		txn.Amount = 100 // paid 1 GHS for an 80 GHS plan
		return txn, nil
	}}
	f := newBillingFixture(verifier, newFakeInvoiceStore(pendingInvoice()))

	w := perform(f.handler.Verify, "user-1", gin.H{"reference": "r", "invoiceId": "inv-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"paid":false`)
	require.Empty(t, f.subs.activations)
}

func TestVerifyTransportErrorIsBadGateway(t *testing.T) {
	verifier := &fakeVerifier{fn: func(ctx context.Context, reference string) (*paystack.Transaction, error) {
		return nil, errors.New("connect: connection refused")
	}}
	f := newBillingFixture(verifier, newFakeInvoiceStore(pendingInvoice()))

	w := perform(f.handler.Verify, "user-1", gin.H{"reference": "r", "invoiceId": "inv-1"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), `"paid":false`)
}

func TestVerifyIdempotentOncePaid(t *testing.T) {
	inv := pendingInvoice()
	inv.Status = domain.InvoiceStatusPaid
	inv.Reference = "r"
	calls := 0
	verifier := &fakeVerifier{fn: func(ctx context.Context, reference string) (*paystack.Transaction, error) {
		calls++
		return successTxn(reference), nil
	}}
	f := newBillingFixture(verifier, newFakeInvoiceStore(inv))

	w := perform(f.handler.Verify, "user-1", gin.H{"reference": "r", "invoiceId": "inv-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"paid":true`)
	require.Zero(t, calls)
}

func TestVerifyRejectsForeignInvoice(t *testing.T) {
	f := newBillingFixture(nil, newFakeInvoiceStore(pendingInvoice()))
	w := perform(f.handler.Verify, "user-2", gin.H{"reference": "r", "invoiceId": "inv-1"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkPaidUnmatchedReferenceIsRecorded(t *testing.T) {
	f := newBillingFixture(nil, newFakeInvoiceStore())
	w := perform(f.handler.MarkPaid, "user-1", gin.H{
		"reference": "VELT-1-000002",
		"email":     "pub@example.com",
		"full_name": "Ama Mensah",
		"amount":    80.0,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, f.events.actions(), "mark_paid_unmatched")
	require.Len(t, f.users.upserts, 1)
	require.Equal(t, "user-1", f.users.upserts[0].ID)
}

func TestMarkPaidCompletesKnownInvoice(t *testing.T) {
	inv := pendingInvoice()
	inv.Reference = "VELT-1-000003"
	f := newBillingFixture(nil, newFakeInvoiceStore(inv))

	w := perform(f.handler.MarkPaid, "user-1", gin.H{"reference": "VELT-1-000003"})
	require.Equal(t, http.StatusOK, w.Code)
	got, _ := f.invoices.GetByID("inv-1")
	require.Equal(t, domain.InvoiceStatusPaid, got.Status)
	require.Equal(t, []string{"inv-1"}, f.subs.activations)
}

func TestSubscriptionStatus(t *testing.T) {
	f := newBillingFixture(nil, newFakeInvoiceStore())
	w := perform(f.handler.SubscriptionStatus, "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"active":false`)

	f.subs.sub = &models.Subscription{
		UserID:           "user-1",
		Plan:             domain.PlanPublisherMonthly,
		Status:           domain.SubscriptionStatusActive,
		CurrentPeriodEnd: time.Now().Add(24 * time.Hour),
	}
	w = perform(f.handler.SubscriptionStatus, "user-1", nil)
	require.Contains(t, w.Body.String(), `"active":true`)
}

func TestMarkPaidRejectsForeignInvoice(t *testing.T) {
	inv := pendingInvoice()
	inv.Reference = "VELT-1-000004"
	f := newBillingFixture(nil, newFakeInvoiceStore(inv))

	w := perform(f.handler.MarkPaid, "user-2", gin.H{"reference": "VELT-1-000004"})
	require.Equal(t, http.StatusForbidden, w.Code)

	got, _ := f.invoices.GetByID("inv-1")
	require.Equal(t, domain.InvoiceStatusPending, got.Status)
	require.Empty(t, f.subs.activations)
}
