package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"velt/config"
	"velt/internal/domain"
	"velt/internal/middleware"
	"velt/internal/models"
	"velt/pkg/checkout"
	"velt/pkg/paystack"
)

// InvoiceStore, SubscriptionStore, EventStore and UserStore are the slices
// of the repositories the billing handler needs.
type InvoiceStore interface {
	Create(inv *models.Invoice) error
	GetByID(id string) (*models.Invoice, error)
	GetByReference(reference string) (*models.Invoice, error)
	Update(inv *models.Invoice) error
	MarkPaid(inv *models.Invoice, reference string) error
}

type SubscriptionStore interface {
	GetByUser(userID string) (*models.Subscription, error)
	Activate(userID, plan, invoiceID string, interval time.Duration) (*models.Subscription, error)
}

type EventStore interface {
	Create(e *models.PaymentEvent) error
}

type UserStore interface {
	Upsert(u *models.User) error
}

// TransactionVerifier is the Paystack capability the handler depends on.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// StatusNotifier pushes invoice transitions to the paying user's open
// connections. May be nil.
type StatusNotifier interface {
	NotifyInvoiceStatus(userID, invoiceID, status string)
}

type BillingHandler struct {
	cfg      *config.Config
	invoices InvoiceStore
	subs     SubscriptionStore
	events   EventStore
	users    UserStore
	verifier TransactionVerifier
	notifier StatusNotifier
}

func NewBillingHandler(
	cfg *config.Config,
	invoices InvoiceStore,
	subs SubscriptionStore,
	events EventStore,
	users UserStore,
	verifier TransactionVerifier,
	notifier StatusNotifier,
) *BillingHandler {
	return &BillingHandler{
		cfg:      cfg,
		invoices: invoices,
		subs:     subs,
		events:   events,
		users:    users,
		verifier: verifier,
		notifier: notifier,
	}
}

// Init creates a pending invoice for the signed-in user and returns its id
// and price. No checkout may be presented before this succeeds.
func (h *BillingHandler) Init(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		UserID string `json:"userId"`
		Plan   string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID != "" && req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "userId does not match authenticated user"})
		return
	}
	plan, ok := domain.PlanByCode(req.Plan)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}
	inv := &models.Invoice{
		ID:       uuid.New().String(),
		UserID:   userID,
		Plan:     plan.Code,
		Price:    plan.Price,
		Currency: plan.Currency,
		Status:   domain.InvoiceStatusPending,
	}
	if err := h.invoices.Create(inv); err != nil {
		log.Printf("[Billing] invoice create failed user=%s plan=%s: %v", userID, plan.Code, err)
		c.String(http.StatusInternalServerError, "invoice create failed")
		return
	}
	_ = h.events.Create(&models.PaymentEvent{
		InvoiceID: inv.ID,
		Action:    "invoice_created",
		Detail:    plan.Code,
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"invoiceId": inv.ID, "price": inv.Price})
}

// Verify turns a client-reported checkout completion into a trustworthy
// confirmation against Paystack. paid=true requires Paystack itself to say
// the charge succeeded for the right amount; nothing the client sent is
// believed on its own.
func (h *BillingHandler) Verify(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Reference string `json:"reference" binding:"required"`
		InvoiceID string `json:"invoiceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := h.invoices.GetByID(req.InvoiceID)
	if err != nil || inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"paid": false, "error": "invoice not found"})
		return
	}
	if inv.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"paid": false, "error": "invoice belongs to another user"})
		return
	}
	// A webhook may have confirmed this invoice already; verify is
	// idempotent once paid.
	if inv.Status == domain.InvoiceStatusPaid {
		c.JSON(http.StatusOK, gin.H{"paid": true, "reference": inv.Reference, "status": inv.Status})
		return
	}

	inv.Status = domain.InvoiceStatusVerifying
	inv.Reference = req.Reference
	_ = h.invoices.Update(inv)

	txn, err := h.verifier.VerifyTransaction(c.Request.Context(), req.Reference)
	if err != nil {
		log.Printf("[Billing] paystack verify error reference=%s: %v", req.Reference, err)
		_ = h.events.Create(&models.PaymentEvent{
			InvoiceID: inv.ID,
			Reference: req.Reference,
			Action:    "verify_error",
			Detail:    err.Error(),
			IP:        c.ClientIP(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"paid": false, "error": "verification unavailable"})
		return
	}

	expected, _ := checkout.MinorUnits(inv.Price)
	if !txn.Succeeded() || txn.Amount != expected || !strings.EqualFold(txn.Currency, inv.Currency) {
		inv.Status = domain.InvoiceStatusFailed
		_ = h.invoices.Update(inv)
		_ = h.events.Create(&models.PaymentEvent{
			InvoiceID: inv.ID,
			Reference: req.Reference,
			Action:    "verify_rejected",
			Detail:    txn.Status,
			IP:        c.ClientIP(),
		})
		h.notify(inv)
		c.JSON(http.StatusOK, gin.H{"paid": false, "status": txn.Status})
		return
	}

	if err := h.completePayment(inv, req.Reference, "verify_confirmed", c.ClientIP()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"paid": false, "error": "could not record payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paid": true, "reference": req.Reference, "details": txn.Raw})
}

// MarkPaid is the alternate-flow bookkeeping notification: the checkout
// completed and the client asks the server to record it. A non-200 here is
// a distinct third outcome - payment made, bookkeeping failed.
func (h *BillingHandler) MarkPaid(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Reference string  `json:"reference" binding:"required"`
		UserID    string  `json:"userId"`
		Email     string  `json:"email"`
		FullName  string  `json:"full_name"`
		Amount    float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	if req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "userId does not match authenticated user"})
		return
	}
	if err := h.users.Upsert(&models.User{ID: req.UserID, Email: req.Email, FullName: req.FullName}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record user"})
		return
	}
	inv, err := h.invoices.GetByReference(req.Reference)
	if err != nil || inv == nil {
		// No invoice bound to this reference; keep the event for support.
		_ = h.events.Create(&models.PaymentEvent{
			Reference: req.Reference,
			Action:    "mark_paid_unmatched",
			Detail:    req.Email,
			IP:        c.ClientIP(),
		})
		c.JSON(http.StatusOK, gin.H{"recorded": true})
		return
	}
	if inv.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "invoice belongs to another user"})
		return
	}
	if inv.Status != domain.InvoiceStatusPaid {
		if err := h.completePayment(inv, req.Reference, "mark_paid", c.ClientIP()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record payment"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// SubscriptionStatus reports the signed-in user's current entitlement.
func (h *BillingHandler) SubscriptionStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sub, err := h.subs.GetByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load subscription"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":             sub.Active(time.Now()),
		"plan":               sub.Plan,
		"status":             sub.Status,
		"current_period_end": sub.CurrentPeriodEnd,
	})
}

// completePayment is the only place an invoice moves to paid: mark the
// invoice, extend the subscription, record the event, push the update.
func (h *BillingHandler) completePayment(inv *models.Invoice, reference, action, ip string) error {
	if err := h.invoices.MarkPaid(inv, reference); err != nil {
		log.Printf("[Billing] mark paid failed invoice=%s: %v", inv.ID, err)
		return err
	}
	plan, ok := domain.PlanByCode(inv.Plan)
	if ok {
		if _, err := h.subs.Activate(inv.UserID, plan.Code, inv.ID, plan.Interval); err != nil {
			log.Printf("[Billing] subscription activate failed invoice=%s: %v", inv.ID, err)
			return err
		}
	}
	_ = h.events.Create(&models.PaymentEvent{
		InvoiceID: inv.ID,
		Reference: reference,
		Action:    action,
		IP:        ip,
	})
	h.notify(inv)
	return nil
}

func (h *BillingHandler) notify(inv *models.Invoice) {
	if h.notifier != nil {
		h.notifier.NotifyInvoiceStatus(inv.UserID, inv.ID, inv.Status)
	}
}
