package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"velt/config"
	"velt/internal/domain"
	"velt/internal/models"
	"velt/pkg/checkout"
)

// PaystackWebhookHandler processes charge events pushed by Paystack. The
// webhook is the authoritative confirmation path; client verify calls only
// ever observe what lands here or at Paystack directly.
type PaystackWebhookHandler struct {
	cfg      *config.Config
	invoices InvoiceStore
	subs     SubscriptionStore
	events   EventStore
	notifier StatusNotifier
}

func NewPaystackWebhookHandler(cfg *config.Config, invoices InvoiceStore, subs SubscriptionStore, events EventStore, notifier StatusNotifier) *PaystackWebhookHandler {
	return &PaystackWebhookHandler{cfg: cfg, invoices: invoices, subs: subs, events: events, notifier: notifier}
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
		Currency  string `json:"currency"`
		Metadata  struct {
			InvoiceID string `json:"invoiceId"`
			UserID    string `json:"userId"`
			Plan      string `json:"plan"`
		} `json:"metadata"`
	} `json:"data"`
}

// Handle verifies the signature, then marks the referenced invoice paid on
// charge.success. Unknown references and replays are acked with 200 so
// Paystack stops redelivering.
func (h *PaystackWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !h.verifySignature(body, c.GetHeader("x-paystack-signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var evt paystackEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if evt.Event != "charge.success" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	inv := h.findInvoice(evt)
	if inv == nil {
		log.Printf("[Paystack] webhook for unknown reference=%s", evt.Data.Reference)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if inv.Status == domain.InvoiceStatusPaid {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// The charge must match what the invoice sells; the client chose the
	// checkout amount, so a signed event alone proves nothing about it.
	expected, _ := checkout.MinorUnits(inv.Price)
	if evt.Data.Amount != expected || !strings.EqualFold(evt.Data.Currency, inv.Currency) {
		log.Printf("[Paystack] webhook amount mismatch invoice=%s got=%d %s want=%d %s",
			inv.ID, evt.Data.Amount, evt.Data.Currency, expected, inv.Currency)
		_ = h.events.Create(&models.PaymentEvent{
			InvoiceID: inv.ID,
			Reference: evt.Data.Reference,
			Action:    "webhook_amount_mismatch",
			Detail:    fmt.Sprintf("got %d %s, want %d %s", evt.Data.Amount, evt.Data.Currency, expected, inv.Currency),
			IP:        c.ClientIP(),
		})
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.invoices.MarkPaid(inv, evt.Data.Reference); err != nil {
		log.Printf("[Paystack] webhook mark paid failed invoice=%s: %v", inv.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if plan, ok := domain.PlanByCode(inv.Plan); ok {
		if _, err := h.subs.Activate(inv.UserID, plan.Code, inv.ID, plan.Interval); err != nil {
			log.Printf("[Paystack] webhook activate failed invoice=%s: %v", inv.ID, err)
		}
	}
	_ = h.events.Create(&models.PaymentEvent{
		InvoiceID: inv.ID,
		Reference: evt.Data.Reference,
		Action:    "webhook_charge_success",
		Detail:    evt.Data.Status,
		IP:        c.ClientIP(),
	})
	if h.notifier != nil {
		h.notifier.NotifyInvoiceStatus(inv.UserID, inv.ID, inv.Status)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaystackWebhookHandler) findInvoice(evt paystackEvent) *models.Invoice {
	if id := evt.Data.Metadata.InvoiceID; id != "" {
		if inv, err := h.invoices.GetByID(id); err == nil && inv != nil {
			return inv
		}
	}
	if ref := evt.Data.Reference; ref != "" {
		if inv, err := h.invoices.GetByReference(ref); err == nil && inv != nil {
			return inv
		}
	}
	return nil
}

// Paystack signs the raw body with HMAC-SHA512 under the secret key.
func (h *PaystackWebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.cfg.Paystack.SecretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.cfg.Paystack.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
