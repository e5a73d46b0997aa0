package router

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"velt/config"
	"velt/internal/handler"
	"velt/internal/middleware"
	"velt/internal/repository"
	"velt/internal/ws"
	"velt/pkg/paystack"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	invoiceRepo := repository.NewInvoiceRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	eventRepo := repository.NewPaymentEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	billingHub := ws.NewHub()

	if !cfg.Paystack.PublicKeyValid() {
		log.Printf("[Billing] PAYSTACK_PUBLIC_KEY missing or malformed; checkouts will be rejected client-side")
	}
	paystackClient := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey)

	billingHandler := handler.NewBillingHandler(cfg, invoiceRepo, subscriptionRepo, eventRepo, userRepo, paystackClient, billingHub)
	webhookHandler := handler.NewPaystackWebhookHandler(cfg, invoiceRepo, subscriptionRepo, eventRepo, billingHub)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		billing := api.Group("/billing")
		billing.Use(authMw)
		{
			billing.POST("/init", billingHandler.Init)
			billing.POST("/verify", billingHandler.Verify)
			billing.POST("/mark-paid", billingHandler.MarkPaid)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/subscription", billingHandler.SubscriptionStatus)
		}

		api.POST("/webhooks/paystack", webhookHandler.Handle)
	}

	r.GET("/ws/billing", ws.UpgradeBillingWS(&cfg.JWT, billingHub))

	return r
}
