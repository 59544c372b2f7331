package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumehall/booking/config/db"
	"github.com/lumehall/booking/controllers/payment_webhook_controller"
)

func RegisterWebhookRoutes(router *gin.Engine) {
	webhookController := payment_webhook_controller.NewPaymentWebhookController(db.DB)

	// No rate limit here: the provider retries with its own backoff and
	// authenticity is enforced by the signature check.
	router.POST("/webhooks/payment", webhookController.HandleWebhook)
}
