package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumehall/booking/config/db"
	"github.com/lumehall/booking/controllers/promo_controller"
	middleware "github.com/lumehall/booking/middlewares"
)

func RegisterPromoRoutes(router *gin.Engine) {
	promoController := promo_controller.NewPromoController(db.DB)

	// Rate limited so codes cannot be enumerated by brute force.
	router.POST("/promo/validate",
		middleware.NewRateLimiter("10-M", "validatePromo"),
		promoController.ValidatePromo,
	)
}
