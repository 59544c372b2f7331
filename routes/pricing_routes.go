package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumehall/booking/config/db"
	"github.com/lumehall/booking/controllers/pricing_controller"
)

func RegisterPricingRoutes(router *gin.Engine) {
	pricingController := pricing_controller.NewPricingController(db.DB)

	router.GET("/pricing", pricingController.GetPricing)
}
