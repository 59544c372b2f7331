package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumehall/booking/config/db"
	"github.com/lumehall/booking/controllers/availability_controller"
)

func RegisterAvailabilityRoutes(router *gin.Engine) {
	availabilityController := availability_controller.NewAvailabilityController(db.DB)

	router.GET("/availability", availabilityController.GetAvailability)
}
