package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/lumehall/booking/clients"
	"github.com/lumehall/booking/config/db"
	"github.com/lumehall/booking/controllers/booking_controller"
	middleware "github.com/lumehall/booking/middlewares"
	"github.com/lumehall/booking/middlewares/auth"
)

func RegisterBookingRoutes(router *gin.Engine, payments clients.PaymentClientWrapper) {
	bookingController := booking_controller.NewBookingController(db.DB, payments)

	// Reservation creation serves both guests and registered customers;
	// the optional auth only supplies the identity when a token is sent.
	router.POST("/bookings",
		middleware.NewRateLimiter("20-M", "createBooking"),
		auth.OptionalAuth(),
		bookingController.CreateBooking,
	)

	// Admin read surface.
	protected := router.Group("/")
	protected.Use(auth.RequireAuth())
	{
		protected.GET("/bookings", bookingController.ListBookings)
		protected.GET("/bookings/:id", bookingController.GetBooking)
	}
}
