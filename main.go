package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumehall/booking/clients"
	"github.com/lumehall/booking/config"
	"github.com/lumehall/booking/config/db"
	redisdb "github.com/lumehall/booking/config/redis"
	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/middlewares/cors"
	"github.com/lumehall/booking/routes"
)

func init() {
	logger.InitLoggers()
	config.LoadEnv()
}

func main() {
	db.Connect()
	defer db.Close()
	defer redisdb.CloseRedis()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	payments, err := clients.NewPaymentClient()
	if err != nil {
		// Reservations still work without the provider; payment intents
		// just won't be opened until it is configured.
		logger.WarnLogger.Warnf("Payment provider not configured: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.CorsMiddleware())

	var paymentsClient clients.PaymentClientWrapper
	if payments != nil {
		paymentsClient = payments
	}
	routes.RegisterBookingRoutes(r, paymentsClient)
	routes.RegisterAvailabilityRoutes(r)
	routes.RegisterPricingRoutes(r)
	routes.RegisterPromoRoutes(r)
	routes.RegisterWebhookRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok from booking service"})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.InfoLogger.Infof("Booking service listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorLogger.Errorf("Server failed to listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoLogger.Info("Shutting down booking service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.InfoLogger.Info("Booking service exited gracefully")
}
