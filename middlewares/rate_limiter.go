package middleware

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	redisdb "github.com/lumehall/booking/config/redis"
	"github.com/lumehall/booking/logger"
)

// NewRateLimiter builds a per-route rate limiter from a limiter format
// string such as "10-M" (10 per minute). The store is Redis-backed when
// Redis is configured and in-memory otherwise, so a missing Redis never
// takes the API down with it.
func NewRateLimiter(formatted, routeID string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		// A bad literal is a programming error; fail loudly at startup.
		panic(fmt.Sprintf("invalid rate %q for route %s: %v", formatted, routeID, err))
	}

	store := newStore(routeID)
	return ginmiddleware.NewMiddleware(limiter.New(store, rate))
}

func newStore(routeID string) limiter.Store {
	rdb, err := redisdb.GetRedisClient(context.Background())
	if err != nil {
		logger.WarnLogger.Warnf("Rate limiter for %s falling back to memory store: %v", routeID, err)
		return memorystore.NewStore()
	}

	store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:   fmt.Sprintf("rate_limiter:%s", routeID),
		MaxRetry: 3,
	})
	if err != nil {
		logger.WarnLogger.Warnf("Rate limiter for %s falling back to memory store: %v", routeID, err)
		return memorystore.NewStore()
	}
	return store
}
