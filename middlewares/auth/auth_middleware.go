package auth

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/lumehall/booking/logger"
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.WarnLogger.Warn("JWT_SECRET environment variable not set")
		return []byte("default-insecure-secret-only-for-development")
	}
	return []byte(secret)
}

// OptionalAuth extracts a registered customer's identity from a Bearer
// token when one is present and abandons the request on a bad token. The
// booking route stays open to guests, so a missing header just proceeds
// without an identity; the workflow then requires the guest fields.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "malformed Authorization header"})
			return
		}

		customerID, err := parseCustomerID(tokenString)
		if err != nil {
			logger.WarnLogger.Warnf("Rejected booking token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "invalid token"})
			return
		}

		c.Set("customer_id", customerID)
		c.Next()
	}
}

// RequireAuth is OptionalAuth for routes that never serve guests (the
// admin listing surface).
func RequireAuth() gin.HandlerFunc {
	optional := OptionalAuth()
	return func(c *gin.Context) {
		optional(c)
		if c.IsAborted() {
			return
		}
		if _, exists := c.Get("customer_id"); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "error": "authentication required"})
		}
	}
}

// parseCustomerID validates the token and returns its subject. The session
// layer that issues these tokens is external; the core only consumes the
// identity shape.
func parseCustomerID(tokenString string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
	)

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret(), nil
	})
	if err != nil {
		return "", fmt.Errorf("token parse failed: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token subject missing")
	}
	return sub, nil
}
