package promo_controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/promo_models"
	"github.com/lumehall/booking/utils"
	"github.com/lumehall/booking/utils/bookingdate"
)

// PromoController validates discount codes for a prospective booking. It
// only reports; usage counts are consumed inside the booking transaction.
type PromoController struct {
	DB *pgxpool.Pool
}

// NewPromoController creates a new PromoController.
func NewPromoController(db *pgxpool.Pool) *PromoController {
	return &PromoController{DB: db}
}

type ValidatePromoRequest struct {
	Code        string `json:"code" binding:"required"`
	Subtotal    int64  `json:"subtotal" binding:"required,gt=0"`
	BookingDate string `json:"bookingDate" binding:"required"`
}

// ValidatePromo handles POST /promo/validate.
func (pc *PromoController) ValidatePromo(c *gin.Context) {
	var req ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ReasonInvalidPromoCode, "error": "invalid request payload"})
		return
	}

	if _, err := bookingdate.ParseDate(req.BookingDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ReasonInvalidDate, "error": "bookingDate must be YYYY-MM-DD"})
		return
	}

	promo, discount, err := promo_models.Validate(c.Request.Context(), pc.DB, req.Code, req.Subtotal, time.Now())
	if err != nil {
		var reasonErr *utils.ReasonError
		if errors.As(err, &reasonErr) {
			c.JSON(reasonErr.Status, gin.H{"valid": false, "code": reasonErr.Code, "error": reasonErr.Message})
			return
		}
		logger.ErrorLogger.Errorf("Promo validation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, please try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":          true,
		"discountType":   promo.DiscountType,
		"discountValue":  promo.DiscountValue,
		"discountAmount": discount,
	})
}
