package pricing_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/catalog_models"
	"github.com/lumehall/booking/utils"
	"github.com/lumehall/booking/utils/bookingdate"
)

// PricingController serves the per-date price list: the dated override when
// one exists, the item default otherwise.
type PricingController struct {
	DB *pgxpool.Pool
}

// NewPricingController creates a new PricingController.
func NewPricingController(db *pgxpool.Pool) *PricingController {
	return &PricingController{DB: db}
}

type itemPrice struct {
	ItemRef    string `json:"itemRef"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	IsOverride bool   `json:"isOverride"`
	HasPricing bool   `json:"hasPricing"`
}

// GetPricing handles GET /pricing?date=YYYY-MM-DD.
func (pc *PricingController) GetPricing(c *gin.Context) {
	date, err := bookingdate.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ReasonInvalidDate, "error": "date must be YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	catalogItems, err := catalog_models.ListActiveItems(ctx, pc.DB)
	if err != nil {
		logger.ErrorLogger.Errorf("Pricing query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, please try again later"})
		return
	}

	prices := make([]itemPrice, 0, len(catalogItems))
	for _, item := range catalogItems {
		resolved, err := catalog_models.ResolvePrice(ctx, pc.DB, item.Kind, item.ID, date)
		if err != nil {
			logger.ErrorLogger.Errorf("Pricing query failed for %s %s: %v", item.Kind, item.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, please try again later"})
			return
		}
		prices = append(prices, itemPrice{
			ItemRef:    item.ID.String(),
			Kind:       item.Kind,
			Name:       item.Name,
			Price:      resolved.Price,
			IsOverride: resolved.IsOverride,
			HasPricing: resolved.HasPricing,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      date.Format(bookingdate.DateLayout),
		"dayOfWeek": date.Weekday().String(),
		"items":     prices,
	})
}
