package availability_controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/catalog_models"
	"github.com/lumehall/booking/models/inventory_models"
	"github.com/lumehall/booking/utils"
	"github.com/lumehall/booking/utils/bookingdate"
)

// AvailabilityController serves the read-only availability report. It never
// mutates inventory; reservation happens only inside the booking workflow's
// transaction.
type AvailabilityController struct {
	DB *pgxpool.Pool
}

// NewAvailabilityController creates a new AvailabilityController.
func NewAvailabilityController(db *pgxpool.Pool) *AvailabilityController {
	return &AvailabilityController{DB: db}
}

// GetAvailability handles GET /availability?date=YYYY-MM-DD.
func (ac *AvailabilityController) GetAvailability(c *gin.Context) {
	date, err := bookingdate.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ReasonInvalidDate, "error": "date must be YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	catalogItems, err := catalog_models.ListActiveItems(ctx, ac.DB)
	if err != nil {
		logger.ErrorLogger.Errorf("Availability query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, please try again later"})
		return
	}

	items := make([]inventory_models.Item, 0, len(catalogItems))
	for _, ci := range catalogItems {
		items = append(items, inventory_models.Item{ID: ci.ID, Kind: ci.Kind, Name: ci.Name})
	}

	report, isBlackout, err := inventory_models.QueryAvailability(ctx, ac.DB, date, items)
	if err != nil {
		var reasonErr *utils.ReasonError
		if errors.As(err, &reasonErr) {
			c.JSON(reasonErr.Status, gin.H{"code": reasonErr.Code, "error": reasonErr.Message})
			return
		}
		logger.ErrorLogger.Errorf("Availability query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, please try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":       date.Format(bookingdate.DateLayout),
		"isBlackout": isBlackout,
		"items":      report,
	})
}
