package booking_controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumehall/booking/clients"
	"github.com/lumehall/booking/config"
	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/booking_models"
	"github.com/lumehall/booking/models/catalog_models"
	"github.com/lumehall/booking/models/inventory_models"
	"github.com/lumehall/booking/models/promo_models"
	"github.com/lumehall/booking/utils"
	"github.com/lumehall/booking/utils/bookingdate"
	"github.com/lumehall/booking/utils/reference"
)

const maxReferenceAttempts = 3

// BookingController orchestrates reservation creation: availability,
// server-side pricing, promo application and persistence run as one
// transaction, then a payment intent is opened with the provider.
type BookingController struct {
	DB       *pgxpool.Pool
	Payments clients.PaymentClientWrapper
}

// NewBookingController creates a new BookingController.
func NewBookingController(db *pgxpool.Pool, payments clients.PaymentClientWrapper) *BookingController {
	return &BookingController{DB: db, Payments: payments}
}

type BookingItemRequest struct {
	ItemRef  string `json:"itemRef" binding:"required,uuid"`
	Kind     string `json:"kind" binding:"required,oneof=package extra"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type CustomerRequest struct {
	IsGuest   bool   `json:"isGuest"`
	Name      string `json:"name"`
	Email     string `json:"email" binding:"omitempty,email"`
	PromoCode string `json:"promoCode"`
}

type CreateBookingRequest struct {
	Date     string               `json:"date" binding:"required"`
	Items    []BookingItemRequest `json:"items" binding:"required,min=1,dive"`
	Customer CustomerRequest      `json:"customer" binding:"required"`
}

// CreateBooking handles POST /bookings.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ReasonInvalidDate, "error": "invalid request payload"})
		return
	}

	eventDate, err := bookingdate.ParseDate(req.Date)
	if err != nil {
		respondError(c, utils.NewValidationError(utils.ReasonInvalidDate, "date must be YYYY-MM-DD"))
		return
	}

	customerID, guestName, guestEmail, err := bc.resolveCustomer(c, req.Customer)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	now := time.Now()
	rules := inventory_models.DefaultRules()

	tx, err := bc.DB.Begin(ctx)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to begin booking transaction: %v", err)
		respondError(c, err)
		return
	}
	defer tx.Rollback(ctx)

	// Resolve catalog items up front so later failures can name them.
	lines := make([]inventory_models.Line, 0, len(req.Items))
	items := make([]*catalog_models.Item, 0, len(req.Items))
	for _, ir := range req.Items {
		itemID, _ := uuid.Parse(ir.ItemRef) // shape validated by binding
		item, err := catalog_models.GetItem(ctx, tx, ir.Kind, itemID)
		if err != nil {
			if errors.Is(err, catalog_models.ErrItemNotFound) {
				respondError(c, utils.NewNotFoundError(utils.ReasonItemNotFound, "unknown "+ir.Kind+" "+ir.ItemRef))
				return
			}
			respondError(c, err)
			return
		}
		if !item.IsActive {
			respondError(c, utils.NewValidationError(utils.ReasonItemInactive, item.Name+" is not currently offered"))
			return
		}
		items = append(items, item)
		lines = append(lines, inventory_models.Line{
			Kind:     item.Kind,
			ItemID:   item.ID,
			ItemName: item.Name,
			Quantity: ir.Quantity,
		})
	}

	if err := inventory_models.CheckAndReserve(ctx, tx, eventDate, lines, now, rules); err != nil {
		respondError(c, err)
		return
	}

	// Prices are always recomputed server-side; a client-supplied price is
	// never consulted.
	bookingItems := make([]booking_models.BookingItem, 0, len(lines))
	var subtotal int64
	for i, line := range lines {
		price, err := catalog_models.ResolvePrice(ctx, tx, line.Kind, line.ItemID, eventDate)
		if err != nil {
			respondError(c, err)
			return
		}
		if !price.HasPricing {
			respondError(c, utils.NewValidationError(utils.ReasonNoPricingAvailable,
				"no pricing available for "+items[i].Name+" on "+req.Date))
			return
		}
		lineTotal := int64(line.Quantity) * price.Price
		subtotal += lineTotal
		bookingItems = append(bookingItems, booking_models.BookingItem{
			ItemKind:   line.Kind,
			ItemID:     line.ItemID,
			ItemName:   line.ItemName,
			Quantity:   line.Quantity,
			UnitPrice:  price.Price,
			TotalPrice: lineTotal,
		})
	}

	var discount int64
	var promoID *uuid.UUID
	if req.Customer.PromoCode != "" {
		promo, amount, err := promo_models.Validate(ctx, tx, req.Customer.PromoCode, subtotal, now)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := promo_models.ConsumeUsage(ctx, tx, promo.ID); err != nil {
			respondError(c, err)
			return
		}
		discount = amount
		promoID = &promo.ID
	}

	booking, err := bc.persistWithReference(ctx, tx, eventDate, subtotal, discount, customerID, guestName, guestEmail, promoID, bookingItems)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		logger.ErrorLogger.Errorf("Failed to commit booking %s: %v", booking.Reference, err)
		respondError(c, err)
		return
	}
	logger.InfoLogger.Infof("Booking %s created for %s (%d items, final %d %s)",
		booking.Reference, req.Date, len(booking.Items), booking.FinalAmount, booking.Currency)

	// The reservation is committed; a provider failure here leaves the
	// booking pending with no intent and the client retries payment setup.
	var intentID string
	if bc.Payments != nil {
		intentID, err = bc.Payments.CreatePaymentIntent(booking.FinalAmount, booking.Currency, booking.Reference,
			map[string]interface{}{"booking_id": booking.ID.String()})
		if err != nil {
			logger.WarnLogger.Warnf("Payment intent creation failed for booking %s: %v", booking.Reference, err)
		} else if err := booking_models.SetPaymentIntent(ctx, bc.DB, booking.ID, intentID); err != nil {
			logger.ErrorLogger.Errorf("Failed to store payment intent %s for booking %s: %v", intentID, booking.Reference, err)
		}
	}

	resp := gin.H{
		"bookingId":      booking.ID,
		"reference":      booking.Reference,
		"totalAmount":    booking.TotalAmount,
		"discountAmount": booking.DiscountAmount,
		"finalAmount":    booking.FinalAmount,
		"currency":       booking.Currency,
		"items":          booking.Items,
	}
	if intentID != "" {
		resp["paymentIntentId"] = intentID
	}
	c.JSON(http.StatusCreated, resp)
}

// resolveCustomer validates the customer variant: guests need a name and
// email, registered customers need the identity the auth middleware put in
// the context.
func (bc *BookingController) resolveCustomer(c *gin.Context, customer CustomerRequest) (*uuid.UUID, *string, *string, error) {
	if customer.IsGuest {
		if customer.Name == "" || customer.Email == "" {
			return nil, nil, nil, utils.NewValidationError(utils.ReasonInvalidCustomer, ErrInvalidCustomer.Error())
		}
		return nil, &customer.Name, &customer.Email, nil
	}

	raw, exists := c.Get("customer_id")
	if !exists {
		return nil, nil, nil, utils.NewValidationError(utils.ReasonInvalidCustomer, ErrMissingIdentity.Error())
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return nil, nil, nil, utils.NewValidationError(utils.ReasonInvalidCustomer, ErrMissingIdentity.Error())
	}
	return &id, nil, nil, nil
}

// persistWithReference inserts the booking under a fresh reference,
// regenerating on a reference collision. Each attempt runs in a savepoint
// so a failed insert does not poison the outer transaction.
func (bc *BookingController) persistWithReference(
	ctx context.Context,
	tx pgx.Tx,
	eventDate time.Time,
	subtotal, discount int64,
	customerID *uuid.UUID,
	guestName, guestEmail *string,
	promoID *uuid.UUID,
	items []booking_models.BookingItem,
) (*booking_models.Booking, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := reference.Generate(config.ReferencePrefix(), time.Now())
		if err != nil {
			return nil, err
		}

		booking, err := booking_models.NewBooking(ref, eventDate, subtotal, discount, config.Currency())
		if err != nil {
			return nil, err
		}
		booking.CustomerID = customerID
		booking.GuestName = guestName
		booking.GuestEmail = guestEmail
		booking.PromoCodeID = promoID
		booking.Items = items

		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, err
		}
		if err := booking_models.CreateBookingTx(ctx, sp, booking); err != nil {
			_ = sp.Rollback(ctx)
			if booking_models.IsReferenceConflict(err) {
				logger.WarnLogger.Warnf("Booking reference collision on %s, regenerating", ref)
				continue
			}
			return nil, err
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, err
		}
		return booking, nil
	}
	return nil, ErrReferenceExhausted
}

// GetBooking handles GET /bookings/:id.
func (bc *BookingController) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ReasonBookingNotFound, "error": "invalid booking id"})
		return
	}

	booking, err := booking_models.GetBookingByID(c.Request.Context(), bc.DB, id)
	if err != nil {
		if errors.Is(err, booking_models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": utils.ReasonBookingNotFound, "error": "booking not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListBookings handles GET /bookings for the admin surface: paginated,
// optionally filtered by status.
func (bc *BookingController) ListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	bookings, total, err := booking_models.GetAllBookings(c.Request.Context(), bc.DB, c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// respondError maps a ReasonError to its status and stable code and hides
// everything else behind a generic persistence failure.
func respondError(c *gin.Context, err error) {
	var reasonErr *utils.ReasonError
	if errors.As(err, &reasonErr) {
		c.JSON(reasonErr.Status, gin.H{"code": reasonErr.Code, "error": reasonErr.Message})
		return
	}
	logger.ErrorLogger.Errorf("Booking request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, please try again later"})
}
