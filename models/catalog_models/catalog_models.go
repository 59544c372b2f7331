package catalog_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumehall/booking/logger"
	"github.com/lumehall/booking/models/shared_models"
)

// Item is a bookable catalog entry: an event package or an add-on extra.
// Packages and extras live in separate tables but share this shape.
type Item struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	Name         string    `json:"name"`
	IsActive     bool      `json:"is_active"`
	DefaultPrice *int64    `json:"default_price,omitempty"`
	MaxGuests    *int      `json:"max_guests,omitempty"`
}

var ErrItemNotFound = errors.New("catalog item not found")

// GetItem fetches a package or extra by kind and id.
func GetItem(ctx context.Context, q shared_models.Querier, kind string, itemID uuid.UUID) (*Item, error) {
	var query string
	switch kind {
	case shared_models.ItemKindPackage:
		query = `SELECT id, name, is_active, default_price, max_guests FROM packages WHERE id = $1`
	case shared_models.ItemKindExtra:
		query = `SELECT id, name, is_active, default_price, NULL::int FROM extras WHERE id = $1`
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}

	item := &Item{Kind: kind}
	err := q.QueryRow(ctx, query, itemID).Scan(
		&item.ID, &item.Name, &item.IsActive, &item.DefaultPrice, &item.MaxGuests,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch %s %s: %v", kind, itemID, err)
		return nil, fmt.Errorf("database error fetching catalog item: %w", err)
	}
	return item, nil
}

// ListActiveItems returns all active packages and extras, packages first.
// The availability and pricing endpoints report on this set.
func ListActiveItems(ctx context.Context, q shared_models.Querier) ([]Item, error) {
	query := `
		SELECT id, 'package' AS kind, name, is_active, default_price, max_guests
		FROM packages WHERE is_active = TRUE
		UNION ALL
		SELECT id, 'extra', name, is_active, default_price, NULL::int
		FROM extras WHERE is_active = TRUE
		ORDER BY kind, name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list catalog items: %v", err)
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Kind, &item.Name, &item.IsActive, &item.DefaultPrice, &item.MaxGuests); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ResolvedPrice is the authoritative per-item price for a date.
type ResolvedPrice struct {
	Price      int64 `json:"price"`
	IsOverride bool  `json:"is_override"`
	// HasPricing is false when the item has neither a dated override nor a
	// default price. Such items are unbookable, not free.
	HasPricing bool `json:"has_pricing"`
}

// ResolvePrice looks up the dated pricing override for (item, date) and
// falls back to the item's default price. Prices are in the currency's
// minor unit and always resolved server-side; client-supplied prices are
// never trusted.
func ResolvePrice(ctx context.Context, q shared_models.Querier, kind string, itemID uuid.UUID, date time.Time) (ResolvedPrice, error) {
	var override int64
	err := q.QueryRow(ctx,
		`SELECT price FROM dated_pricing WHERE item_kind = $1 AND item_id = $2 AND event_date = $3`,
		kind, itemID, date).Scan(&override)
	if err == nil {
		return ResolvedPrice{Price: override, IsOverride: true, HasPricing: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.ErrorLogger.Errorf("Failed to fetch dated pricing for %s %s on %s: %v",
			kind, itemID, date.Format("2006-01-02"), err)
		return ResolvedPrice{}, fmt.Errorf("database error fetching dated pricing: %w", err)
	}

	item, err := GetItem(ctx, q, kind, itemID)
	if err != nil {
		return ResolvedPrice{}, err
	}
	if item.DefaultPrice == nil {
		return ResolvedPrice{Price: 0, IsOverride: false, HasPricing: false}, nil
	}
	return ResolvedPrice{Price: *item.DefaultPrice, IsOverride: false, HasPricing: true}, nil
}
