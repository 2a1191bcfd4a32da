package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

var (
	ErrGiftNotFound = errors.New("gift not found")
)

// giftColumns is the insert column order, matching scanGift
var giftColumns = []string{
	"gift_id", "name", "description", "start_date", "end_date",
	"donation_amount", "stock_quantity", "capacity_weight", "provider_info",
	"shipping_estimate", "notes", "is_public", "temp_shipping", "cold_shipping",
	"frozen_shipping", "regular_delivery", "date_specified_delivery",
	"split_delivery", "simple_packaging", "noshi_support", "municipality_code",
	"expiry_storage", "allergens", "allergen_notes", "category", "linked_service",
}

const giftSelectColumns = `
	id, gift_id, name, description, start_date, end_date,
	donation_amount, stock_quantity, capacity_weight, provider_info,
	shipping_estimate, notes, is_public, temp_shipping, cold_shipping,
	frozen_shipping, regular_delivery, date_specified_delivery,
	split_delivery, simple_packaging, noshi_support, municipality_code,
	expiry_storage, allergens, allergen_notes, category, linked_service,
	created_at`

// DeleteAllGifts removes the entire catalog. Called at the start of every
// replace-all ingestion.
func (db *DB) DeleteAllGifts(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM return_gifts`); err != nil {
		return fmt.Errorf("failed to delete catalog: %w", err)
	}
	return nil
}

// BulkInsertGifts inserts one ingestion batch using the COPY protocol
func (db *DB) BulkInsertGifts(ctx context.Context, gifts []models.Gift) error {
	if len(gifts) == 0 {
		return nil
	}

	_, err := db.Pool.CopyFrom(
		ctx,
		pgx.Identifier{"return_gifts"},
		giftColumns,
		pgx.CopyFromSlice(len(gifts), func(i int) ([]any, error) {
			g := gifts[i]
			return []any{
				g.GiftID, g.Name, g.Description, g.StartDate, g.EndDate,
				g.DonationAmount, g.StockQuantity, g.CapacityWeight, g.ProviderInfo,
				g.ShippingEstimate, g.Notes, g.IsPublic, g.TempShipping, g.ColdShipping,
				g.FrozenShipping, g.RegularDelivery, g.DateSpecifiedDelivery,
				g.SplitDelivery, g.SimplePackaging, g.NoshiSupport, g.MunicipalityCode,
				g.ExpiryStorage, g.Allergens, g.AllergenNotes, g.Category, g.LinkedService,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert gifts: %w", err)
	}

	return nil
}

// QueryCandidates returns public, in-stock gifts with a donation amount in
// [minAmount, maxAmount], in storage order. Category, allergy and shipping
// constraints are applied in-process by the services package.
func (db *DB) QueryCandidates(ctx context.Context, minAmount, maxAmount int) ([]models.Gift, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+giftSelectColumns+`
		FROM return_gifts
		WHERE is_public = TRUE
		  AND donation_amount >= $1
		  AND donation_amount <= $2
		  AND (stock_quantity IS NULL OR stock_quantity > 0)
		ORDER BY id
	`, minAmount, maxAmount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGifts(rows)
}

// ListGifts returns a paginated slice of the catalog plus the total count
func (db *DB) ListGifts(ctx context.Context, limit, offset int) ([]models.Gift, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM return_gifts`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+giftSelectColumns+`
		FROM return_gifts
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	gifts, err := scanGifts(rows)
	if err != nil {
		return nil, 0, err
	}

	return gifts, total, nil
}

// GetGiftByGiftID retrieves one gift by its external identifier
func (db *DB) GetGiftByGiftID(ctx context.Context, giftID string) (*models.Gift, error) {
	g := models.Gift{}
	err := db.Pool.QueryRow(ctx, `
		SELECT `+giftSelectColumns+`
		FROM return_gifts
		WHERE gift_id = $1
		ORDER BY id
		LIMIT 1
	`, giftID).Scan(
		&g.ID, &g.GiftID, &g.Name, &g.Description, &g.StartDate, &g.EndDate,
		&g.DonationAmount, &g.StockQuantity, &g.CapacityWeight, &g.ProviderInfo,
		&g.ShippingEstimate, &g.Notes, &g.IsPublic, &g.TempShipping, &g.ColdShipping,
		&g.FrozenShipping, &g.RegularDelivery, &g.DateSpecifiedDelivery,
		&g.SplitDelivery, &g.SimplePackaging, &g.NoshiSupport, &g.MunicipalityCode,
		&g.ExpiryStorage, &g.Allergens, &g.AllergenNotes, &g.Category, &g.LinkedService,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGiftNotFound
		}
		return nil, err
	}

	return &g, nil
}

// GetGiftStats returns aggregate statistics for the catalog
func (db *DB) GetGiftStats(ctx context.Context) (*models.GiftStats, error) {
	var totalGifts, publicGifts, inStockGifts, categoryCount int

	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) as total_gifts,
			COUNT(*) FILTER (WHERE is_public = TRUE) as public_gifts,
			COUNT(*) FILTER (WHERE stock_quantity IS NULL OR stock_quantity > 0) as in_stock_gifts,
			COUNT(DISTINCT category) FILTER (WHERE category <> '') as category_count
		FROM return_gifts
	`).Scan(&totalGifts, &publicGifts, &inStockGifts, &categoryCount)
	if err != nil {
		return nil, err
	}

	return &models.GiftStats{
		TotalGifts:    totalGifts,
		PublicGifts:   publicGifts,
		InStockGifts:  inStockGifts,
		CategoryCount: categoryCount,
	}, nil
}

func scanGifts(rows pgx.Rows) ([]models.Gift, error) {
	var gifts []models.Gift
	for rows.Next() {
		g := models.Gift{}
		err := rows.Scan(
			&g.ID, &g.GiftID, &g.Name, &g.Description, &g.StartDate, &g.EndDate,
			&g.DonationAmount, &g.StockQuantity, &g.CapacityWeight, &g.ProviderInfo,
			&g.ShippingEstimate, &g.Notes, &g.IsPublic, &g.TempShipping, &g.ColdShipping,
			&g.FrozenShipping, &g.RegularDelivery, &g.DateSpecifiedDelivery,
			&g.SplitDelivery, &g.SimplePackaging, &g.NoshiSupport, &g.MunicipalityCode,
			&g.ExpiryStorage, &g.Allergens, &g.AllergenNotes, &g.Category, &g.LinkedService,
			&g.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		gifts = append(gifts, g)
	}

	return gifts, rows.Err()
}
