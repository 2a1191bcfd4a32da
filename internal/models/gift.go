package models

import (
	"time"
)

// Gift is one donation-reward product (return gift). The catalog is rebuilt
// from scratch on every CSV upload; rows are never updated in place.
type Gift struct {
	ID                    int        `json:"id,omitempty"`
	GiftID                string     `json:"gift_id"`
	Name                  string     `json:"name"`
	Description           string     `json:"description"`
	StartDate             *time.Time `json:"start_date,omitempty"`
	EndDate               *time.Time `json:"end_date,omitempty"`
	DonationAmount        int        `json:"donation_amount"`
	StockQuantity         *float64   `json:"stock_quantity,omitempty"`
	CapacityWeight        string     `json:"capacity_weight"`
	ProviderInfo          string     `json:"provider_info"`
	ShippingEstimate      string     `json:"shipping_estimate"`
	Notes                 string     `json:"notes"`
	IsPublic              bool       `json:"is_public"`
	TempShipping          bool       `json:"temp_shipping"`
	ColdShipping          bool       `json:"cold_shipping"`
	FrozenShipping        bool       `json:"frozen_shipping"`
	RegularDelivery       bool       `json:"regular_delivery"`
	DateSpecifiedDelivery bool       `json:"date_specified_delivery"`
	SplitDelivery         bool       `json:"split_delivery"`
	SimplePackaging       bool       `json:"simple_packaging"`
	NoshiSupport          bool       `json:"noshi_support"`
	MunicipalityCode      string     `json:"municipality_code"`
	ExpiryStorage         string     `json:"expiry_storage"`
	Allergens             string     `json:"allergens"`
	AllergenNotes         string     `json:"allergen_notes"`
	Category              string     `json:"category"`
	LinkedService         string     `json:"linked_service"`
	CreatedAt             time.Time  `json:"created_at,omitempty"`
}

// InStock reports whether the gift can still be offered. A nil stock quantity
// means unlimited or unknown and counts as in stock.
func (g *Gift) InStock() bool {
	return g.StockQuantity == nil || *g.StockQuantity > 0
}

// GiftStats holds aggregate catalog statistics
type GiftStats struct {
	TotalGifts    int `json:"total_gifts"`
	PublicGifts   int `json:"public_gifts"`
	InStockGifts  int `json:"in_stock_gifts"`
	CategoryCount int `json:"category_count"`
}
