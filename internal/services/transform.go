package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

// Column names of the municipality CSV export. The header names are the
// contract; unknown columns are ignored.
const (
	ColGiftID           = "返礼品ID"
	ColName             = "返礼品名"
	ColDescription      = "返礼品説明"
	ColStartDate        = "提供開始日時"
	ColEndDate          = "提供終了日時"
	ColDonationAmount   = "寄付金額"
	ColStockQuantity    = "在庫数"
	ColCapacityWeight   = "容量・重さ"
	ColProviderInfo     = "提供企業情報"
	ColShippingEstimate = "発送目安"
	ColNotes            = "注意事項"
	ColIsPublic         = "公開フラグ"
	ColTempShipping     = "常温配送対応フラグ"
	ColColdShipping     = "冷蔵配送対応フラグ"
	ColFrozenShipping   = "冷凍配送対応フラグ"
	ColRegularDelivery  = "定期配送対応フラグ"
	ColDateSpecified    = "日付指定配送対応フラグ"
	ColSplitDelivery    = "分割配送対応フラグ"
	ColSimplePackaging  = "簡易包装フラグ"
	ColNoshiSupport     = "のし対応フラグ"
	ColMunicipalityCode = "自治体管理番号"
	ColExpiryStorage    = "賞味期限・保存"
	ColAllergens        = "アレルギー"
	ColAllergenNotes    = "アレルギー備考"
	ColCategory         = "カテゴリ"
	ColLinkedService    = "連携サービス"
)

// truthyFlag is the single marker that sets a capability flag; every other
// value, including empty, means false.
const truthyFlag = "1"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// RowToGift maps one raw CSV row to a Gift. Numeric fields fall back to their
// documented defaults on parse failure (0 for the donation amount, nil for
// stock); a present but unparsable date is the only error case. The
// required-field check on gift ID and name happens upstream in the ingester.
func RowToGift(row map[string]string) (models.Gift, error) {
	startDate, err := parseDate(row[ColStartDate])
	if err != nil {
		return models.Gift{}, fmt.Errorf("column %s: %w", ColStartDate, err)
	}
	endDate, err := parseDate(row[ColEndDate])
	if err != nil {
		return models.Gift{}, fmt.Errorf("column %s: %w", ColEndDate, err)
	}

	return models.Gift{
		GiftID:                row[ColGiftID],
		Name:                  row[ColName],
		Description:           row[ColDescription],
		StartDate:             startDate,
		EndDate:               endDate,
		DonationAmount:        parseAmount(row[ColDonationAmount]),
		StockQuantity:         parseStock(row[ColStockQuantity]),
		CapacityWeight:        row[ColCapacityWeight],
		ProviderInfo:          row[ColProviderInfo],
		ShippingEstimate:      row[ColShippingEstimate],
		Notes:                 row[ColNotes],
		IsPublic:              row[ColIsPublic] == truthyFlag,
		TempShipping:          row[ColTempShipping] == truthyFlag,
		ColdShipping:          row[ColColdShipping] == truthyFlag,
		FrozenShipping:        row[ColFrozenShipping] == truthyFlag,
		RegularDelivery:       row[ColRegularDelivery] == truthyFlag,
		DateSpecifiedDelivery: row[ColDateSpecified] == truthyFlag,
		SplitDelivery:         row[ColSplitDelivery] == truthyFlag,
		SimplePackaging:       row[ColSimplePackaging] == truthyFlag,
		NoshiSupport:          row[ColNoshiSupport] == truthyFlag,
		MunicipalityCode:      row[ColMunicipalityCode],
		ExpiryStorage:         row[ColExpiryStorage],
		Allergens:             row[ColAllergens],
		AllergenNotes:         row[ColAllergenNotes],
		Category:              row[ColCategory],
		LinkedService:         row[ColLinkedService],
	}, nil
}

func parseAmount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func parseStock(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparsable date %q", raw)
}
