package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowToGiftFullRow(t *testing.T) {
	row := map[string]string{
		ColGiftID:           "G-001",
		ColName:             "佐賀牛切り落とし 1kg",
		ColDescription:      "人気の佐賀牛です",
		ColStartDate:        "2026-01-01",
		ColEndDate:          "2026/12/31 23:59:59",
		ColDonationAmount:   "15000",
		ColStockQuantity:    "42.5",
		ColCapacityWeight:   "1kg",
		ColProviderInfo:     "佐賀牧場",
		ColShippingEstimate: "2週間以内",
		ColNotes:            "冷凍でお届けします",
		ColIsPublic:         "1",
		ColFrozenShipping:   "1",
		ColNoshiSupport:     "1",
		ColMunicipalityCode: "41-0001",
		ColExpiryStorage:    "冷凍90日",
		ColAllergens:        "牛肉",
		ColCategory:         "肉類",
	}

	gift, err := RowToGift(row)
	require.NoError(t, err)

	assert.Equal(t, "G-001", gift.GiftID)
	assert.Equal(t, "佐賀牛切り落とし 1kg", gift.Name)
	assert.Equal(t, 15000, gift.DonationAmount)
	require.NotNil(t, gift.StockQuantity)
	assert.Equal(t, 42.5, *gift.StockQuantity)
	require.NotNil(t, gift.StartDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *gift.StartDate)
	require.NotNil(t, gift.EndDate)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), *gift.EndDate)
	assert.True(t, gift.IsPublic)
	assert.True(t, gift.FrozenShipping)
	assert.True(t, gift.NoshiSupport)
	assert.False(t, gift.ColdShipping)
	assert.Equal(t, "肉類", gift.Category)
}

func TestRowToGiftFlagsRequireExactMarker(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"0", false},
		{"", false},
		{"true", false},
		{"yes", false},
		{"2", false},
		{" 1", false},
	}

	for _, tt := range tests {
		gift, err := RowToGift(map[string]string{ColIsPublic: tt.value})
		require.NoError(t, err)
		assert.Equal(t, tt.want, gift.IsPublic, "flag value %q", tt.value)
	}
}

func TestRowToGiftAmountFallsBackToZero(t *testing.T) {
	for _, raw := range []string{"", "abc", "12.5", "10,000"} {
		gift, err := RowToGift(map[string]string{ColDonationAmount: raw})
		require.NoError(t, err)
		assert.Equal(t, 0, gift.DonationAmount, "amount %q", raw)
	}
}

func TestRowToGiftStockBlankMeansUnlimited(t *testing.T) {
	gift, err := RowToGift(map[string]string{ColStockQuantity: ""})
	require.NoError(t, err)
	assert.Nil(t, gift.StockQuantity)
	assert.True(t, gift.InStock())

	gift, err = RowToGift(map[string]string{ColStockQuantity: "n/a"})
	require.NoError(t, err)
	assert.Nil(t, gift.StockQuantity)

	gift, err = RowToGift(map[string]string{ColStockQuantity: "0"})
	require.NoError(t, err)
	require.NotNil(t, gift.StockQuantity)
	assert.False(t, gift.InStock())
}

func TestRowToGiftDateHandling(t *testing.T) {
	gift, err := RowToGift(map[string]string{ColStartDate: ""})
	require.NoError(t, err)
	assert.Nil(t, gift.StartDate)

	for _, raw := range []string{"2026-03-15", "2026/03/15", "2026-03-15 09:30:00", "2026-03-15T09:30:00Z"} {
		gift, err := RowToGift(map[string]string{ColStartDate: raw})
		require.NoError(t, err, "layout %q", raw)
		require.NotNil(t, gift.StartDate)
	}

	_, err = RowToGift(map[string]string{ColEndDate: "年末まで"})
	assert.Error(t, err)
}

func TestRowToGiftMissingColumnsDefaultEmpty(t *testing.T) {
	gift, err := RowToGift(map[string]string{ColGiftID: "G-002", ColName: "りんご"})
	require.NoError(t, err)

	assert.Empty(t, gift.Description)
	assert.Empty(t, gift.Category)
	assert.Equal(t, 0, gift.DonationAmount)
	assert.Nil(t, gift.StockQuantity)
	assert.False(t, gift.IsPublic)
}
