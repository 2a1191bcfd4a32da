package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/manpuku-dev/gift-catalog/internal/database"
)

// ListGifts returns a page of the catalog
// GET /api/gifts
func (h *Handler) ListGifts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	gifts, total, err := h.db.ListGifts(c.Context(), limit, offset)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "返礼品の取得に失敗しました。")
	}

	return Success(c, "", fiber.Map{
		"gifts":  gifts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetGift returns a single gift by its catalog ID
// GET /api/gifts/:giftId
func (h *Handler) GetGift(c *fiber.Ctx) error {
	gift, err := h.db.GetGiftByGiftID(c.Context(), c.Params("giftId"))
	if err != nil {
		if errors.Is(err, database.ErrGiftNotFound) {
			return Error(c, fiber.StatusNotFound, "返礼品が見つかりません。")
		}
		return Error(c, fiber.StatusInternalServerError, "返礼品の取得に失敗しました。")
	}

	return Success(c, "", gift)
}

// GetGiftStats returns catalog-wide counts for the admin dashboard
// GET /api/gifts/stats
func (h *Handler) GetGiftStats(c *fiber.Ctx) error {
	stats, err := h.db.GetGiftStats(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "統計情報の取得に失敗しました。")
	}

	return Success(c, "", stats)
}
