package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// ListUploadHistory returns recent upload history entries, newest first
// GET /api/admin/uploads
func (h *Handler) ListUploadHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	uploads, err := h.db.ListUploads(c.Context(), limit)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "アップロード履歴の取得に失敗しました。")
	}

	return Success(c, "", fiber.Map{"uploads": uploads})
}
