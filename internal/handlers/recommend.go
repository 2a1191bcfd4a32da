package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/manpuku-dev/gift-catalog/internal/models"
	"github.com/manpuku-dev/gift-catalog/internal/services"
)

// Recommend answers a donor's conditions with up to five rated gift
// suggestions. Candidates come from the catalog, get re-checked against the
// conditions, and are then scored by the recommender.
// POST /api/recommend
func (h *Handler) Recommend(c *fiber.Ctx) error {
	var req models.RecommendationRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validate.Struct(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, recommendValidationMessage(err))
	}

	candidates, err := h.db.QueryCandidates(c.Context(), req.Budget.Min, req.Budget.Max)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "返礼品の取得に失敗しました。")
	}

	matched := services.FilterGifts(candidates, &req)
	if len(matched) == 0 {
		return Success(c,
			"条件に合う返礼品が見つかりませんでした。条件を変更してもう一度お試しください。",
			models.RecommendationResponse{
				Recommendations: []models.RecommendationResult{},
				TotalFound:      0,
			})
	}

	recs := h.recommender.Recommend(c.Context(), matched, &req)

	return Success(c,
		fmt.Sprintf("%d件のおすすめ返礼品が見つかりました。", len(recs)),
		models.RecommendationResponse{
			Recommendations: recs,
			TotalFound:      len(matched),
		})
}

// recommendValidationMessage translates the first failed validation into the
// message shown to the donor.
func recommendValidationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "リクエストが無効です。"
	}

	switch errs[0].StructNamespace() {
	case "RecommendationRequest.Budget.Min", "RecommendationRequest.Budget.Max":
		return "予算設定が無効です。"
	case "RecommendationRequest.FamilySize":
		return "家族構成を選択してください。"
	default:
		return "リクエストが無効です。"
	}
}
