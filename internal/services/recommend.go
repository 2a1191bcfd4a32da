package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

// maxCandidates bounds how many filtered gifts are narrated to the
// recommendation service. Gifts are taken in storage order, not ranked first.
const maxCandidates = 5

// maxFallbackResults is how many gifts the deterministic fallback returns
const maxFallbackResults = 3

// Client is the opaque text-generation collaborator. It may error or return
// unparsable content; replies are never trusted without validation.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Recommender shapes filtered gifts into a model request and validates the
// structured reply. Every failure mode of the external call resolves to the
// same deterministic fallback; there is no retry.
type Recommender struct {
	client  Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewRecommender creates a recommender. A nil client always produces
// fallback results, which keeps the endpoint serving without an API key.
func NewRecommender(client Client, timeout time.Duration, logger *slog.Logger) *Recommender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Recommender{client: client, logger: logger, timeout: timeout}
}

const systemPrompt = "あなたは関西弁を話すまんぷくんというキャラクターです。ふるさと納税の返礼品について、親しみやすく実用的なアドバイスをします。"

var familySizeLabels = map[models.FamilySize]string{
	models.FamilySingle:      "一人暮らし",
	models.FamilyCouple:      "夫婦・カップル",
	models.FamilySmallFamily: "3-4人家族",
	models.FamilyLargeFamily: "5人以上の家族",
}

// Recommend returns up to three recommendations for the filtered gifts. An
// empty candidate set short-circuits to an empty result before any external
// call.
func (r *Recommender) Recommend(ctx context.Context, gifts []models.Gift, req *models.RecommendationRequest) []models.RecommendationResult {
	if len(gifts) == 0 {
		return []models.RecommendationResult{}
	}

	candidates := gifts
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	if r.client == nil {
		return fallbackRecommendations(candidates, req.FamilySize)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	content, err := r.client.Complete(ctx, systemPrompt, buildPrompt(candidates, req))
	if err != nil {
		r.logger.Warn("recommendation service call failed, using fallback", "error", err)
		return fallbackRecommendations(candidates, req.FamilySize)
	}

	results, err := parseReply(content, candidates)
	if err != nil {
		r.logger.Warn("unusable recommendation reply, using fallback", "error", err)
		return fallbackRecommendations(candidates, req.FamilySize)
	}

	r.logger.Info("recommendations generated", "count", len(results), "candidates", len(candidates))
	return results
}

// buildPrompt narrates the query and the candidate gifts in the request
// format the service is instructed to answer in JSON.
func buildPrompt(candidates []models.Gift, req *models.RecommendationRequest) string {
	categoriesText := "指定なし"
	if len(req.Categories) > 0 {
		names := make([]string, 0, len(req.Categories))
		for _, token := range req.Categories {
			if label, ok := categoryLabels[token]; ok {
				names = append(names, label)
			} else {
				names = append(names, token)
			}
		}
		categoriesText = strings.Join(names, "、")
	}

	allergiesText := "なし"
	if len(req.Allergies) > 0 {
		names := make([]string, 0, len(req.Allergies))
		for _, token := range req.Allergies {
			if label, ok := allergyLabels[token]; ok {
				names = append(names, label)
			} else {
				names = append(names, token)
			}
		}
		allergiesText = strings.Join(names, "、")
	}

	specialRequests := req.SpecialRequests
	if specialRequests == "" {
		specialRequests = "なし"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `あなたは関西弁を話すまんぷくんという、ふるさと納税の返礼品推薦の専門家です。
ユーザーの条件に基づいて、以下の返礼品の中から最適なものを推薦してください。

【ユーザー条件】
- 予算: %d円 ～ %d円
- 家族構成: %s
- 希望カテゴリ: %s
- アレルギー: %s
- 特別なリクエスト: %s

【返礼品データ】
`, req.Budget.Min, req.Budget.Max, familySizeLabels[req.FamilySize], categoriesText, allergiesText, specialRequests)

	for i, g := range candidates {
		category := g.Category
		if category == "" {
			category = "未分類"
		}
		capacity := g.CapacityWeight
		if capacity == "" {
			capacity = "記載なし"
		}
		estimate := g.ShippingEstimate
		if estimate == "" {
			estimate = "記載なし"
		}
		description := g.Description
		if description == "" {
			description = "詳細なし"
		}

		var methods []string
		if g.TempShipping {
			methods = append(methods, "常温")
		}
		if g.ColdShipping {
			methods = append(methods, "冷蔵")
		}
		if g.FrozenShipping {
			methods = append(methods, "冷凍")
		}

		fmt.Fprintf(&sb, `
%d. %s
   - 寄付金額: %d円
   - カテゴリ: %s
   - 容量: %s
   - 配送: %s
   - 発送目安: %s
   - 説明: %s
`, i+1, g.Name, g.DonationAmount, category, capacity, strings.Join(methods, "・"), estimate, description)
	}

	fmt.Fprintf(&sb, `
以下のJSON形式で、推薦度の高い順に3つまでの商品について回答してください：

{
  "recommendations": [
    {
      "giftIndex": 商品番号(1-%d),
      "rating": 評価(1-5の整数),
      "reason": "推薦理由（100文字程度、まんぷくんの関西弁で）",
      "manpukunComment": "まんぷくんからのひとこと（50文字程度、親しみやすく）",
      "pros": ["メリット1", "メリット2", "メリット3"],
      "cons": ["注意点1", "注意点2"]
    }
  ]
}

まんぷくんの特徴：
- 関西弁で話す（「〜やで」「〜やん」「ええで〜」など）
- 食べ物に詳しく、美味しさを伝えるのが得意
- 親しみやすく、ユーザー目線でアドバイス
- 家族構成や予算を考慮した実用的な提案
`, len(candidates))

	return sb.String()
}

// parseReply validates the structured reply against the candidate list that
// was actually sent. Any index outside [1, len(candidates)] invalidates the
// whole reply; the rating is clamped into [1,5] instead of rejected.
func parseReply(content string, candidates []models.Gift) ([]models.RecommendationResult, error) {
	var reply struct {
		Recommendations []struct {
			GiftIndex       int      `json:"giftIndex"`
			Rating          int      `json:"rating"`
			Reason          string   `json:"reason"`
			ManpukunComment string   `json:"manpukunComment"`
			Pros            []string `json:"pros"`
			Cons            []string `json:"cons"`
		} `json:"recommendations"`
	}

	if err := json.Unmarshal([]byte(stripMarkdownFence(content)), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse reply JSON: %w", err)
	}
	if len(reply.Recommendations) == 0 {
		return nil, fmt.Errorf("no recommendations in reply")
	}

	results := make([]models.RecommendationResult, 0, len(reply.Recommendations))
	for _, rec := range reply.Recommendations {
		if rec.GiftIndex < 1 || rec.GiftIndex > len(candidates) {
			return nil, fmt.Errorf("invalid gift index %d for %d candidates", rec.GiftIndex, len(candidates))
		}

		pros := rec.Pros
		if pros == nil {
			pros = []string{}
		}

		results = append(results, models.RecommendationResult{
			Gift:            candidates[rec.GiftIndex-1],
			Rating:          clampRating(rec.Rating),
			Reason:          rec.Reason,
			ManpukunComment: rec.ManpukunComment,
			Pros:            pros,
			Cons:            rec.Cons,
		})
	}

	return results, nil
}

func clampRating(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}

// fallbackRecommendations is the deterministic default: the first three
// candidates with a fixed rating of 4 and templated text derived only from
// the family size. Availability over personalization.
func fallbackRecommendations(candidates []models.Gift, familySize models.FamilySize) []models.RecommendationResult {
	n := maxFallbackResults
	if len(candidates) < n {
		n = len(candidates)
	}

	results := make([]models.RecommendationResult, 0, n)
	for _, g := range candidates[:n] {
		results = append(results, models.RecommendationResult{
			Gift:            g,
			Rating:          4,
			Reason:          fmt.Sprintf("%sにぴったりの商品やで〜！予算内でええもん見つかったで！", familySizeLabels[familySize]),
			ManpukunComment: "これはおすすめやで〜！",
			Pros:            []string{"予算内でお得", "品質が良い", "満足度が高い"},
			Cons:            []string{},
		})
	}

	return results
}

// stripMarkdownFence removes a surrounding ```json fence some models wrap
// around their reply.
func stripMarkdownFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
