package services

import (
	"strings"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

// categoryVocabulary maps a category token from the recommendation form to
// the catalog substrings it stands for. Matching is a case-insensitive
// containment check against the gift's free-text category.
var categoryVocabulary = map[string][]string{
	"meat":      {"肉類", "牛肉", "豚肉", "鶏肉", "ハム・ソーセージ"},
	"seafood":   {"魚介類", "魚貝類", "海産物", "カニ", "エビ", "ホタテ"},
	"fruit":     {"果物", "フルーツ", "りんご", "みかん", "ぶどう", "もも", "いちご"},
	"vegetable": {"野菜", "野菜セット", "玉ねぎ", "じゃがいも", "にんじん"},
	"rice":      {"米", "穀物", "お米"},
	"dairy":     {"乳製品", "チーズ", "バター", "ヨーグルト"},
	"alcohol":   {"お酒", "日本酒", "ビール", "ワイン", "焼酎"},
	"sweets":    {"スイーツ", "菓子", "ケーキ", "アイス"},
	"processed": {"加工品", "調味料", "漬物"},
	"set":       {"セット", "詰合せ", "詰め合わせ"},
}

// allergyVocabulary maps an allergy token to the allergen substrings that
// exclude a gift when they appear in its allergen text.
var allergyVocabulary = map[string][]string{
	"egg":       {"卵"},
	"milk":      {"乳", "牛乳"},
	"wheat":     {"小麦"},
	"buckwheat": {"そば"},
	"peanut":    {"落花生", "ピーナッツ"},
	"shrimp":    {"えび", "エビ"},
	"crab":      {"かに", "カニ", "蟹"},
	"orange":    {"オレンジ"},
	"kiwi":      {"キウイ", "キウイフルーツ"},
	"peach":     {"もも", "モモ", "桃"},
	"apple":     {"りんご", "リンゴ", "林檎"},
	"banana":    {"バナナ"},
}

// categoryLabels are the Japanese display names used when narrating the
// query to the recommendation service.
var categoryLabels = map[string]string{
	"meat":      "肉類",
	"seafood":   "魚介類",
	"fruit":     "果物",
	"vegetable": "野菜",
	"rice":      "米・穀物",
	"dairy":     "乳製品",
	"alcohol":   "お酒",
	"sweets":    "スイーツ",
	"processed": "加工品",
	"set":       "セット・詰合せ",
}

var allergyLabels = map[string]string{
	"egg":       "卵",
	"milk":      "乳",
	"wheat":     "小麦",
	"buckwheat": "そば",
	"peanut":    "落花生",
	"shrimp":    "えび",
	"crab":      "かに",
	"orange":    "オレンジ",
	"kiwi":      "キウイフルーツ",
	"peach":     "もも",
	"apple":     "りんご",
	"banana":    "バナナ",
}

// FilterGifts selects the subset of gifts satisfying every constraint of the
// query, preserving input order. The store query already pushes down
// visibility, budget and stock; they are re-checked here so the function
// honors the full contract regardless of the caller.
func FilterGifts(gifts []models.Gift, req *models.RecommendationRequest) []models.Gift {
	includeCategories := expandVocabulary(categoryVocabulary, req.Categories)
	excludeAllergens := expandVocabulary(allergyVocabulary, req.Allergies)

	filtered := make([]models.Gift, 0, len(gifts))
	for _, g := range gifts {
		if !g.IsPublic || !g.InStock() {
			continue
		}
		if g.DonationAmount < req.Budget.Min || g.DonationAmount > req.Budget.Max {
			continue
		}
		// A gift with no category text never matches a category constraint.
		if len(includeCategories) > 0 && !containsAny(g.Category, includeCategories) {
			continue
		}
		// A gift with no allergen text is never excluded.
		if len(excludeAllergens) > 0 && containsAny(g.Allergens, excludeAllergens) {
			continue
		}
		if !matchesShipping(&g, req.ShippingPrefs) {
			continue
		}
		filtered = append(filtered, g)
	}

	return filtered
}

func expandVocabulary(vocab map[string][]string, tokens []string) []string {
	var expanded []string
	for _, token := range tokens {
		expanded = append(expanded, vocab[token]...)
	}
	return expanded
}

func containsAny(text string, needles []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// matchesShipping is permissive when no method is requested; otherwise the
// gift must support at least one of the requested methods.
func matchesShipping(g *models.Gift, prefs models.ShippingPrefs) bool {
	if !prefs.Temp && !prefs.Cold && !prefs.Frozen {
		return true
	}
	return (prefs.Temp && g.TempShipping) ||
		(prefs.Cold && g.ColdShipping) ||
		(prefs.Frozen && g.FrozenShipping)
}
