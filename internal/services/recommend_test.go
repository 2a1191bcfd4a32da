package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

// mockClient returns a canned reply or error and records the prompts it saw
type mockClient struct {
	reply   string
	err     error
	sysSeen string
	usrSeen string
	calls   int
}

func (m *mockClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.sysSeen = systemPrompt
	m.usrSeen = userPrompt
	return m.reply, m.err
}

func testRecommender(client Client) *Recommender {
	return NewRecommender(client, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func candidateGifts(n int) []models.Gift {
	gifts := make([]models.Gift, n)
	for i := range gifts {
		gifts[i] = models.Gift{
			GiftID:         string(rune('A' + i)),
			Name:           "ギフト",
			DonationAmount: 10000 * (i + 1),
			IsPublic:       true,
		}
	}
	return gifts
}

func recommendRequest() *models.RecommendationRequest {
	return &models.RecommendationRequest{
		Budget:     models.Budget{Min: 10000, Max: 100000},
		FamilySize: models.FamilyCouple,
	}
}

func TestRecommendMapsValidReply(t *testing.T) {
	client := &mockClient{reply: `{
		"recommendations": [
			{"giftIndex": 2, "rating": 5, "reason": "ええ肉や", "manpukunComment": "最高やで", "pros": ["量が多い"], "cons": ["冷凍庫が要る"]},
			{"giftIndex": 1, "rating": 9, "reason": "定番", "manpukunComment": "はずれなしや"}
		]
	}`}

	gifts := candidateGifts(3)
	results := testRecommender(client).Recommend(context.Background(), gifts, recommendRequest())

	require.Len(t, results, 2)

	assert.Equal(t, gifts[1].GiftID, results[0].Gift.GiftID)
	assert.Equal(t, 5, results[0].Rating)
	assert.Equal(t, "ええ肉や", results[0].Reason)
	assert.Equal(t, []string{"量が多い"}, results[0].Pros)

	// Out-of-range rating is clamped, missing pros become an empty slice.
	assert.Equal(t, gifts[0].GiftID, results[1].Gift.GiftID)
	assert.Equal(t, 5, results[1].Rating)
	assert.NotNil(t, results[1].Pros)
	assert.Empty(t, results[1].Pros)
}

func TestRecommendAcceptsFencedReply(t *testing.T) {
	client := &mockClient{reply: "```json\n{\"recommendations\":[{\"giftIndex\":1,\"rating\":4,\"reason\":\"r\",\"manpukunComment\":\"c\",\"pros\":[]}]}\n```"}

	results := testRecommender(client).Recommend(context.Background(), candidateGifts(1), recommendRequest())
	require.Len(t, results, 1)
	assert.Equal(t, 4, results[0].Rating)
}

func TestRecommendInvalidIndexInvalidatesWholeReply(t *testing.T) {
	client := &mockClient{reply: `{
		"recommendations": [
			{"giftIndex": 1, "rating": 5, "reason": "ok", "manpukunComment": "ok", "pros": []},
			{"giftIndex": 99, "rating": 5, "reason": "bad", "manpukunComment": "bad", "pros": []}
		]
	}`}

	results := testRecommender(client).Recommend(context.Background(), candidateGifts(2), recommendRequest())

	// Fallback, not the partially valid reply.
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 4, r.Rating)
	}
}

func TestRecommendZeroIndexRejected(t *testing.T) {
	client := &mockClient{reply: `{"recommendations":[{"giftIndex":0,"rating":3,"reason":"r","manpukunComment":"c","pros":[]}]}`}

	results := testRecommender(client).Recommend(context.Background(), candidateGifts(2), recommendRequest())
	require.Len(t, results, 2)
	assert.Equal(t, 4, results[0].Rating)
}

func TestRecommendMalformedReplyFallsBack(t *testing.T) {
	client := &mockClient{reply: "すんません、JSONは書けまへん"}

	results := testRecommender(client).Recommend(context.Background(), candidateGifts(4), recommendRequest())
	require.Len(t, results, maxFallbackResults)
	for _, r := range results {
		assert.Equal(t, 4, r.Rating)
		assert.NotEmpty(t, r.Reason)
		assert.NotEmpty(t, r.ManpukunComment)
	}
}

func TestRecommendClientErrorFallsBack(t *testing.T) {
	client := &mockClient{err: errors.New("upstream timeout")}

	results := testRecommender(client).Recommend(context.Background(), candidateGifts(2), recommendRequest())
	require.Len(t, results, 2)
	assert.Equal(t, 4, results[0].Rating)
}

func TestRecommendNilClientUsesFallback(t *testing.T) {
	results := testRecommender(nil).Recommend(context.Background(), candidateGifts(5), recommendRequest())

	require.Len(t, results, maxFallbackResults)
	assert.Contains(t, results[0].Reason, "夫婦・カップル")
}

func TestRecommendFallbackShorterThanCap(t *testing.T) {
	results := testRecommender(nil).Recommend(context.Background(), candidateGifts(2), recommendRequest())
	assert.Len(t, results, 2)
}

func TestRecommendEmptyCandidates(t *testing.T) {
	client := &mockClient{reply: "unused"}
	results := testRecommender(client).Recommend(context.Background(), nil, recommendRequest())

	assert.Empty(t, results)
	assert.Zero(t, client.calls)
}

func TestRecommendCapsCandidatesSentToClient(t *testing.T) {
	client := &mockClient{reply: `{"recommendations":[{"giftIndex":5,"rating":4,"reason":"r","manpukunComment":"c","pros":[]}]}`}

	gifts := candidateGifts(8)
	results := testRecommender(client).Recommend(context.Background(), gifts, recommendRequest())

	// Index 5 is the last narratable candidate; 6 and beyond were never sent.
	require.Len(t, results, 1)
	assert.Equal(t, gifts[4].GiftID, results[0].Gift.GiftID)
	assert.NotContains(t, client.usrSeen, "6. ")
}

func TestRecommendIndexBeyondCapRejected(t *testing.T) {
	client := &mockClient{reply: `{"recommendations":[{"giftIndex":6,"rating":4,"reason":"r","manpukunComment":"c","pros":[]}]}`}

	results := testRecommender(client).Recommend(context.Background(), candidateGifts(8), recommendRequest())

	// Candidates were capped to five, so index 6 invalidates the reply.
	require.Len(t, results, maxFallbackResults)
	assert.Equal(t, 4, results[0].Rating)
}
