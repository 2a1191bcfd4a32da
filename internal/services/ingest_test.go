package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

// mockStore records every store call in order
type mockStore struct {
	deletes     int
	batches     [][]models.Gift
	uploads     []mockUpload
	deleteErr   error
	insertErr   error
	insertErrAt int // fail on the n-th batch (1-based), 0 means insertErr applies to all
	uploadErr   error
}

type mockUpload struct {
	filename string
	count    int
	status   models.UploadStatus
}

func (m *mockStore) DeleteAllGifts(ctx context.Context) error {
	m.deletes++
	return m.deleteErr
}

func (m *mockStore) BulkInsertGifts(ctx context.Context, gifts []models.Gift) error {
	if m.insertErr != nil && (m.insertErrAt == 0 || len(m.batches)+1 == m.insertErrAt) {
		return m.insertErr
	}
	batch := make([]models.Gift, len(gifts))
	copy(batch, gifts)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockStore) InsertUpload(ctx context.Context, filename string, recordCount int, status models.UploadStatus) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.uploads = append(m.uploads, mockUpload{filename, recordCount, status})
	return nil
}

func (m *mockStore) inserted() int {
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func testIngester(store CatalogStore) *Ingester {
	return NewIngester(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func catalogCSV(rows int) string {
	var sb strings.Builder
	sb.WriteString(ColGiftID + "," + ColName + "," + ColDonationAmount + "\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "G-%04d,ギフト%d,10000\n", i, i)
	}
	return sb.String()
}

func TestReplaceBatchesLargeFile(t *testing.T) {
	store := &mockStore{}
	ing := testIngester(store)

	res, err := ing.Replace(context.Background(), strings.NewReader(catalogCSV(2500)), "catalog.csv")
	require.NoError(t, err)

	assert.Equal(t, 2500, res.Accepted)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 1, store.deletes)

	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 1000)
	assert.Len(t, store.batches[1], 1000)
	assert.Len(t, store.batches[2], 500)

	require.Len(t, store.uploads, 1)
	assert.Equal(t, "catalog.csv", store.uploads[0].filename)
	assert.Equal(t, 2500, store.uploads[0].count)
	assert.Equal(t, models.UploadStatusCompleted, store.uploads[0].status)
}

func TestReplaceSkipsRowsMissingRequiredFields(t *testing.T) {
	input := ColGiftID + "," + ColName + "\n" +
		"G-001,みかん\n" +
		",名前だけ\n" +
		"G-002,\n" +
		"G-003,りんご\n"

	store := &mockStore{}
	res, err := testIngester(store).Replace(context.Background(), strings.NewReader(input), "f.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, store.inserted())
}

func TestReplaceAllInvalidRowsFails(t *testing.T) {
	input := ColGiftID + "," + ColName + "\n" +
		",a\n" +
		",b\n"

	store := &mockStore{}
	res, err := testIngester(store).Replace(context.Background(), strings.NewReader(input), "f.csv")
	require.ErrorIs(t, err, ErrNoValidData)

	assert.Equal(t, 0, res.Accepted)
	// Catalog was still cleared, no completed history entry was written.
	assert.Equal(t, 1, store.deletes)
	assert.Empty(t, store.uploads)
}

func TestReplaceEmptyFileFails(t *testing.T) {
	store := &mockStore{}
	_, err := testIngester(store).Replace(context.Background(), strings.NewReader(""), "f.csv")
	require.ErrorIs(t, err, ErrNoValidData)
	assert.Empty(t, store.uploads)
}

func TestReplaceBadDateAbortsUpload(t *testing.T) {
	input := ColGiftID + "," + ColName + "," + ColStartDate + "\n" +
		"G-001,みかん,2026-01-01\n" +
		"G-002,りんご,いつか\n" +
		"G-003,ぶどう,2026-02-01\n"

	store := &mockStore{}
	_, err := testIngester(store).Replace(context.Background(), strings.NewReader(input), "f.csv")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, parseErr.Record)
	assert.Empty(t, store.uploads)
}

func TestReplaceDeleteFailureStopsEarly(t *testing.T) {
	store := &mockStore{deleteErr: errors.New("db down")}
	_, err := testIngester(store).Replace(context.Background(), strings.NewReader(catalogCSV(5)), "f.csv")

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "delete", storeErr.Op)
	assert.Empty(t, store.batches)
}

func TestReplaceInsertFailureAborts(t *testing.T) {
	store := &mockStore{insertErr: errors.New("copy failed"), insertErrAt: 2}
	res, err := testIngester(store).Replace(context.Background(), strings.NewReader(catalogCSV(2500)), "f.csv")

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "bulk insert", storeErr.Op)

	// The first batch stays committed; the history log has no completed entry.
	assert.Equal(t, 1000, res.Accepted)
	require.Len(t, store.batches, 1)
	assert.Empty(t, store.uploads)
}

func TestReplaceHistoryFailureSurfaces(t *testing.T) {
	store := &mockStore{uploadErr: errors.New("insert failed")}
	_, err := testIngester(store).Replace(context.Background(), strings.NewReader(catalogCSV(3)), "f.csv")

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "history insert", storeErr.Op)
}

func TestReplaceSecondUploadWipesFirst(t *testing.T) {
	store := &mockStore{}
	ing := testIngester(store)

	_, err := ing.Replace(context.Background(), strings.NewReader(catalogCSV(10)), "a.csv")
	require.NoError(t, err)
	_, err = ing.Replace(context.Background(), strings.NewReader(catalogCSV(7)), "b.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, store.deletes)
	require.Len(t, store.uploads, 2)
	assert.Equal(t, 7, store.uploads[1].count)
}

func TestChunkedProtocol(t *testing.T) {
	store := &mockStore{}
	ing := testIngester(store)
	ctx := context.Background()

	require.NoError(t, ing.InitReplace(ctx))
	assert.Equal(t, 1, store.deletes)

	n, err := ing.InsertChunk(ctx, []models.Gift{
		{GiftID: "G-001", Name: "みかん"},
		{GiftID: "", Name: "IDなし"},
		{GiftID: "G-002", Name: "りんご"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.inserted())

	require.NoError(t, ing.Finalize(ctx, "catalog.csv", 2))
	require.Len(t, store.uploads, 1)
	assert.Equal(t, 2, store.uploads[0].count)
}

func TestChunkedFinalizeRejectsZeroTotal(t *testing.T) {
	store := &mockStore{}
	err := testIngester(store).Finalize(context.Background(), "f.csv", 0)
	require.ErrorIs(t, err, ErrNoValidData)
	assert.Empty(t, store.uploads)
}

func TestChunkedInsertAllInvalidIsNoop(t *testing.T) {
	store := &mockStore{}
	n, err := testIngester(store).InsertChunk(context.Background(), []models.Gift{{Name: "IDなし"}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, store.batches)
}
