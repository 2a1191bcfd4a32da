package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

// DefaultBatchSize is how many transformed rows are buffered before one bulk
// insert is issued.
const DefaultBatchSize = 1000

// CatalogStore is the persistence capability the ingester drives
type CatalogStore interface {
	DeleteAllGifts(ctx context.Context) error
	BulkInsertGifts(ctx context.Context, gifts []models.Gift) error
	InsertUpload(ctx context.Context, filename string, recordCount int, status models.UploadStatus) error
}

// ErrNoValidData is returned when a file produced zero acceptable rows. The
// upload is reported as a failure rather than silently succeeding with an
// empty catalog.
var ErrNoValidData = errors.New("no valid data in uploaded file")

// StoreError marks a failed catalog store call. Fatal for the operation,
// never retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// ParseError marks malformed CSV content. It aborts the stream phase;
// batches flushed before it stay committed.
type ParseError struct {
	Record int
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("record %d: %v", e.Record, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Ingester drives replace-all catalog ingestion. A single mutex serializes
// concurrent replaces; two interleaved delete/insert sequences would leave an
// undefined merged catalog.
type Ingester struct {
	store     CatalogStore
	logger    *slog.Logger
	batchSize int
	mu        sync.Mutex
}

// NewIngester creates an ingester with the default batch size
func NewIngester(store CatalogStore, logger *slog.Logger) *Ingester {
	return &Ingester{
		store:     store,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// IngestResult summarizes one replace-all run
type IngestResult struct {
	Accepted int
	Skipped  int
}

// Replace deletes the current catalog and rebuilds it from the CSV stream in
// batches. The delete runs before the incoming file has been validated: a
// file that fails to parse after the first row still leaves the catalog
// emptied, and batches flushed before a failure stay committed. Operators see
// the failure in the response and in the absence of a completed history
// entry.
func (ing *Ingester) Replace(ctx context.Context, r io.Reader, filename string) (*IngestResult, error) {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	if err := ing.store.DeleteAllGifts(ctx); err != nil {
		return nil, &StoreError{Op: "delete", Err: err}
	}

	// Cancellation also unblocks the producer goroutine on early return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &IngestResult{}
	buffer := make([]models.Gift, 0, ing.batchSize)

	for row := range StreamRows(ctx, r) {
		if row.Err != nil {
			return res, &ParseError{Record: row.Record, Err: row.Err}
		}
		if row.Values[ColGiftID] == "" || row.Values[ColName] == "" {
			res.Skipped++
			continue
		}

		gift, err := RowToGift(row.Values)
		if err != nil {
			return res, &ParseError{Record: row.Record, Err: err}
		}

		buffer = append(buffer, gift)
		if len(buffer) >= ing.batchSize {
			if err := ing.flush(ctx, &buffer, res); err != nil {
				return res, err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := ing.flush(ctx, &buffer, res); err != nil {
		return res, err
	}

	if res.Accepted == 0 {
		return res, ErrNoValidData
	}

	if err := ing.store.InsertUpload(ctx, filename, res.Accepted, models.UploadStatusCompleted); err != nil {
		return res, &StoreError{Op: "history insert", Err: err}
	}

	ing.logger.Info("catalog replaced",
		"filename", filename,
		"accepted", res.Accepted,
		"skipped", res.Skipped)

	return res, nil
}

func (ing *Ingester) flush(ctx context.Context, buffer *[]models.Gift, res *IngestResult) error {
	if len(*buffer) == 0 {
		return nil
	}
	if err := ing.store.BulkInsertGifts(ctx, *buffer); err != nil {
		return &StoreError{Op: "bulk insert", Err: err}
	}
	res.Accepted += len(*buffer)
	ing.logger.Debug("flushed batch", "size", len(*buffer), "accepted", res.Accepted)
	*buffer = (*buffer)[:0]
	return nil
}

// InitReplace is phase one of the chunked JSON upload protocol: it clears the
// catalog so the chunks that follow rebuild it from scratch.
func (ing *Ingester) InitReplace(ctx context.Context) error {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	if err := ing.store.DeleteAllGifts(ctx); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

// InsertChunk is phase two: insert one pre-transformed batch. Records missing
// the gift ID or name are skipped, not stored partially. Returns the number
// of records actually inserted.
func (ing *Ingester) InsertChunk(ctx context.Context, records []models.Gift) (int, error) {
	valid := make([]models.Gift, 0, len(records))
	for _, g := range records {
		if g.GiftID == "" || g.Name == "" {
			continue
		}
		valid = append(valid, g)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	if err := ing.store.BulkInsertGifts(ctx, valid); err != nil {
		return 0, &StoreError{Op: "bulk insert", Err: err}
	}
	return len(valid), nil
}

// Finalize is phase three: record the completed upload. A zero total is
// rejected so an accidental wipe never looks like a success.
func (ing *Ingester) Finalize(ctx context.Context, filename string, totalCount int) error {
	if totalCount <= 0 {
		return ErrNoValidData
	}
	if err := ing.store.InsertUpload(ctx, filename, totalCount, models.UploadStatusCompleted); err != nil {
		return &StoreError{Op: "history insert", Err: err}
	}

	ing.logger.Info("catalog replaced via chunked upload",
		"filename", filename,
		"accepted", totalCount)
	return nil
}
