package database

import (
	"context"
	"fmt"

	"github.com/manpuku-dev/gift-catalog/internal/models"
)

// InsertUpload appends one entry to the upload history log. Entries are never
// updated afterwards.
func (db *DB) InsertUpload(ctx context.Context, filename string, recordCount int, status models.UploadStatus) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO csv_uploads (filename, record_count, status, upload_date)
		VALUES ($1, $2, $3, NOW())
	`, filename, recordCount, status)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// ListUploads returns the most recent upload history entries
func (db *DB) ListUploads(ctx context.Context, limit int) ([]models.CSVUpload, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, filename, record_count, status, upload_date
		FROM csv_uploads
		ORDER BY upload_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []models.CSVUpload
	for rows.Next() {
		u := models.CSVUpload{}
		if err := rows.Scan(&u.ID, &u.Filename, &u.RecordCount, &u.Status, &u.UploadDate); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}

	return uploads, rows.Err()
}
