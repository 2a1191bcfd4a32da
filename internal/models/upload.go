package models

import (
	"time"
)

// UploadStatus is the lifecycle state of one CSV upload attempt
type UploadStatus string

const (
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusError      UploadStatus = "error"
)

// CSVUpload is one entry in the append-only upload history log. Entries are
// never mutated once a completed or error status has been recorded.
type CSVUpload struct {
	ID          int          `json:"id"`
	Filename    string       `json:"filename"`
	RecordCount int          `json:"record_count"`
	Status      UploadStatus `json:"status"`
	UploadDate  time.Time    `json:"upload_date"`
}

// ChunkedUploadRequest is the three-phase JSON upload protocol. A client that
// parses the CSV itself sends {init:true}, then one or more {records:[...]},
// then {final:true, filename, totalCount}.
type ChunkedUploadRequest struct {
	Init       bool   `json:"init,omitempty"`
	Records    []Gift `json:"records,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Filename   string `json:"filename,omitempty"`
	TotalCount int    `json:"totalCount,omitempty"`
}

// UploadResponse is the success payload of an upload operation
type UploadResponse struct {
	RecordCount int `json:"recordCount"`
}

// StorageImportRequest asks the server to ingest a CSV object already sitting
// in the configured bucket.
type StorageImportRequest struct {
	Object string `json:"object" validate:"required"`
}
