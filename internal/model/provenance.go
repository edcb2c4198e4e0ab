package model

import "time"

// FileProvenanceRecord is an immutable audit entry binding an uploaded
// log file's hash to its upload context. Written once per processed
// upload; never updated or deleted by this pipeline.
type FileProvenanceRecord struct {
	ID                 string    `json:"id"`
	FileName           string    `json:"file_name"`
	FilePath           string    `json:"file_path"`
	ContentType        string    `json:"content_type"`
	SizeBytes          int64     `json:"size_bytes"`
	UploadTimestamp    time.Time `json:"upload_timestamp"`
	ProcessedTimestamp time.Time `json:"processed_timestamp"`
	SHA256Hash         string    `json:"sha256_hash"`
	CreatedAt          time.Time `json:"created_at"`
}
