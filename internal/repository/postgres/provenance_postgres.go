package postgres

import (
	"context"
	"database/sql"

	"github.com/DF-AutoPilot/droneforce-functions/internal/model"
	"github.com/DF-AutoPilot/droneforce-functions/internal/repository"
)

// ProvenancePostgres is a PostgreSQL implementation of repository.ProvenanceRepository.
// The table is append-only; no update or delete statements exist here.
type ProvenancePostgres struct {
	db *sql.DB
}

// NewProvenancePostgres creates a new ProvenancePostgres repository.
func NewProvenancePostgres(db *sql.DB) *ProvenancePostgres {
	return &ProvenancePostgres{db: db}
}

var _ repository.ProvenanceRepository = (*ProvenancePostgres)(nil)

// Insert stores a new provenance row and returns the stored record.
// id and created_at are assigned by the database.
func (r *ProvenancePostgres) Insert(ctx context.Context, rec *model.FileProvenanceRecord) (*model.FileProvenanceRecord, error) {
	const q = `
		INSERT INTO file_provenance (file_name, file_path, content_type, size_bytes, upload_timestamp, processed_timestamp, sha256_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, file_name, file_path, content_type, size_bytes, upload_timestamp, processed_timestamp, sha256_hash, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		rec.FileName,
		rec.FilePath,
		rec.ContentType,
		rec.SizeBytes,
		rec.UploadTimestamp,
		rec.ProcessedTimestamp,
		rec.SHA256Hash,
	)
	var out model.FileProvenanceRecord
	if err := row.Scan(
		&out.ID,
		&out.FileName,
		&out.FilePath,
		&out.ContentType,
		&out.SizeBytes,
		&out.UploadTimestamp,
		&out.ProcessedTimestamp,
		&out.SHA256Hash,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns provenance records using LIMIT/OFFSET pagination and a total count.
func (r *ProvenancePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.FileProvenanceRecord], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM file_provenance`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT id, file_name, file_path, content_type, size_bytes, upload_timestamp, processed_timestamp, sha256_hash, created_at
		FROM file_provenance
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.FileProvenanceRecord, 0)
	for rows.Next() {
		var rec model.FileProvenanceRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.FileName,
			&rec.FilePath,
			&rec.ContentType,
			&rec.SizeBytes,
			&rec.UploadTimestamp,
			&rec.ProcessedTimestamp,
			&rec.SHA256Hash,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.FileProvenanceRecord]{
		Items: items,
		Total: total,
	}, nil
}
