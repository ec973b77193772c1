package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistration/internal/domain"
)

type fileRepository struct {
	DB *sql.DB
}

// NewFileRepository returns a FileRepository keeping uploads as BYTEA blobs.
func NewFileRepository(db *sql.DB) domain.FileRepository {
	return &fileRepository{DB: db}
}

func (r *fileRepository) Create(ctx context.Context, f *domain.StoredFile) error {
	query := `
		INSERT INTO uploaded_files (filename, original_name, content_type, section, size, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, f.Filename, f.OriginalName, f.ContentType, f.Section, f.Size, f.Data, f.CreatedAt).
		Scan(&f.ID)
}

func (r *fileRepository) GetByFilename(ctx context.Context, filename string) (*domain.StoredFile, error) {
	query := `
		SELECT id, filename, original_name, content_type, section, size, data, created_at
		FROM uploaded_files
		WHERE filename = $1
	`
	f := &domain.StoredFile{}
	err := r.DB.QueryRowContext(ctx, query, filename).
		Scan(&f.ID, &f.Filename, &f.OriginalName, &f.ContentType, &f.Section, &f.Size, &f.Data, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *fileRepository) Delete(ctx context.Context, filename string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM uploaded_files WHERE filename = $1`, filename)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
