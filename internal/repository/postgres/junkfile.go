package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	apperrors "github.com/jwalitptl/medrec-api/pkg/errors"
)

type junkFileRepository struct {
	BaseRepository
}

func NewJunkFileRepository(base BaseRepository) repository.JunkFileRepository {
	return &junkFileRepository{base}
}

// enqueueJunkFile inserts a queue entry within the caller's
// transaction so an aborted deletion never leaves an orphaned entry.
func enqueueJunkFile(ctx context.Context, tx *sqlx.Tx, fullPath string) error {
	query := `
		INSERT INTO junk_files (id, full_path, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, uuid.New(), fullPath, time.Now())
	if err != nil {
		return fmt.Errorf("failed to enqueue junk file: %w", err)
	}
	return nil
}

func (r *junkFileRepository) ListPending(ctx context.Context, limit int) ([]*model.JunkFile, error) {
	query := `SELECT * FROM junk_files ORDER BY created_at ASC LIMIT $1`
	var files []*model.JunkFile
	if err := r.GetDB().SelectContext(ctx, &files, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list junk files: %w", err)
	}
	return files, nil
}

func (r *junkFileRepository) Remove(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM junk_files WHERE id = $1`
	result, err := r.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to remove junk file: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("junk file", nil)
	}
	return nil
}
