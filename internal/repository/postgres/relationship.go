package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	apperrors "github.com/jwalitptl/medrec-api/pkg/errors"
)

type relationshipRepository struct {
	BaseRepository
}

func NewRelationshipRepository(base BaseRepository) repository.RelationshipRepository {
	return &relationshipRepository{base}
}

func (r *relationshipRepository) Get(ctx context.Context, id uuid.UUID) (*model.Relationship, error) {
	query := `SELECT * FROM relationships WHERE id = $1`
	var rel model.Relationship
	if err := r.GetDB().GetContext(ctx, &rel, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("relationship", err)
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return &rel, nil
}

func (r *relationshipRepository) Upsert(ctx context.Context, rel *model.Relationship) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// One edge per unordered pair. A second request between the
		// same two people, in either direction, is a conflict.
		existsQuery := `
			SELECT COUNT(*) FROM relationships
			WHERE id != $1
			  AND ((source_id = $2 AND target_id = $3) OR (source_id = $3 AND target_id = $2))
		`
		var count int
		if err := tx.GetContext(ctx, &count, existsQuery, rel.ID, rel.SourceID, rel.TargetID); err != nil {
			return fmt.Errorf("failed to check relationship pair: %w", err)
		}
		if count > 0 {
			return apperrors.NewConflict("relationship already exists", nil)
		}

		query := `
			INSERT INTO relationships (id, source_id, target_id, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
		`
		if rel.CreatedAt.IsZero() {
			rel.CreatedAt = time.Now()
		}

		_, err := tx.ExecContext(ctx, query,
			rel.ID,
			rel.SourceID,
			rel.TargetID,
			rel.Status,
			rel.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflict("relationship already exists", err)
			}
			return fmt.Errorf("failed to upsert relationship: %w", err)
		}
		return nil
	})
}

func (r *relationshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM relationships WHERE id = $1`
	result, err := r.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("relationship", nil)
	}
	return nil
}

func (r *relationshipRepository) List(ctx context.Context, filter *model.RelationshipFilter) ([]*model.Relationship, error) {
	qb := newQueryBuilder()
	if filter != nil {
		if filter.PersonID != nil {
			n := qb.next()
			qb.where(fmt.Sprintf("(source_id = $%d OR target_id = $%d)", n, n+1), *filter.PersonID, *filter.PersonID)
		}
		if filter.Status != nil {
			qb.equal("status", *filter.Status)
		}
	}

	query := `SELECT * FROM relationships` + qb.whereClause() + ` ORDER BY created_at DESC`
	var rels []*model.Relationship
	if err := r.GetDB().SelectContext(ctx, &rels, query, qb.args...); err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	return rels, nil
}

func (r *relationshipRepository) HasActiveEdge(ctx context.Context, sourceID, targetID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*) FROM relationships
		WHERE source_id = $1 AND target_id = $2 AND status = 'active'
	`
	var count int
	if err := r.GetDB().GetContext(ctx, &count, query, sourceID, targetID); err != nil {
		return false, fmt.Errorf("failed to check active edge: %w", err)
	}
	return count > 0, nil
}
