package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	apperrors "github.com/jwalitptl/medrec-api/pkg/errors"
)

var noteSortCols = map[string]string{
	"title":         "title",
	"created":       "created_at",
	"last_modified": "last_modified",
}

// Medical notes and experiment notes share one row shape across two
// tables, so both repositories lean on the same helpers.

type medicalNoteRepository struct {
	BaseRepository
	eval *access.Evaluator
}

func NewMedicalNoteRepository(base BaseRepository, eval *access.Evaluator) repository.MedicalNoteRepository {
	return &medicalNoteRepository{base, eval}
}

func (r *medicalNoteRepository) Find(ctx context.Context, id uuid.UUID) (*model.MedicalNote, error) {
	query := `SELECT * FROM medical_notes WHERE id = $1`
	var note model.MedicalNote
	if err := r.GetDB().GetContext(ctx, &note, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("medical note", err)
		}
		return nil, fmt.Errorf("failed to get medical note: %w", err)
	}
	return &note, nil
}

func (r *medicalNoteRepository) Upsert(ctx context.Context, note *model.MedicalNote) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return upsertNote(ctx, tx, "medical_notes", note.ID, note.MedicalRecordID,
			note.OwnerID, note.CreatorID, note.Title, note.Content, note.CreatedAt, note.LastModified)
	})
}

func (r *medicalNoteRepository) buildWhere(filter *model.MedicalNoteFilter) (*queryBuilder, error) {
	policy, err := r.eval.Scope(filter.Requester, filter.Partner)
	if err != nil {
		return nil, err
	}

	qb := newQueryBuilder()
	frag, args := policy.SQL("owner_id", "creator_id", qb.next())
	qb.where(frag, args...)

	if filter.ID != nil {
		qb.equal("id", *filter.ID)
	}
	if filter.MedicalRecordID != nil {
		qb.equal("medical_record_id", *filter.MedicalRecordID)
	}
	qb.contains("content", filter.Content)
	qb.span("created_at", filter.Created)
	qb.span("last_modified", filter.Modified)
	return qb, nil
}

func (r *medicalNoteRepository) Filter(ctx context.Context, filter *model.MedicalNoteFilter) ([]*model.MedicalNote, int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM medical_notes`+qb.whereClause(), qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count medical notes: %w", err)
	}

	query := `SELECT * FROM medical_notes` + qb.whereClause() +
		orderBy(filter.Sort, noteSortCols, "last_modified DESC") +
		paginate(filter.PageSpec)

	notes := []*model.MedicalNote{}
	if err := r.GetDB().SelectContext(ctx, &notes, query, qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to filter medical notes: %w", err)
	}
	return notes, total, nil
}

func (r *medicalNoteRepository) DeleteWhere(ctx context.Context, filter *model.MedicalNoteFilter) (int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return 0, err
	}
	return execDelete(ctx, r.GetDB(), "medical_notes", qb)
}

type experimentNoteRepository struct {
	BaseRepository
	eval *access.Evaluator
}

func NewExperimentNoteRepository(base BaseRepository, eval *access.Evaluator) repository.ExperimentNoteRepository {
	return &experimentNoteRepository{base, eval}
}

func (r *experimentNoteRepository) Find(ctx context.Context, id uuid.UUID) (*model.ExperimentNote, error) {
	query := `SELECT * FROM experiment_notes WHERE id = $1`
	var note model.ExperimentNote
	if err := r.GetDB().GetContext(ctx, &note, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("experiment note", err)
		}
		return nil, fmt.Errorf("failed to get experiment note: %w", err)
	}
	return &note, nil
}

func (r *experimentNoteRepository) Upsert(ctx context.Context, note *model.ExperimentNote) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return upsertNote(ctx, tx, "experiment_notes", note.ID, note.MedicalRecordID,
			note.OwnerID, note.CreatorID, note.Title, note.Content, note.CreatedAt, note.LastModified)
	})
}

func (r *experimentNoteRepository) buildWhere(filter *model.ExperimentNoteFilter) (*queryBuilder, error) {
	policy, err := r.eval.Scope(filter.Requester, filter.Partner)
	if err != nil {
		return nil, err
	}

	qb := newQueryBuilder()
	frag, args := policy.SQL("owner_id", "creator_id", qb.next())
	qb.where(frag, args...)

	if filter.ID != nil {
		qb.equal("id", *filter.ID)
	}
	if filter.MedicalRecordID != nil {
		qb.equal("medical_record_id", *filter.MedicalRecordID)
	}
	qb.contains("content", filter.Content)
	qb.span("created_at", filter.Created)
	qb.span("last_modified", filter.Modified)
	return qb, nil
}

func (r *experimentNoteRepository) Filter(ctx context.Context, filter *model.ExperimentNoteFilter) ([]*model.ExperimentNote, int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM experiment_notes`+qb.whereClause(), qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count experiment notes: %w", err)
	}

	query := `SELECT * FROM experiment_notes` + qb.whereClause() +
		orderBy(filter.Sort, noteSortCols, "last_modified DESC") +
		paginate(filter.PageSpec)

	notes := []*model.ExperimentNote{}
	if err := r.GetDB().SelectContext(ctx, &notes, query, qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to filter experiment notes: %w", err)
	}
	return notes, total, nil
}

func (r *experimentNoteRepository) DeleteWhere(ctx context.Context, filter *model.ExperimentNoteFilter) (int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return 0, err
	}
	return execDelete(ctx, r.GetDB(), "experiment_notes", qb)
}

func upsertNote(ctx context.Context, tx *sqlx.Tx, table string, id, recordID, ownerID, creatorID uuid.UUID, title, content string, createdAt, lastModified int64) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, medical_record_id, owner_id, creator_id, title, content,
			created_at, last_modified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			last_modified = EXCLUDED.last_modified
	`, table)

	_, err := tx.ExecContext(ctx, query, id, recordID, ownerID, creatorID, title, content, createdAt, lastModified)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict("note already exists", err)
		}
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func execDelete(ctx context.Context, db *sqlx.DB, table string, qb *queryBuilder) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM `+table+qb.whereClause(), qb.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
