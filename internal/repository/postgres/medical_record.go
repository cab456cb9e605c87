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

// Sortable columns, keyed by the filter's field name. Unknown fields
// fall back to the default order so sorting is always deterministic.
var medicalRecordSortCols = map[string]string{
	"name":          "name",
	"time":          "time",
	"created":       "created_at",
	"last_modified": "last_modified",
}

type medicalRecordRepository struct {
	BaseRepository
	eval *access.Evaluator
}

func NewMedicalRecordRepository(base BaseRepository, eval *access.Evaluator) repository.MedicalRecordRepository {
	return &medicalRecordRepository{base, eval}
}

func (r *medicalRecordRepository) Find(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT * FROM medical_records WHERE id = $1`
	var record model.MedicalRecord
	if err := r.GetDB().GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("medical record", err)
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) Upsert(ctx context.Context, record *model.MedicalRecord) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO medical_records (
				id, owner_id, creator_id, name, description, time,
				created_at, last_modified
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				time = EXCLUDED.time,
				last_modified = EXCLUDED.last_modified
		`
		_, err := tx.ExecContext(ctx, query,
			record.ID,
			record.OwnerID,
			record.CreatorID,
			record.Name,
			record.Description,
			record.Time,
			record.CreatedAt,
			record.LastModified,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflict("medical record already exists", err)
			}
			return fmt.Errorf("failed to upsert medical record: %w", err)
		}
		return nil
	})
}

func (r *medicalRecordRepository) buildWhere(filter *model.MedicalRecordFilter) (*queryBuilder, error) {
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
	qb.contains("name", filter.Name)
	qb.span("time", filter.Time)
	qb.span("created_at", filter.Created)
	qb.span("last_modified", filter.Modified)
	return qb, nil
}

func (r *medicalRecordRepository) Filter(ctx context.Context, filter *model.MedicalRecordFilter) ([]*model.MedicalRecord, int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	// Total counts the scoped-and-filtered set before skip/take.
	var total int64
	countQuery := `SELECT COUNT(*) FROM medical_records` + qb.whereClause()
	if err := r.GetDB().GetContext(ctx, &total, countQuery, qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count medical records: %w", err)
	}

	query := `SELECT * FROM medical_records` + qb.whereClause() +
		orderBy(filter.Sort, medicalRecordSortCols, "last_modified DESC") +
		paginate(filter.PageSpec)

	records := []*model.MedicalRecord{}
	if err := r.GetDB().SelectContext(ctx, &records, query, qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to filter medical records: %w", err)
	}
	return records, total, nil
}
