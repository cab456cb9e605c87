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

var prescriptionSortCols = map[string]string{
	"name":          "name",
	"created":       "created_at",
	"last_modified": "last_modified",
}

type prescriptionRepository struct {
	BaseRepository
	eval *access.Evaluator
}

func NewPrescriptionRepository(base BaseRepository, eval *access.Evaluator) repository.PrescriptionRepository {
	return &prescriptionRepository{base, eval}
}

func (r *prescriptionRepository) Find(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `SELECT * FROM prescriptions WHERE id = $1`
	var prescription model.Prescription
	if err := r.GetDB().GetContext(ctx, &prescription, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("prescription", err)
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return &prescription, nil
}

func (r *prescriptionRepository) Upsert(ctx context.Context, prescription *model.Prescription) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO prescriptions (
				id, medical_record_id, owner_id, creator_id, name,
				description, created_at, last_modified
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				last_modified = EXCLUDED.last_modified
		`
		_, err := tx.ExecContext(ctx, query,
			prescription.ID,
			prescription.MedicalRecordID,
			prescription.OwnerID,
			prescription.CreatorID,
			prescription.Name,
			prescription.Description,
			prescription.CreatedAt,
			prescription.LastModified,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflict("prescription already exists", err)
			}
			return fmt.Errorf("failed to upsert prescription: %w", err)
		}
		return nil
	})
}

func (r *prescriptionRepository) buildWhere(filter *model.PrescriptionFilter) (*queryBuilder, error) {
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
	qb.contains("name", filter.Name)
	qb.span("created_at", filter.Created)
	qb.span("last_modified", filter.Modified)
	return qb, nil
}

func (r *prescriptionRepository) Filter(ctx context.Context, filter *model.PrescriptionFilter) ([]*model.Prescription, int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM prescriptions`+qb.whereClause(), qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	query := `SELECT * FROM prescriptions` + qb.whereClause() +
		orderBy(filter.Sort, prescriptionSortCols, "last_modified DESC") +
		paginate(filter.PageSpec)

	prescriptions := []*model.Prescription{}
	if err := r.GetDB().SelectContext(ctx, &prescriptions, query, qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to filter prescriptions: %w", err)
	}
	return prescriptions, total, nil
}

// DeleteWhere removes every scoped prescription the filter matches
// together with its dependent images. Image paths are queued in the
// same transaction so nothing orphans on the file system.
func (r *prescriptionRepository) DeleteWhere(ctx context.Context, filter *model.PrescriptionFilter) (int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return 0, err
	}

	matchIDs := `SELECT id FROM prescriptions` + qb.whereClause()

	var count int64
	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var paths []string
		if err := tx.SelectContext(ctx, &paths,
			`SELECT full_path FROM prescription_images WHERE prescription_id IN (`+matchIDs+`)`, qb.args...); err != nil {
			return fmt.Errorf("failed to list prescription image paths: %w", err)
		}
		for _, path := range paths {
			if err := enqueueJunkFile(ctx, tx, path); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM prescription_images WHERE prescription_id IN (`+matchIDs+`)`, qb.args...); err != nil {
			return fmt.Errorf("failed to delete prescription images: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM prescriptions`+qb.whereClause(), qb.args...)
		if err != nil {
			return fmt.Errorf("failed to delete prescriptions: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	return count, err
}
