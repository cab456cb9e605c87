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

var imageSortCols = map[string]string{
	"name":          "name",
	"created":       "created_at",
	"last_modified": "last_modified",
}

type medicalImageRepository struct {
	BaseRepository
	eval *access.Evaluator
}

func NewMedicalImageRepository(base BaseRepository, eval *access.Evaluator) repository.MedicalImageRepository {
	return &medicalImageRepository{base, eval}
}

func (r *medicalImageRepository) Find(ctx context.Context, id uuid.UUID) (*model.MedicalImage, error) {
	query := `SELECT * FROM medical_images WHERE id = $1`
	var image model.MedicalImage
	if err := r.GetDB().GetContext(ctx, &image, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("medical image", err)
		}
		return nil, fmt.Errorf("failed to get medical image: %w", err)
	}
	return &image, nil
}

func (r *medicalImageRepository) Upsert(ctx context.Context, image *model.MedicalImage) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO medical_images (
				id, medical_record_id, owner_id, creator_id, name,
				full_path, created_at, last_modified
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				full_path = EXCLUDED.full_path,
				last_modified = EXCLUDED.last_modified
		`
		_, err := tx.ExecContext(ctx, query,
			image.ID,
			image.MedicalRecordID,
			image.OwnerID,
			image.CreatorID,
			image.Name,
			image.FullPath,
			image.CreatedAt,
			image.LastModified,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflict("medical image already exists", err)
			}
			return fmt.Errorf("failed to upsert medical image: %w", err)
		}
		return nil
	})
}

func (r *medicalImageRepository) buildWhere(filter *model.MedicalImageFilter) (*queryBuilder, error) {
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

func (r *medicalImageRepository) Filter(ctx context.Context, filter *model.MedicalImageFilter) ([]*model.MedicalImage, int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM medical_images`+qb.whereClause(), qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count medical images: %w", err)
	}

	query := `SELECT * FROM medical_images` + qb.whereClause() +
		orderBy(filter.Sort, imageSortCols, "last_modified DESC") +
		paginate(filter.PageSpec)

	images := []*model.MedicalImage{}
	if err := r.GetDB().SelectContext(ctx, &images, query, qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to filter medical images: %w", err)
	}
	return images, total, nil
}

// DeleteWhere removes every scoped row the filter matches, queueing
// each file path in the same transaction.
func (r *medicalImageRepository) DeleteWhere(ctx context.Context, filter *model.MedicalImageFilter) (int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var paths []string
		if err := tx.SelectContext(ctx, &paths, `SELECT full_path FROM medical_images`+qb.whereClause(), qb.args...); err != nil {
			return fmt.Errorf("failed to list medical image paths: %w", err)
		}
		for _, path := range paths {
			if err := enqueueJunkFile(ctx, tx, path); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM medical_images`+qb.whereClause(), qb.args...)
		if err != nil {
			return fmt.Errorf("failed to delete medical images: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	return count, err
}

type prescriptionImageRepository struct {
	BaseRepository
	eval *access.Evaluator
}

func NewPrescriptionImageRepository(base BaseRepository, eval *access.Evaluator) repository.PrescriptionImageRepository {
	return &prescriptionImageRepository{base, eval}
}

func (r *prescriptionImageRepository) Find(ctx context.Context, id uuid.UUID) (*model.PrescriptionImage, error) {
	query := `SELECT * FROM prescription_images WHERE id = $1`
	var image model.PrescriptionImage
	if err := r.GetDB().GetContext(ctx, &image, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("prescription image", err)
		}
		return nil, fmt.Errorf("failed to get prescription image: %w", err)
	}
	return &image, nil
}

func (r *prescriptionImageRepository) Upsert(ctx context.Context, image *model.PrescriptionImage) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO prescription_images (
				id, prescription_id, owner_id, creator_id, name,
				full_path, available, created_at, last_modified
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				full_path = EXCLUDED.full_path,
				available = EXCLUDED.available,
				last_modified = EXCLUDED.last_modified
		`
		_, err := tx.ExecContext(ctx, query,
			image.ID,
			image.PrescriptionID,
			image.OwnerID,
			image.CreatorID,
			image.Name,
			image.FullPath,
			image.Available,
			image.CreatedAt,
			image.LastModified,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflict("prescription image already exists", err)
			}
			return fmt.Errorf("failed to upsert prescription image: %w", err)
		}
		return nil
	})
}

func (r *prescriptionImageRepository) buildWhere(filter *model.PrescriptionImageFilter) (*queryBuilder, error) {
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
	if filter.PrescriptionID != nil {
		qb.equal("prescription_id", *filter.PrescriptionID)
	}
	if filter.Available != nil {
		qb.equal("available", *filter.Available)
	}
	qb.contains("name", filter.Name)
	qb.span("created_at", filter.Created)
	qb.span("last_modified", filter.Modified)
	return qb, nil
}

func (r *prescriptionImageRepository) Filter(ctx context.Context, filter *model.PrescriptionImageFilter) ([]*model.PrescriptionImage, int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM prescription_images`+qb.whereClause(), qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescription images: %w", err)
	}

	query := `SELECT * FROM prescription_images` + qb.whereClause() +
		orderBy(filter.Sort, imageSortCols, "last_modified DESC") +
		paginate(filter.PageSpec)

	images := []*model.PrescriptionImage{}
	if err := r.GetDB().SelectContext(ctx, &images, query, qb.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to filter prescription images: %w", err)
	}
	return images, total, nil
}

// DeleteWhere hard-deletes every scoped row the filter matches,
// queueing each file path in the same transaction.
func (r *prescriptionImageRepository) DeleteWhere(ctx context.Context, filter *model.PrescriptionImageFilter) (int64, error) {
	qb, err := r.buildWhere(filter)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var paths []string
		if err := tx.SelectContext(ctx, &paths, `SELECT full_path FROM prescription_images`+qb.whereClause(), qb.args...); err != nil {
			return fmt.Errorf("failed to list prescription image paths: %w", err)
		}
		for _, path := range paths {
			if err := enqueueJunkFile(ctx, tx, path); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM prescription_images`+qb.whereClause(), qb.args...)
		if err != nil {
			return fmt.Errorf("failed to delete prescription images: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	return count, err
}
