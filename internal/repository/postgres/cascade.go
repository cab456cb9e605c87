package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
)

// unitOfWork runs the cascading deletion walk inside one database
// transaction via the base WithTx helper.
type unitOfWork struct {
	BaseRepository
}

func NewUnitOfWork(base BaseRepository) repository.UnitOfWork {
	return &unitOfWork{base}
}

func (u *unitOfWork) Run(ctx context.Context, fn func(tx repository.RecordTx) error) error {
	return u.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&recordTx{tx: tx})
	})
}

type recordTx struct {
	tx *sqlx.Tx
}

func (t *recordTx) DeleteExperimentNotes(ctx context.Context, recordID uuid.UUID) (int64, error) {
	return t.deleteByRecord(ctx, "experiment_notes", recordID)
}

func (t *recordTx) DeleteMedicalNotes(ctx context.Context, recordID uuid.UUID) (int64, error) {
	return t.deleteByRecord(ctx, "medical_notes", recordID)
}

func (t *recordTx) deleteByRecord(ctx context.Context, table string, recordID uuid.UUID) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE medical_record_id = $1`, recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return result.RowsAffected()
}

func (t *recordTx) ListMedicalImages(ctx context.Context, recordID uuid.UUID) ([]*model.MedicalImage, error) {
	var images []*model.MedicalImage
	err := t.tx.SelectContext(ctx, &images, `SELECT * FROM medical_images WHERE medical_record_id = $1`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical images: %w", err)
	}
	return images, nil
}

func (t *recordTx) DeleteMedicalImage(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM medical_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medical image: %w", err)
	}
	return nil
}

func (t *recordTx) ListPrescriptions(ctx context.Context, recordID uuid.UUID) ([]*model.Prescription, error) {
	var prescriptions []*model.Prescription
	err := t.tx.SelectContext(ctx, &prescriptions, `SELECT * FROM prescriptions WHERE medical_record_id = $1`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (t *recordTx) ListPrescriptionImages(ctx context.Context, prescriptionID uuid.UUID) ([]*model.PrescriptionImage, error) {
	var images []*model.PrescriptionImage
	err := t.tx.SelectContext(ctx, &images, `SELECT * FROM prescription_images WHERE prescription_id = $1`, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescription images: %w", err)
	}
	return images, nil
}

func (t *recordTx) DeletePrescriptionImage(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM prescription_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription image: %w", err)
	}
	return nil
}

func (t *recordTx) DisablePrescriptionImage(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE prescription_images SET available = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to disable prescription image: %w", err)
	}
	return nil
}

func (t *recordTx) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	return nil
}

func (t *recordTx) DeleteMedicalRecord(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medical record: %w", err)
	}
	return nil
}

func (t *recordTx) EnqueueJunkFile(ctx context.Context, fullPath string) error {
	return enqueueJunkFile(ctx, t.tx, fullPath)
}
