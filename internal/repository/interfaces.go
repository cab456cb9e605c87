package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/model"
)

// All repository interfaces in one file
type (
	// PersonRepository handles requester and record-owner identities
	PersonRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Person, error)
		Upsert(ctx context.Context, person *model.Person) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, role *model.Role) ([]*model.Person, error)
	}

	// RelationshipRepository is the single source of truth for which
	// doctor may see whose records
	RelationshipRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Relationship, error)
		Upsert(ctx context.Context, rel *model.Relationship) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.RelationshipFilter) ([]*model.Relationship, error)
		HasActiveEdge(ctx context.Context, sourceID, targetID uuid.UUID) (bool, error)
	}

	MedicalRecordRepository interface {
		Find(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Upsert(ctx context.Context, record *model.MedicalRecord) error
		Filter(ctx context.Context, filter *model.MedicalRecordFilter) ([]*model.MedicalRecord, int64, error)
	}

	MedicalNoteRepository interface {
		Find(ctx context.Context, id uuid.UUID) (*model.MedicalNote, error)
		Upsert(ctx context.Context, note *model.MedicalNote) error
		Filter(ctx context.Context, filter *model.MedicalNoteFilter) ([]*model.MedicalNote, int64, error)
		DeleteWhere(ctx context.Context, filter *model.MedicalNoteFilter) (int64, error)
	}

	ExperimentNoteRepository interface {
		Find(ctx context.Context, id uuid.UUID) (*model.ExperimentNote, error)
		Upsert(ctx context.Context, note *model.ExperimentNote) error
		Filter(ctx context.Context, filter *model.ExperimentNoteFilter) ([]*model.ExperimentNote, int64, error)
		DeleteWhere(ctx context.Context, filter *model.ExperimentNoteFilter) (int64, error)
	}

	MedicalImageRepository interface {
		Find(ctx context.Context, id uuid.UUID) (*model.MedicalImage, error)
		Upsert(ctx context.Context, image *model.MedicalImage) error
		Filter(ctx context.Context, filter *model.MedicalImageFilter) ([]*model.MedicalImage, int64, error)
		DeleteWhere(ctx context.Context, filter *model.MedicalImageFilter) (int64, error)
	}

	PrescriptionRepository interface {
		Find(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		Upsert(ctx context.Context, prescription *model.Prescription) error
		Filter(ctx context.Context, filter *model.PrescriptionFilter) ([]*model.Prescription, int64, error)
		DeleteWhere(ctx context.Context, filter *model.PrescriptionFilter) (int64, error)
	}

	PrescriptionImageRepository interface {
		Find(ctx context.Context, id uuid.UUID) (*model.PrescriptionImage, error)
		Upsert(ctx context.Context, image *model.PrescriptionImage) error
		Filter(ctx context.Context, filter *model.PrescriptionImageFilter) ([]*model.PrescriptionImage, int64, error)
		DeleteWhere(ctx context.Context, filter *model.PrescriptionImageFilter) (int64, error)
	}

	// JunkFileRepository exposes the queue contract consumed by the
	// out-of-process cleanup worker
	JunkFileRepository interface {
		ListPending(ctx context.Context, limit int) ([]*model.JunkFile, error)
		Remove(ctx context.Context, id uuid.UUID) error
	}

	// RecordTx is the transactional surface the cascading deletion
	// orchestrator walks. Every call runs inside one unit of work;
	// nothing is visible outside until the whole walk commits.
	RecordTx interface {
		DeleteExperimentNotes(ctx context.Context, recordID uuid.UUID) (int64, error)
		DeleteMedicalNotes(ctx context.Context, recordID uuid.UUID) (int64, error)
		ListMedicalImages(ctx context.Context, recordID uuid.UUID) ([]*model.MedicalImage, error)
		DeleteMedicalImage(ctx context.Context, id uuid.UUID) error
		ListPrescriptions(ctx context.Context, recordID uuid.UUID) ([]*model.Prescription, error)
		ListPrescriptionImages(ctx context.Context, prescriptionID uuid.UUID) ([]*model.PrescriptionImage, error)
		DeletePrescriptionImage(ctx context.Context, id uuid.UUID) error
		DisablePrescriptionImage(ctx context.Context, id uuid.UUID) error
		DeletePrescription(ctx context.Context, id uuid.UUID) error
		DeleteMedicalRecord(ctx context.Context, id uuid.UUID) error
		EnqueueJunkFile(ctx context.Context, fullPath string) error
	}

	// UnitOfWork runs fn transactionally: commit on nil, rollback and
	// re-raise on error
	UnitOfWork interface {
		Run(ctx context.Context, fn func(tx RecordTx) error) error
	}
)
