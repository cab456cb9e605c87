package model

import "github.com/google/uuid"

// Clinical rows keep epoch-millis timestamps supplied by pkg/clock,
// matching the numeric epoch the backing store uses.

// MedicalRecord is the root of the clinical entity chain.
type MedicalRecord struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OwnerID      uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatorID    uuid.UUID `db:"creator_id" json:"creator_id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Time         int64     `db:"time" json:"time"`
	CreatedAt    int64     `db:"created_at" json:"created_at"`
	LastModified int64     `db:"last_modified" json:"last_modified"`
}

type MedicalNote struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MedicalRecordID uuid.UUID `db:"medical_record_id" json:"medical_record_id"`
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatorID       uuid.UUID `db:"creator_id" json:"creator_id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	CreatedAt       int64     `db:"created_at" json:"created_at"`
	LastModified    int64     `db:"last_modified" json:"last_modified"`
}

type ExperimentNote struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MedicalRecordID uuid.UUID `db:"medical_record_id" json:"medical_record_id"`
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatorID       uuid.UUID `db:"creator_id" json:"creator_id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	CreatedAt       int64     `db:"created_at" json:"created_at"`
	LastModified    int64     `db:"last_modified" json:"last_modified"`
}

type MedicalImage struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MedicalRecordID uuid.UUID `db:"medical_record_id" json:"medical_record_id"`
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatorID       uuid.UUID `db:"creator_id" json:"creator_id"`
	Name            string    `db:"name" json:"name"`
	FullPath        string    `db:"full_path" json:"full_path"`
	CreatedAt       int64     `db:"created_at" json:"created_at"`
	LastModified    int64     `db:"last_modified" json:"last_modified"`
}

type Prescription struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MedicalRecordID uuid.UUID `db:"medical_record_id" json:"medical_record_id"`
	OwnerID         uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatorID       uuid.UUID `db:"creator_id" json:"creator_id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	CreatedAt       int64     `db:"created_at" json:"created_at"`
	LastModified    int64     `db:"last_modified" json:"last_modified"`
}

// PrescriptionImage supports soft deletion: Available flips to false
// while the row stays behind.
type PrescriptionImage struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	OwnerID        uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatorID      uuid.UUID `db:"creator_id" json:"creator_id"`
	Name           string    `db:"name" json:"name"`
	FullPath       string    `db:"full_path" json:"full_path"`
	Available      bool      `db:"available" json:"available"`
	CreatedAt      int64     `db:"created_at" json:"created_at"`
	LastModified   int64     `db:"last_modified" json:"last_modified"`
}

// DeletionMode distinguishes the two image removal variants.
type DeletionMode string

const (
	DeletionModeHard DeletionMode = "hard"
	DeletionModeSoft DeletionMode = "soft"
)

// CascadeResult reports what a cascading deletion removed.
type CascadeResult struct {
	RecordsDeleted       int64 `json:"records_deleted"`
	NotesDeleted         int64 `json:"notes_deleted"`
	ExperimentsDeleted   int64 `json:"experiments_deleted"`
	ImagesDeleted        int64 `json:"images_deleted"`
	PrescriptionsDeleted int64 `json:"prescriptions_deleted"`
	PrescriptionImages   int64 `json:"prescription_images_deleted"`
	JunkFilesEnqueued    int64 `json:"junk_files_enqueued"`
}

// Total is the number of rows removed across the whole chain.
func (r *CascadeResult) Total() int64 {
	return r.RecordsDeleted + r.NotesDeleted + r.ExperimentsDeleted +
		r.ImagesDeleted + r.PrescriptionsDeleted + r.PrescriptionImages
}
