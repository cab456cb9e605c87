package model

import "github.com/google/uuid"

// Entity filters compose the query scope with entity-specific
// predicates. Zero-valued fields are no-ops: an empty filter matches
// every row the requester is scoped to. All ranges are inclusive and
// text matches are case-insensitive substring matches.

type MedicalRecordFilter struct {
	QueryScope
	ID       *uuid.UUID `json:"id" form:"id"`
	Name     string     `json:"name" form:"name"`
	Time     Int64Range `json:"time"`
	Created  Int64Range `json:"created"`
	Modified Int64Range `json:"modified"`
	Sort     SortOrder  `json:"sort"`
	PageSpec
}

type MedicalNoteFilter struct {
	QueryScope
	ID              *uuid.UUID `json:"id" form:"id"`
	MedicalRecordID *uuid.UUID `json:"medical_record_id" form:"medical_record_id"`
	Content         string     `json:"content" form:"content"`
	Created         Int64Range `json:"created"`
	Modified        Int64Range `json:"modified"`
	Sort            SortOrder  `json:"sort"`
	PageSpec
}

type ExperimentNoteFilter struct {
	QueryScope
	ID              *uuid.UUID `json:"id" form:"id"`
	MedicalRecordID *uuid.UUID `json:"medical_record_id" form:"medical_record_id"`
	Content         string     `json:"content" form:"content"`
	Created         Int64Range `json:"created"`
	Modified        Int64Range `json:"modified"`
	Sort            SortOrder  `json:"sort"`
	PageSpec
}

type MedicalImageFilter struct {
	QueryScope
	ID              *uuid.UUID `json:"id" form:"id"`
	MedicalRecordID *uuid.UUID `json:"medical_record_id" form:"medical_record_id"`
	Name            string     `json:"name" form:"name"`
	Created         Int64Range `json:"created"`
	Modified        Int64Range `json:"modified"`
	Sort            SortOrder  `json:"sort"`
	PageSpec
}

type PrescriptionFilter struct {
	QueryScope
	ID              *uuid.UUID `json:"id" form:"id"`
	MedicalRecordID *uuid.UUID `json:"medical_record_id" form:"medical_record_id"`
	Name            string     `json:"name" form:"name"`
	Created         Int64Range `json:"created"`
	Modified        Int64Range `json:"modified"`
	Sort            SortOrder  `json:"sort"`
	PageSpec
}

type PrescriptionImageFilter struct {
	QueryScope
	ID             *uuid.UUID `json:"id" form:"id"`
	PrescriptionID *uuid.UUID `json:"prescription_id" form:"prescription_id"`
	Name           string     `json:"name" form:"name"`
	Available      *bool      `json:"available" form:"available"`
	Created        Int64Range `json:"created"`
	Modified       Int64Range `json:"modified"`
	Sort           SortOrder  `json:"sort"`
	PageSpec
}
