package model

import (
	"time"

	"github.com/google/uuid"
)

type RelationshipStatus string

const (
	RelationshipStatusPending RelationshipStatus = "pending"
	RelationshipStatusActive  RelationshipStatus = "active"
)

// Relationship is a directed edge from a patient (source) to a doctor
// (target). Only active edges grant the doctor visibility into the
// patient's clinical records. At most one edge exists per unordered
// {source, target} pair.
type Relationship struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	SourceID  uuid.UUID          `db:"source_id" json:"source_id"`
	TargetID  uuid.UUID          `db:"target_id" json:"target_id"`
	Status    RelationshipStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

type RelationshipFilter struct {
	PersonID *uuid.UUID          `json:"person_id" form:"person_id"`
	Status   *RelationshipStatus `json:"status" form:"status"`
}
