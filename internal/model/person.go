package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

type PersonStatus string

const (
	PersonStatusPending  PersonStatus = "pending"
	PersonStatusActive   PersonStatus = "active"
	PersonStatusInactive PersonStatus = "inactive"
)

// Person is the identity of every requester and every record
// owner/creator.
type Person struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	Role      Role         `db:"role" json:"role"`
	Status    PersonStatus `db:"status" json:"status"`
	Name      string       `db:"name" json:"name"`
	Email     string       `db:"email" json:"email"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// Requester is the identity a query or mutation runs on behalf of.
type Requester struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
