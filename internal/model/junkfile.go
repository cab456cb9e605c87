package model

import (
	"time"

	"github.com/google/uuid"
)

// JunkFile is a queued file-system path awaiting deletion by the
// out-of-process cleanup worker. Rows are appended inside the same
// transaction as the deletion that orphaned the file, and removed by
// the worker once the file is gone.
type JunkFile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullPath  string    `db:"full_path" json:"full_path"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
