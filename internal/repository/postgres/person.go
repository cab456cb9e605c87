package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	apperrors "github.com/jwalitptl/medrec-api/pkg/errors"
)

type personRepository struct {
	BaseRepository
}

func NewPersonRepository(base BaseRepository) repository.PersonRepository {
	return &personRepository{base}
}

func (r *personRepository) Get(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	query := `SELECT * FROM people WHERE id = $1`
	var person model.Person
	if err := r.GetDB().GetContext(ctx, &person, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("person", err)
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return &person, nil
}

func (r *personRepository) Upsert(ctx context.Context, person *model.Person) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO people (id, role, status, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				name = EXCLUDED.name,
				email = EXCLUDED.email,
				updated_at = EXCLUDED.updated_at
		`
		now := time.Now()
		if person.CreatedAt.IsZero() {
			person.CreatedAt = now
		}
		person.UpdatedAt = now

		_, err := tx.ExecContext(ctx, query,
			person.ID,
			person.Role,
			person.Status,
			person.Name,
			person.Email,
			person.CreatedAt,
			person.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflict("person already exists", err)
			}
			return fmt.Errorf("failed to upsert person: %w", err)
		}
		return nil
	})
}

func (r *personRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM people WHERE id = $1`
	result, err := r.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("person", nil)
	}
	return nil
}

func (r *personRepository) List(ctx context.Context, role *model.Role) ([]*model.Person, error) {
	query := `SELECT * FROM people`
	args := []interface{}{}
	if role != nil {
		query += ` WHERE role = $1`
		args = append(args, *role)
	}
	query += ` ORDER BY created_at DESC`

	var people []*model.Person
	if err := r.GetDB().SelectContext(ctx, &people, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}
