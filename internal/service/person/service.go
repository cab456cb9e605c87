package person

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/errors"
)

type Service struct {
	repo repository.PersonRepository
}

func NewService(repo repository.PersonRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Upsert(ctx context.Context, person *model.Person) (*model.Person, error) {
	if person.Name == "" {
		return nil, errors.NewBadRequest("name is required", nil)
	}
	switch person.Role {
	case model.RolePatient, model.RoleDoctor, model.RoleAdmin:
	default:
		return nil, errors.NewBadRequest("invalid role", nil)
	}

	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}
	if person.Status == "" {
		person.Status = model.PersonStatusPending
	}

	if err := s.repo.Upsert(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, role *model.Role) ([]*model.Person, error) {
	return s.repo.List(ctx, role)
}
