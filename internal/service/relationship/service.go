package relationship

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/email"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/errors"
	"github.com/jwalitptl/medrec-api/pkg/logger"
)

// Service owns the relationship graph: the edges deciding which doctor
// sees whose records.
type Service struct {
	repo   repository.RelationshipRepository
	people repository.PersonRepository
	eval   *access.Evaluator
	email  email.Service
	logger *logger.Logger
}

func NewService(repo repository.RelationshipRepository, people repository.PersonRepository, eval *access.Evaluator, email email.Service, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		people: people,
		eval:   eval,
		email:  email,
		logger: logger,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Relationship, error) {
	return s.repo.Get(ctx, id)
}

// Upsert creates or updates an edge. Source must be a patient, target
// a doctor; the unique-pair invariant is enforced by the store.
func (s *Service) Upsert(ctx context.Context, rel *model.Relationship) (*model.Relationship, error) {
	if rel.SourceID == uuid.Nil || rel.TargetID == uuid.Nil {
		return nil, errors.NewBadRequest("source and target are required", nil)
	}
	if rel.SourceID == rel.TargetID {
		return nil, errors.NewBadRequest("source and target must differ", nil)
	}

	source, err := s.people.Get(ctx, rel.SourceID)
	if err != nil {
		return nil, err
	}
	if source.Role != model.RolePatient {
		return nil, errors.NewBadRequest("relationship source must be a patient", nil)
	}

	target, err := s.people.Get(ctx, rel.TargetID)
	if err != nil {
		return nil, err
	}
	if target.Role != model.RoleDoctor {
		return nil, errors.NewBadRequest("relationship target must be a doctor", nil)
	}

	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	if rel.Status == "" {
		rel.Status = model.RelationshipStatusPending
	}

	if err := s.repo.Upsert(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// Delete removes an edge. Either party may end the relationship; the
// other party is notified that record sharing has stopped.
func (s *Service) Delete(ctx context.Context, requester *model.Requester, id uuid.UUID) error {
	if requester == nil {
		return errors.Unauthorized("requester required")
	}

	rel, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if requester.ID != rel.SourceID && requester.ID != rel.TargetID {
		return errors.Forbidden("only a party to the relationship may remove it")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.eval.InvalidateConnection(rel.SourceID, rel.TargetID)

	otherID := rel.SourceID
	if requester.ID == rel.SourceID {
		otherID = rel.TargetID
	}
	s.notifyEnded(ctx, requester.ID, otherID)
	return nil
}

func (s *Service) List(ctx context.Context, filter *model.RelationshipFilter) ([]*model.Relationship, error) {
	return s.repo.List(ctx, filter)
}

// IsConnected is the peer-connectivity check exposed to the host
// layer.
func (s *Service) IsConnected(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.eval.IsConnected(ctx, a, b)
}

// Notification failure never fails the deletion; the edge is already
// gone.
func (s *Service) notifyEnded(ctx context.Context, removerID, otherID uuid.UUID) {
	remover, err := s.people.Get(ctx, removerID)
	if err != nil {
		s.logger.Error(err, "failed to load remover for notification")
		return
	}
	other, err := s.people.Get(ctx, otherID)
	if err != nil {
		s.logger.Error(err, "failed to load notification recipient")
		return
	}
	if other.Email == "" {
		return
	}
	if err := s.email.SendRelationshipEnded(ctx, other.Email, remover.Name); err != nil {
		s.logger.Error(err, "failed to send relationship-ended email", "to", other.Email)
	}
}
