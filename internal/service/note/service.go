package note

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/clock"
	"github.com/jwalitptl/medrec-api/pkg/errors"
)

// Service owns medical notes and experiment notes. Both hang off a
// medical record and inherit its owner.
type Service struct {
	notes       repository.MedicalNoteRepository
	experiments repository.ExperimentNoteRepository
	records     repository.MedicalRecordRepository
	eval        *access.Evaluator
	clock       clock.Clock
}

func NewService(notes repository.MedicalNoteRepository, experiments repository.ExperimentNoteRepository, records repository.MedicalRecordRepository, eval *access.Evaluator, clk clock.Clock) *Service {
	return &Service{
		notes:       notes,
		experiments: experiments,
		records:     records,
		eval:        eval,
		clock:       clk,
	}
}

func (s *Service) FindNote(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.MedicalNote, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	note, err := s.notes.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, note.OwnerID, note.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("medical note", nil)
	}
	return note, nil
}

func (s *Service) UpsertNote(ctx context.Context, requester *model.Requester, note *model.MedicalNote) (*model.MedicalNote, error) {
	if err := s.checkParent(ctx, requester, note.MedicalRecordID, note.OwnerID); err != nil {
		return nil, err
	}

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	now := s.clock.NowMillis()
	if note.CreatedAt == 0 {
		note.CreatedAt = now
	}
	note.LastModified = now

	if err := s.notes.Upsert(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) FilterNotes(ctx context.Context, filter *model.MedicalNoteFilter) ([]*model.MedicalNote, int64, error) {
	return s.notes.Filter(ctx, filter)
}

func (s *Service) DeleteNotes(ctx context.Context, filter *model.MedicalNoteFilter) (int64, error) {
	return s.notes.DeleteWhere(ctx, filter)
}

func (s *Service) FindExperiment(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.ExperimentNote, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	note, err := s.experiments.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, note.OwnerID, note.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("experiment note", nil)
	}
	return note, nil
}

func (s *Service) UpsertExperiment(ctx context.Context, requester *model.Requester, note *model.ExperimentNote) (*model.ExperimentNote, error) {
	if err := s.checkParent(ctx, requester, note.MedicalRecordID, note.OwnerID); err != nil {
		return nil, err
	}

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	now := s.clock.NowMillis()
	if note.CreatedAt == 0 {
		note.CreatedAt = now
	}
	note.LastModified = now

	if err := s.experiments.Upsert(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) FilterExperiments(ctx context.Context, filter *model.ExperimentNoteFilter) ([]*model.ExperimentNote, int64, error) {
	return s.experiments.Filter(ctx, filter)
}

func (s *Service) DeleteExperiments(ctx context.Context, filter *model.ExperimentNoteFilter) (int64, error) {
	return s.experiments.DeleteWhere(ctx, filter)
}

// checkParent enforces the parent-consistency invariant: the note's
// owner matches the parent record's owner, and the requester is scoped
// to the parent.
func (s *Service) checkParent(ctx context.Context, requester *model.Requester, recordID, ownerID uuid.UUID) error {
	if recordID == uuid.Nil {
		return errors.NewBadRequest("medical record id is required", nil)
	}

	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return err
	}

	parent, err := s.records.Find(ctx, recordID)
	if err != nil {
		return err
	}
	if ownerID != parent.OwnerID {
		return errors.NewBadRequest("note owner must match the parent record owner", nil)
	}

	ok, err := policy.Matches(ctx, parent.OwnerID, parent.CreatorID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Forbidden("parent record not accessible")
	}
	return nil
}
