package image

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/clock"
	"github.com/jwalitptl/medrec-api/pkg/errors"
)

// Service owns medical images and prescription images. Removals always
// queue the file path for the cleanup worker in the same transaction
// as the row change.
type Service struct {
	images        repository.MedicalImageRepository
	prescriptions repository.PrescriptionImageRepository
	records       repository.MedicalRecordRepository
	parents       repository.PrescriptionRepository
	uow           repository.UnitOfWork
	eval          *access.Evaluator
	clock         clock.Clock
}

func NewService(images repository.MedicalImageRepository, prescriptions repository.PrescriptionImageRepository, records repository.MedicalRecordRepository, parents repository.PrescriptionRepository, uow repository.UnitOfWork, eval *access.Evaluator, clk clock.Clock) *Service {
	return &Service{
		images:        images,
		prescriptions: prescriptions,
		records:       records,
		parents:       parents,
		uow:           uow,
		eval:          eval,
		clock:         clk,
	}
}

func (s *Service) FindImage(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.MedicalImage, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	image, err := s.images.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, image.OwnerID, image.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("medical image", nil)
	}
	return image, nil
}

func (s *Service) UpsertImage(ctx context.Context, requester *model.Requester, image *model.MedicalImage) (*model.MedicalImage, error) {
	if image.MedicalRecordID == uuid.Nil {
		return nil, errors.NewBadRequest("medical record id is required", nil)
	}
	if image.FullPath == "" {
		return nil, errors.NewBadRequest("full path is required", nil)
	}

	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	parent, err := s.records.Find(ctx, image.MedicalRecordID)
	if err != nil {
		return nil, err
	}
	if image.OwnerID != parent.OwnerID {
		return nil, errors.NewBadRequest("image owner must match the parent record owner", nil)
	}

	ok, err := policy.Matches(ctx, parent.OwnerID, parent.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("parent record not accessible")
	}

	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	now := s.clock.NowMillis()
	if image.CreatedAt == 0 {
		image.CreatedAt = now
	}
	image.LastModified = now

	if err := s.images.Upsert(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *Service) FilterImages(ctx context.Context, filter *model.MedicalImageFilter) ([]*model.MedicalImage, int64, error) {
	return s.images.Filter(ctx, filter)
}

func (s *Service) DeleteImages(ctx context.Context, filter *model.MedicalImageFilter) (int64, error) {
	return s.images.DeleteWhere(ctx, filter)
}

// DeleteImage hard-deletes a medical image, queueing its file path in
// the same transaction.
func (s *Service) DeleteImage(ctx context.Context, requester *model.Requester, id uuid.UUID) error {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return err
	}

	image, err := s.images.Find(ctx, id)
	if err != nil {
		return err
	}

	ok, err := policy.Matches(ctx, image.OwnerID, image.CreatorID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Forbidden("image not accessible")
	}

	return s.uow.Run(ctx, func(tx repository.RecordTx) error {
		if err := tx.EnqueueJunkFile(ctx, image.FullPath); err != nil {
			return err
		}
		return tx.DeleteMedicalImage(ctx, image.ID)
	})
}

func (s *Service) FindPrescriptionImage(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.PrescriptionImage, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	image, err := s.prescriptions.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, image.OwnerID, image.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("prescription image", nil)
	}
	return image, nil
}

func (s *Service) UpsertPrescriptionImage(ctx context.Context, requester *model.Requester, image *model.PrescriptionImage) (*model.PrescriptionImage, error) {
	if image.PrescriptionID == uuid.Nil {
		return nil, errors.NewBadRequest("prescription id is required", nil)
	}
	if image.FullPath == "" {
		return nil, errors.NewBadRequest("full path is required", nil)
	}
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	parent, err := s.parents.Find(ctx, image.PrescriptionID)
	if err != nil {
		return nil, err
	}
	if image.OwnerID != parent.OwnerID {
		return nil, errors.NewBadRequest("image owner must match the parent prescription owner", nil)
	}

	ok, err := policy.Matches(ctx, parent.OwnerID, parent.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("parent prescription not accessible")
	}

	if image.ID == uuid.Nil {
		image.ID = uuid.New()
		image.Available = true
	}
	now := s.clock.NowMillis()
	if image.CreatedAt == 0 {
		image.CreatedAt = now
	}
	image.LastModified = now

	if err := s.prescriptions.Upsert(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}

func (s *Service) FilterPrescriptionImages(ctx context.Context, filter *model.PrescriptionImageFilter) ([]*model.PrescriptionImage, int64, error) {
	return s.prescriptions.Filter(ctx, filter)
}

func (s *Service) DeletePrescriptionImages(ctx context.Context, filter *model.PrescriptionImageFilter) (int64, error) {
	return s.prescriptions.DeleteWhere(ctx, filter)
}

// DeletePrescriptionImage removes a prescription image in the given
// mode. Soft keeps the row with Available=false; both modes queue the
// file path.
func (s *Service) DeletePrescriptionImage(ctx context.Context, requester *model.Requester, id uuid.UUID, mode model.DeletionMode) error {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return err
	}

	image, err := s.prescriptions.Find(ctx, id)
	if err != nil {
		return err
	}

	ok, err := policy.Matches(ctx, image.OwnerID, image.CreatorID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Forbidden("prescription image not accessible")
	}

	return s.uow.Run(ctx, func(tx repository.RecordTx) error {
		if err := tx.EnqueueJunkFile(ctx, image.FullPath); err != nil {
			return err
		}
		if mode == model.DeletionModeSoft {
			return tx.DisablePrescriptionImage(ctx, image.ID)
		}
		return tx.DeletePrescriptionImage(ctx, image.ID)
	})
}
