package prescription

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/clock"
	"github.com/jwalitptl/medrec-api/pkg/errors"
	"github.com/jwalitptl/medrec-api/pkg/logger"
	"github.com/jwalitptl/medrec-api/pkg/metrics"
)

// Service owns prescriptions and their dependent images, including the
// prescription-rooted cascade.
type Service struct {
	repo       repository.PrescriptionRepository
	recordRepo repository.MedicalRecordRepository
	uow        repository.UnitOfWork
	eval       *access.Evaluator
	clock      clock.Clock
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewService(repo repository.PrescriptionRepository, recordRepo repository.MedicalRecordRepository, uow repository.UnitOfWork, eval *access.Evaluator, clk clock.Clock, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:       repo,
		recordRepo: recordRepo,
		uow:        uow,
		eval:       eval,
		clock:      clk,
		logger:     logger,
		metrics:    m,
	}
}

func (s *Service) Find(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.Prescription, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	prescription, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, prescription.OwnerID, prescription.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("prescription", nil)
	}
	return prescription, nil
}

func (s *Service) Upsert(ctx context.Context, requester *model.Requester, prescription *model.Prescription) (*model.Prescription, error) {
	if requester == nil {
		return nil, errors.Unauthorized("requester required")
	}
	if prescription.MedicalRecordID == uuid.Nil {
		return nil, errors.NewBadRequest("medical record id is required", nil)
	}
	if prescription.Name == "" {
		return nil, errors.NewBadRequest("name is required", nil)
	}

	// A child row stays consistent with its parent: same owner, and
	// only someone scoped to the parent record may attach to it.
	parent, err := s.recordRepo.Find(ctx, prescription.MedicalRecordID)
	if err != nil {
		return nil, err
	}
	if prescription.OwnerID != parent.OwnerID {
		return nil, errors.NewBadRequest("prescription owner must match the parent record owner", nil)
	}

	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}
	ok, err := policy.Matches(ctx, parent.OwnerID, parent.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("parent record not accessible")
	}

	if prescription.ID == uuid.Nil {
		prescription.ID = uuid.New()
	}
	now := s.clock.NowMillis()
	if prescription.CreatedAt == 0 {
		prescription.CreatedAt = now
	}
	prescription.LastModified = now

	if err := s.repo.Upsert(ctx, prescription); err != nil {
		return nil, err
	}
	return prescription, nil
}

func (s *Service) Filter(ctx context.Context, filter *model.PrescriptionFilter) ([]*model.Prescription, int64, error) {
	return s.repo.Filter(ctx, filter)
}

func (s *Service) DeleteWhere(ctx context.Context, filter *model.PrescriptionFilter) (int64, error) {
	return s.repo.DeleteWhere(ctx, filter)
}

// DeleteCascade removes a prescription and its images atomically,
// queueing every image path for the cleanup worker.
func (s *Service) DeleteCascade(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.CascadeResult, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	prescription, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, prescription.OwnerID, prescription.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("prescription not accessible")
	}

	var result model.CascadeResult
	err = s.uow.Run(ctx, func(tx repository.RecordTx) error {
		images, err := tx.ListPrescriptionImages(ctx, id)
		if err != nil {
			return err
		}
		for _, image := range images {
			if err := tx.EnqueueJunkFile(ctx, image.FullPath); err != nil {
				return err
			}
			if err := tx.DeletePrescriptionImage(ctx, image.ID); err != nil {
				return err
			}
			result.PrescriptionImages++
			result.JunkFilesEnqueued++
		}
		if err := tx.DeletePrescription(ctx, id); err != nil {
			return err
		}
		result.PrescriptionsDeleted = 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CascadeDeletes.Inc()
		s.metrics.CascadeRows.Add(float64(result.Total()))
	}
	s.logger.Info("prescription cascade deleted", "prescription_id", id.String(), "rows", result.Total())
	return &result, nil
}
