package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/clock"
	"github.com/jwalitptl/medrec-api/pkg/errors"
	"github.com/jwalitptl/medrec-api/pkg/logger"
	"github.com/jwalitptl/medrec-api/pkg/metrics"
)

// Service owns medical records and the cascading deletion walk over
// their dependent chain.
type Service struct {
	repo    repository.MedicalRecordRepository
	uow     repository.UnitOfWork
	eval    *access.Evaluator
	clock   clock.Clock
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.MedicalRecordRepository, uow repository.UnitOfWork, eval *access.Evaluator, clk clock.Clock, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		uow:     uow,
		eval:    eval,
		clock:   clk,
		logger:  logger,
		metrics: m,
	}
}

func (s *Service) recordCascade(result *model.CascadeResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.CascadeDeletes.Inc()
	s.metrics.CascadeRows.Add(float64(result.Total()))
}

// Find returns the record if the requester's scope covers it. A row
// outside the scope reads as not found, never as someone else's data.
func (s *Service) Find(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.MedicalRecord, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, record.OwnerID, record.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("medical record", nil)
	}
	return record, nil
}

func (s *Service) Upsert(ctx context.Context, requester *model.Requester, record *model.MedicalRecord) (*model.MedicalRecord, error) {
	if requester == nil {
		return nil, errors.Unauthorized("requester required")
	}
	if err := s.validate(record); err != nil {
		return nil, err
	}
	if requester.ID != record.OwnerID && requester.ID != record.CreatorID {
		return nil, errors.Forbidden("only the owner or creator may write a record")
	}

	// A record is authored by its owner or by a doctor connected to
	// the owner.
	connected, err := s.eval.IsConnected(ctx, record.OwnerID, record.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check connection: %w", err)
	}
	if !connected {
		return nil, errors.Forbidden("creator is not connected to the owner")
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := s.clock.NowMillis()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}
	record.LastModified = now

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Filter(ctx context.Context, filter *model.MedicalRecordFilter) ([]*model.MedicalRecord, int64, error) {
	return s.repo.Filter(ctx, filter)
}

// DeleteWhere removes every scoped record the filter matches, walking
// the full dependent chain of each one inside a single transaction.
// Pagination is ignored: a bulk delete covers the whole matched set.
func (s *Service) DeleteWhere(ctx context.Context, filter *model.MedicalRecordFilter) (int64, error) {
	full := *filter
	full.PageSpec = model.PageSpec{}
	records, _, err := s.repo.Filter(ctx, &full)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	var result model.CascadeResult
	err = s.uow.Run(ctx, func(tx repository.RecordTx) error {
		for _, record := range records {
			if err := s.deleteTree(ctx, tx, record.ID, &result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.recordCascade(&result)
	s.logger.Info("medical records bulk deleted", "records", result.RecordsDeleted, "rows", result.Total())
	return result.RecordsDeleted, nil
}

// DeleteCascade removes a medical record and every dependent row in
// one transaction, queueing the file path of every image-bearing row.
// Either the whole chain goes, or nothing does.
func (s *Service) DeleteCascade(ctx context.Context, requester *model.Requester, id uuid.UUID) (*model.CascadeResult, error) {
	policy, err := s.eval.Scope(requester, nil)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := policy.Matches(ctx, record.OwnerID, record.CreatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("record not accessible")
	}

	var result model.CascadeResult
	err = s.uow.Run(ctx, func(tx repository.RecordTx) error {
		return s.deleteTree(ctx, tx, id, &result)
	})
	if err != nil {
		return nil, err
	}

	s.recordCascade(&result)
	s.logger.Info("medical record cascade deleted", "record_id", id.String(), "rows", result.Total())
	return &result, nil
}

// deleteTree walks one record's dependent chain children-first:
// notes, then images with junk enqueue, then prescriptions with their
// images, then the root row.
func (s *Service) deleteTree(ctx context.Context, tx repository.RecordTx, id uuid.UUID, result *model.CascadeResult) error {
	n, err := tx.DeleteExperimentNotes(ctx, id)
	if err != nil {
		return err
	}
	result.ExperimentsDeleted += n

	n, err = tx.DeleteMedicalNotes(ctx, id)
	if err != nil {
		return err
	}
	result.NotesDeleted += n

	images, err := tx.ListMedicalImages(ctx, id)
	if err != nil {
		return err
	}
	for _, image := range images {
		if err := tx.EnqueueJunkFile(ctx, image.FullPath); err != nil {
			return err
		}
		if err := tx.DeleteMedicalImage(ctx, image.ID); err != nil {
			return err
		}
		result.ImagesDeleted++
		result.JunkFilesEnqueued++
	}

	prescriptions, err := tx.ListPrescriptions(ctx, id)
	if err != nil {
		return err
	}
	for _, prescription := range prescriptions {
		pimages, err := tx.ListPrescriptionImages(ctx, prescription.ID)
		if err != nil {
			return err
		}
		for _, image := range pimages {
			if err := tx.EnqueueJunkFile(ctx, image.FullPath); err != nil {
				return err
			}
			if err := tx.DeletePrescriptionImage(ctx, image.ID); err != nil {
				return err
			}
			result.PrescriptionImages++
			result.JunkFilesEnqueued++
		}
		if err := tx.DeletePrescription(ctx, prescription.ID); err != nil {
			return err
		}
		result.PrescriptionsDeleted++
	}

	if err := tx.DeleteMedicalRecord(ctx, id); err != nil {
		return err
	}
	result.RecordsDeleted++
	return nil
}

func (s *Service) validate(record *model.MedicalRecord) error {
	if record.OwnerID == uuid.Nil {
		return errors.NewBadRequest("owner is required", nil)
	}
	if record.CreatorID == uuid.Nil {
		return errors.NewBadRequest("creator is required", nil)
	}
	if record.Name == "" {
		return errors.NewBadRequest("name is required", nil)
	}
	return nil
}
