package image

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/clock"
	"github.com/jwalitptl/medrec-api/pkg/errors"
)

type emptyGraph struct{}

func (emptyGraph) HasActiveEdge(ctx context.Context, sourceID, targetID uuid.UUID) (bool, error) {
	return false, nil
}

func (emptyGraph) GetPerson(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	return nil, errors.NewNotFound("person", nil)
}

type fakeImageRepo struct {
	images map[uuid.UUID]*model.MedicalImage
}

func (r *fakeImageRepo) Find(ctx context.Context, id uuid.UUID) (*model.MedicalImage, error) {
	img, ok := r.images[id]
	if !ok {
		return nil, errors.NewNotFound("medical image", nil)
	}
	return img, nil
}

func (r *fakeImageRepo) Upsert(ctx context.Context, image *model.MedicalImage) error {
	r.images[image.ID] = image
	return nil
}

func (r *fakeImageRepo) Filter(ctx context.Context, filter *model.MedicalImageFilter) ([]*model.MedicalImage, int64, error) {
	return nil, 0, nil
}

func (r *fakeImageRepo) DeleteWhere(ctx context.Context, filter *model.MedicalImageFilter) (int64, error) {
	return 0, nil
}

type fakePrescriptionImageRepo struct {
	images map[uuid.UUID]*model.PrescriptionImage
}

func (r *fakePrescriptionImageRepo) Find(ctx context.Context, id uuid.UUID) (*model.PrescriptionImage, error) {
	img, ok := r.images[id]
	if !ok {
		return nil, errors.NewNotFound("prescription image", nil)
	}
	return img, nil
}

func (r *fakePrescriptionImageRepo) Upsert(ctx context.Context, image *model.PrescriptionImage) error {
	r.images[image.ID] = image
	return nil
}

func (r *fakePrescriptionImageRepo) Filter(ctx context.Context, filter *model.PrescriptionImageFilter) ([]*model.PrescriptionImage, int64, error) {
	return nil, 0, nil
}

func (r *fakePrescriptionImageRepo) DeleteWhere(ctx context.Context, filter *model.PrescriptionImageFilter) (int64, error) {
	return 0, nil
}

type fakeRecordRepo struct {
	records map[uuid.UUID]*model.MedicalRecord
}

func (r *fakeRecordRepo) Find(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, errors.NewNotFound("medical record", nil)
	}
	return rec, nil
}

func (r *fakeRecordRepo) Upsert(ctx context.Context, record *model.MedicalRecord) error {
	return nil
}

func (r *fakeRecordRepo) Filter(ctx context.Context, filter *model.MedicalRecordFilter) ([]*model.MedicalRecord, int64, error) {
	return nil, 0, nil
}

type fakePrescriptionRepo struct {
	prescriptions map[uuid.UUID]*model.Prescription
}

func (r *fakePrescriptionRepo) Find(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, errors.NewNotFound("prescription", nil)
	}
	return p, nil
}

func (r *fakePrescriptionRepo) Upsert(ctx context.Context, prescription *model.Prescription) error {
	return nil
}

func (r *fakePrescriptionRepo) Filter(ctx context.Context, filter *model.PrescriptionFilter) ([]*model.Prescription, int64, error) {
	return nil, 0, nil
}

func (r *fakePrescriptionRepo) DeleteWhere(ctx context.Context, filter *model.PrescriptionFilter) (int64, error) {
	return 0, nil
}

// recordingTx records which removal path ran and what was queued.
type recordingTx struct {
	junk     []string
	deleted  []uuid.UUID
	disabled []uuid.UUID
}

func (t *recordingTx) DeleteExperimentNotes(ctx context.Context, recordID uuid.UUID) (int64, error) {
	return 0, nil
}

func (t *recordingTx) DeleteMedicalNotes(ctx context.Context, recordID uuid.UUID) (int64, error) {
	return 0, nil
}

func (t *recordingTx) ListMedicalImages(ctx context.Context, recordID uuid.UUID) ([]*model.MedicalImage, error) {
	return nil, nil
}

func (t *recordingTx) DeleteMedicalImage(ctx context.Context, id uuid.UUID) error {
	t.deleted = append(t.deleted, id)
	return nil
}

func (t *recordingTx) ListPrescriptions(ctx context.Context, recordID uuid.UUID) ([]*model.Prescription, error) {
	return nil, nil
}

func (t *recordingTx) ListPrescriptionImages(ctx context.Context, prescriptionID uuid.UUID) ([]*model.PrescriptionImage, error) {
	return nil, nil
}

func (t *recordingTx) DeletePrescriptionImage(ctx context.Context, id uuid.UUID) error {
	t.deleted = append(t.deleted, id)
	return nil
}

func (t *recordingTx) DisablePrescriptionImage(ctx context.Context, id uuid.UUID) error {
	t.disabled = append(t.disabled, id)
	return nil
}

func (t *recordingTx) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (t *recordingTx) DeleteMedicalRecord(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (t *recordingTx) EnqueueJunkFile(ctx context.Context, fullPath string) error {
	t.junk = append(t.junk, fullPath)
	return nil
}

type fakeUnitOfWork struct {
	tx *recordingTx
}

func (u *fakeUnitOfWork) Run(ctx context.Context, fn func(tx repository.RecordTx) error) error {
	return fn(u.tx)
}

type fixture struct {
	svc           *Service
	tx            *recordingTx
	images        *fakeImageRepo
	pimages       *fakePrescriptionImageRepo
	records       *fakeRecordRepo
	prescriptions *fakePrescriptionRepo
}

func newFixture() *fixture {
	f := &fixture{
		tx:            &recordingTx{},
		images:        &fakeImageRepo{images: make(map[uuid.UUID]*model.MedicalImage)},
		pimages:       &fakePrescriptionImageRepo{images: make(map[uuid.UUID]*model.PrescriptionImage)},
		records:       &fakeRecordRepo{records: make(map[uuid.UUID]*model.MedicalRecord)},
		prescriptions: &fakePrescriptionRepo{prescriptions: make(map[uuid.UUID]*model.Prescription)},
	}
	f.svc = NewService(
		f.images,
		f.pimages,
		f.records,
		f.prescriptions,
		&fakeUnitOfWork{tx: f.tx},
		access.NewEvaluator(emptyGraph{}),
		clock.Fixed(1700000000000),
	)
	return f
}

func TestDeleteImageQueuesFile(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	img := &model.MedicalImage{
		ID:        uuid.New(),
		OwnerID:   owner,
		CreatorID: owner,
		FullPath:  "/data/scan.png",
	}
	f.images.images[img.ID] = img

	requester := &model.Requester{ID: owner, Role: model.RolePatient}
	require.NoError(t, f.svc.DeleteImage(context.Background(), requester, img.ID))

	assert.Equal(t, []string{"/data/scan.png"}, f.tx.junk)
	assert.Equal(t, []uuid.UUID{img.ID}, f.tx.deleted)
}

func TestDeletePrescriptionImageSoft(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	img := &model.PrescriptionImage{
		ID:        uuid.New(),
		OwnerID:   owner,
		CreatorID: owner,
		FullPath:  "/data/rx.png",
		Available: true,
	}
	f.pimages.images[img.ID] = img

	requester := &model.Requester{ID: owner, Role: model.RolePatient}
	require.NoError(t, f.svc.DeletePrescriptionImage(context.Background(), requester, img.ID, model.DeletionModeSoft))

	assert.Equal(t, []string{"/data/rx.png"}, f.tx.junk, "soft deletion still queues the file")
	assert.Equal(t, []uuid.UUID{img.ID}, f.tx.disabled)
	assert.Empty(t, f.tx.deleted)
}

func TestDeletePrescriptionImageHard(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	img := &model.PrescriptionImage{
		ID:        uuid.New(),
		OwnerID:   owner,
		CreatorID: owner,
		FullPath:  "/data/rx.png",
		Available: true,
	}
	f.pimages.images[img.ID] = img

	requester := &model.Requester{ID: owner, Role: model.RolePatient}
	require.NoError(t, f.svc.DeletePrescriptionImage(context.Background(), requester, img.ID, model.DeletionModeHard))

	assert.Equal(t, []string{"/data/rx.png"}, f.tx.junk)
	assert.Equal(t, []uuid.UUID{img.ID}, f.tx.deleted)
	assert.Empty(t, f.tx.disabled)
}

func TestDeleteImageOutOfScope(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	img := &model.MedicalImage{ID: uuid.New(), OwnerID: owner, CreatorID: owner, FullPath: "/data/scan.png"}
	f.images.images[img.ID] = img

	stranger := &model.Requester{ID: uuid.New(), Role: model.RolePatient}
	err := f.svc.DeleteImage(context.Background(), stranger, img.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
	assert.Empty(t, f.tx.junk)
}

func TestUpsertImageChecksParent(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	recordID := uuid.New()
	f.records.records[recordID] = &model.MedicalRecord{ID: recordID, OwnerID: owner, CreatorID: owner}

	requester := &model.Requester{ID: owner, Role: model.RolePatient}

	// Owner mismatch with the parent record.
	_, err := f.svc.UpsertImage(context.Background(), requester, &model.MedicalImage{
		MedicalRecordID: recordID,
		OwnerID:         uuid.New(),
		CreatorID:       owner,
		Name:            "x-ray",
		FullPath:        "/data/xray.png",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))

	img, err := f.svc.UpsertImage(context.Background(), requester, &model.MedicalImage{
		MedicalRecordID: recordID,
		OwnerID:         owner,
		CreatorID:       owner,
		Name:            "x-ray",
		FullPath:        "/data/xray.png",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, img.ID)
	assert.Equal(t, int64(1700000000000), img.LastModified)
}

func TestUpsertPrescriptionImageStartsAvailable(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	prescriptionID := uuid.New()
	f.prescriptions.prescriptions[prescriptionID] = &model.Prescription{
		ID:        prescriptionID,
		OwnerID:   owner,
		CreatorID: owner,
	}

	requester := &model.Requester{ID: owner, Role: model.RolePatient}
	img, err := f.svc.UpsertPrescriptionImage(context.Background(), requester, &model.PrescriptionImage{
		PrescriptionID: prescriptionID,
		OwnerID:        owner,
		CreatorID:      owner,
		Name:           "rx",
		FullPath:       "/data/rx.png",
	})
	require.NoError(t, err)
	assert.True(t, img.Available, "new prescription images start available")
}
