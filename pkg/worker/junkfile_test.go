package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrec-api/internal/model"
	"github.com/jwalitptl/medrec-api/pkg/logger"
	"github.com/jwalitptl/medrec-api/pkg/messaging"
)

type fakeJunkRepo struct {
	pending []*model.JunkFile
	removed []uuid.UUID
}

func (r *fakeJunkRepo) ListPending(ctx context.Context, limit int) ([]*model.JunkFile, error) {
	if limit > len(r.pending) {
		limit = len(r.pending)
	}
	return r.pending[:limit], nil
}

func (r *fakeJunkRepo) Remove(ctx context.Context, id uuid.UUID) error {
	r.removed = append(r.removed, id)
	for i, f := range r.pending {
		if f.ID == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			break
		}
	}
	return nil
}

type fakeBroker struct {
	published []string
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func newTestWorker(repo *fakeJunkRepo, broker messaging.Broker) *JunkFileWorker {
	cfg := JunkFileWorkerConfig{BatchSize: 10, PollInterval: 1}
	return NewJunkFileWorker(repo, broker, cfg, logger.NewLogger(nil), nil)
}

func TestProcessBatchRemovesFilesAndQueueRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	file := &model.JunkFile{ID: uuid.New(), FullPath: path}
	repo := &fakeJunkRepo{pending: []*model.JunkFile{file}}
	broker := &fakeBroker{}

	w := newTestWorker(repo, broker)
	require.NoError(t, w.processBatch(context.Background()))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file should be gone from disk")
	assert.Equal(t, []uuid.UUID{file.ID}, repo.removed)
	assert.Equal(t, []string{"junkfiles"}, broker.published)
}

func TestProcessBatchToleratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	file := &model.JunkFile{ID: uuid.New(), FullPath: filepath.Join(dir, "already-gone.png")}
	repo := &fakeJunkRepo{pending: []*model.JunkFile{file}}

	w := newTestWorker(repo, nil)
	require.NoError(t, w.processBatch(context.Background()))

	// A path that is already gone still counts as cleaned.
	assert.Equal(t, []uuid.UUID{file.ID}, repo.removed)
}

func TestProcessBatchKeepsRowWhenRemovalFails(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("read-only parent does not block unlink for root (see REVIEW_FINDINGS.md F8)")
	}
	dir := t.TempDir()
	sub := filepath.Join(dir, "protected")
	require.NoError(t, os.Mkdir(sub, 0o755))
	path := filepath.Join(sub, "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	// Read-only parent makes the unlink fail.
	require.NoError(t, os.Chmod(sub, 0o555))
	t.Cleanup(func() { _ = os.Chmod(sub, 0o755) })

	file := &model.JunkFile{ID: uuid.New(), FullPath: path}
	repo := &fakeJunkRepo{pending: []*model.JunkFile{file}}

	w := newTestWorker(repo, nil)
	require.NoError(t, w.processBatch(context.Background()))

	assert.Empty(t, repo.removed, "queue row must survive a failed unlink for retry")
}

func TestProcessBatchHonorsBatchSize(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeJunkRepo{}
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, uuid.NewString())
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		repo.pending = append(repo.pending, &model.JunkFile{ID: uuid.New(), FullPath: path})
	}

	w := NewJunkFileWorker(repo, nil, JunkFileWorkerConfig{BatchSize: 2, PollInterval: 1}, logger.NewLogger(nil), nil)
	require.NoError(t, w.processBatch(context.Background()))

	assert.Len(t, repo.removed, 2)
	assert.Len(t, repo.pending, 3)
}

func TestNewJunkFileWorkerRejectsBadConfig(t *testing.T) {
	repo := &fakeJunkRepo{}
	log := logger.NewLogger(nil)

	assert.Panics(t, func() {
		NewJunkFileWorker(repo, nil, JunkFileWorkerConfig{BatchSize: 0, PollInterval: 1}, log, nil)
	})
	assert.Panics(t, func() {
		NewJunkFileWorker(repo, nil, JunkFileWorkerConfig{BatchSize: 1, PollInterval: 0}, log, nil)
	})
}
