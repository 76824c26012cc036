package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plainlegal/plainlegal/constants"
	"github.com/plainlegal/plainlegal/internal/common"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	jobs := NewJobRepository(store, nil)

	job, err := jobs.CreateJob(ctx, `{"model":"gpt-4"}`, 2)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusQueued, job.Status)
	assert.Equal(t, 2, job.TotalFiles)

	got, err := jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, `{"model":"gpt-4"}`, got.Options)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, jobs.UpdateJobStatus(ctx, job.ID, constants.JobStatusProcessing, ""))
	got, err = jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusProcessing, got.Status)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, jobs.UpdateJobStatus(ctx, job.ID, constants.JobStatusCompleted, ""))
	got, err = jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.StartedAt))
}

func TestJobNotFound(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	jobs := NewJobRepository(store, nil)

	_, err := jobs.GetJob(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = jobs.UpdateJobStatus(ctx, uuid.New(), constants.JobStatusFailed, "boom")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestIncrementCompleted(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	jobs := NewJobRepository(store, nil)

	job, err := jobs.CreateJob(ctx, "", 3)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		completed, total, err := jobs.IncrementCompleted(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, i, completed)
		assert.Equal(t, 3, total)
	}
}

func TestFileLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	jobs := NewJobRepository(store, nil)
	files := NewFileRepository(store, nil)

	job, err := jobs.CreateJob(ctx, "", 2)
	require.NoError(t, err)

	f1, err := files.CreateFile(ctx, job.ID, "b-lease.pdf", "/tmp/up/b-lease.pdf")
	require.NoError(t, err)
	f2, err := files.CreateFile(ctx, job.ID, "a-nda.docx", "/tmp/up/a-nda.docx")
	require.NoError(t, err)

	listed, err := files.ListJobFiles(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	// Ordered by filename.
	assert.Equal(t, f2.ID, listed[0].ID)
	assert.Equal(t, f1.ID, listed[1].ID)

	require.NoError(t, files.UpdateFileStatus(ctx, f1.ID, constants.FileStatusProcessing, ""))
	require.NoError(t, files.SetFileOutputs(ctx, f1.ID, "/out/b-lease_plainEnglish.docx", "/out/b-lease_summary.docx"))
	require.NoError(t, files.UpdateFileStatus(ctx, f1.ID, constants.FileStatusCompleted, ""))

	got, err := files.GetFile(ctx, f1.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.FileStatusCompleted, got.Status)
	assert.Equal(t, "/out/b-lease_plainEnglish.docx", got.PlainPath)
	assert.Equal(t, "/out/b-lease_summary.docx", got.SummaryPath)
	assert.Equal(t, job.ID, got.JobID)

	require.NoError(t, files.UpdateFileStatus(ctx, f2.ID, constants.FileStatusError, "read failed"))
	got, err = files.GetFile(ctx, f2.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.FileStatusError, got.Status)
	assert.Equal(t, "read failed", got.Error)
}

func TestFileNotFound(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	files := NewFileRepository(store, nil)

	_, err := files.GetFile(ctx, uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = files.SetFileOutputs(ctx, uuid.New(), "p", "s")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestRebind(t *testing.T) {
	s := &Store{Dialect: DialectPostgres}
	assert.Equal(t, "SELECT $1, $2 WHERE x = $3", s.rebind("SELECT ?, ? WHERE x = ?"))

	s.Dialect = DialectSQLite
	assert.Equal(t, "SELECT ?", s.rebind("SELECT ?"))
}
