package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	boltinfra "github.com/fastygo/taskboard/internal/infrastructure/bolt"
)

func openDB(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := boltinfra.Open(filepath.Join(t.TempDir(), "data", "tasks.bolt"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openDB(t))
	projectID := uuid.New()
	now := time.Now()

	task, err := domain.NewTask("a", now.Add(-time.Hour), nil, &projectID)
	require.NoError(t, err)

	saved, err := repo.Save(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.Zero(t, saved.PendingEvents())

	loaded, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, projectID, *loaded.ProjectID)

	overdue, err := repo.FindOverdue(ctx, now)
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	loaded.MarkCompleted()
	_, err = repo.Save(ctx, loaded)
	require.NoError(t, err)

	_, err = repo.Save(ctx, saved)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	completed, err := repo.FindCompleted(ctx)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	byProject, err := repo.FindByProjectID(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, byProject, 1)

	ok, err := repo.Delete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(openDB(t))

	project, err := domain.NewProject("p", time.Now())
	require.NoError(t, err)

	saved, err := repo.Save(ctx, project)
	require.NoError(t, err)
	saved.Reopen()
	saved.UpdateDeadline(time.Now().Add(time.Hour))
	second, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ok, err := repo.Delete(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Delete(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
