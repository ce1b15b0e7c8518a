package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
)

func newTask(t *testing.T, title string, deadline time.Time, projectID *uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(title, deadline, nil, projectID)
	require.NoError(t, err)
	return task
}

func TestTaskStorageSaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStorage()
	task := newTask(t, "a", time.Now().Add(time.Hour), nil)

	saved, err := store.Save(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.Zero(t, saved.PendingEvents())
	assert.Equal(t, 1, task.PendingEvents(), "caller keeps its events")

	first, err := store.FindByID(ctx, task.ID)
	require.NoError(t, err)
	second, err := store.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Title, second.Title)
}

func TestTaskStorageVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStorage()

	saved, err := store.Save(ctx, newTask(t, "a", time.Now().Add(time.Hour), nil))
	require.NoError(t, err)

	a, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	b, err := store.FindByID(ctx, saved.ID)
	require.NoError(t, err)

	a.MarkCompleted()
	updated, err := store.Save(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	b.Title = "stale"
	_, err = store.Save(ctx, b)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestTaskStorageQueries(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStorage()
	now := time.Now()
	projectID := uuid.New()

	overdue := newTask(t, "overdue", now.Add(-time.Hour), nil)
	done := newTask(t, "done", now.Add(-time.Hour), &projectID)
	done.MarkCompleted()
	linked := newTask(t, "linked", now.Add(time.Hour), &projectID)

	for _, task := range []*domain.Task{overdue, done, linked} {
		_, err := store.Save(ctx, task)
		require.NoError(t, err)
	}

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byProject, err := store.FindByProjectID(ctx, projectID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{done.ID, linked.ID}, ids(byProject))

	completed, err := store.FindCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{done.ID}, ids(completed))

	late, err := store.FindOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{overdue.ID}, ids(late))
}

func TestTaskStorageDelete(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStorage()
	saved, err := store.Save(ctx, newTask(t, "a", time.Now(), nil))
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.FindByID(ctx, saved.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestProjectStorage(t *testing.T) {
	ctx := context.Background()
	store := NewProjectStorage()
	project, err := domain.NewProject("p", time.Now())
	require.NoError(t, err)

	saved, err := store.Save(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)

	saved.UpdateDeadline(time.Now().Add(time.Hour))
	again, err := store.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version)

	_, err = store.Save(ctx, saved)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	deleted, err := store.Delete(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = store.FindByID(ctx, project.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func ids(tasks []*domain.Task) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
