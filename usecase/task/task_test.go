package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/memory"
	taskuc "github.com/fastygo/taskboard/usecase/task"
)

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, events ...domain.Event) {
	m.Called(ctx, events)
}

// MockTaskRepository is used where the in-memory store cannot produce a failure.
type MockTaskRepository struct {
	mock.Mock
}

var _ repository.TaskRepository = (*MockTaskRepository)(nil)

func (m *MockTaskRepository) Save(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindAll(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByProjectID(ctx context.Context, id uuid.UUID) ([]*domain.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindCompleted(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func kinds(want ...domain.EventKind) interface{} {
	return mock.MatchedBy(func(events []domain.Event) bool {
		if len(events) != len(want) {
			return false
		}
		for i, e := range events {
			if e.Kind() != want[i] {
				return false
			}
		}
		return true
	})
}

func setup(t *testing.T) (*taskuc.UseCase, *memory.TaskStorage, *memory.ProjectStorage, *MockPublisher) {
	t.Helper()
	tasks := memory.NewTaskStorage()
	projects := memory.NewProjectStorage()
	pub := new(MockPublisher)
	return taskuc.New(tasks, projects, pub, nil), tasks, projects, pub
}

func saveProject(t *testing.T, projects *memory.ProjectStorage, deadline time.Time) *domain.Project {
	t.Helper()
	p, err := domain.NewProject("project", deadline)
	require.NoError(t, err)
	saved, err := projects.Save(context.Background(), p)
	require.NoError(t, err)
	return saved
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	uc, tasks, _, pub := setup(t)
	pub.On("Publish", mock.Anything, kinds(domain.KindTaskCreated)).Once()

	desc := "notes"
	created, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "write", Description: &desc, Deadline: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	stored, err := tasks.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", *stored.Description)
	pub.AssertExpectations(t)
}

func TestCreateTaskValidatesProject(t *testing.T) {
	ctx := context.Background()
	uc, tasks, projects, pub := setup(t)
	project := saveProject(t, projects, time.Now().Add(24*time.Hour))

	missing := uuid.New()
	_, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "a", Deadline: time.Now(), ProjectID: &missing})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = uc.CreateTask(ctx, taskuc.CreateInput{Title: "a", Deadline: project.Deadline.Add(time.Second), ProjectID: &project.ID})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidDeadline))

	_, err = uc.CreateTask(ctx, taskuc.CreateInput{Title: "", Deadline: time.Now()})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	all, err := tasks.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	uc, _, projects, pub := setup(t)
	project := saveProject(t, projects, time.Now().Add(48*time.Hour))
	pub.On("Publish", mock.Anything, mock.Anything)

	created, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "a", Deadline: time.Now().Add(time.Hour), ProjectID: &project.ID})
	require.NoError(t, err)

	title := "renamed"
	within := time.Now().Add(24 * time.Hour)
	updated, err := uc.UpdateTask(ctx, created.ID, taskuc.UpdateInput{Title: &title, Deadline: &within})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, within.Equal(updated.Deadline))
	assert.Equal(t, 2, updated.Version)
	pub.AssertCalled(t, "Publish", mock.Anything, kinds(domain.KindTaskDeadlineChanged))

	beyond := project.Deadline.Add(time.Hour)
	_, err = uc.UpdateTask(ctx, created.ID, taskuc.UpdateInput{Deadline: &beyond})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidDeadline))

	_, err = uc.UpdateTask(ctx, uuid.New(), taskuc.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestUpdateTaskWithDanglingProject(t *testing.T) {
	ctx := context.Background()
	uc, tasks, _, pub := setup(t)
	pub.On("Publish", mock.Anything, mock.Anything)

	gone := uuid.New()
	orphan, err := domain.NewTask("orphan", time.Now(), nil, &gone)
	require.NoError(t, err)
	_, err = tasks.Save(ctx, orphan)
	require.NoError(t, err)

	deadline := time.Now().Add(time.Hour)
	_, err = uc.UpdateTask(ctx, orphan.ID, taskuc.UpdateInput{Deadline: &deadline})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestCompleteTaskPublishesOnce(t *testing.T) {
	ctx := context.Background()
	uc, _, _, pub := setup(t)
	pub.On("Publish", mock.Anything, kinds(domain.KindTaskCreated)).Once()
	pub.On("Publish", mock.Anything, kinds(domain.KindTaskCompleted)).Once()
	pub.On("Publish", mock.Anything, kinds()).Once()

	created, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "a", Deadline: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	done, err := uc.CompleteTask(ctx, created.ID, false)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	again, err := uc.CompleteTask(ctx, created.ID, false)
	require.NoError(t, err)
	assert.True(t, again.Completed)
	pub.AssertExpectations(t)
}

func TestCompleteTaskAutoCompletesProject(t *testing.T) {
	ctx := context.Background()
	uc, _, projects, pub := setup(t)
	project := saveProject(t, projects, time.Now().Add(48*time.Hour))
	pub.On("Publish", mock.Anything, mock.Anything)

	created, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "a", Deadline: time.Now().Add(time.Hour), ProjectID: &project.ID})
	require.NoError(t, err)

	_, err = uc.CompleteTask(ctx, created.ID, true)
	require.NoError(t, err)

	got, err := projects.FindByID(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	pub.AssertCalled(t, "Publish", mock.Anything, kinds(domain.KindProjectCompleted))
}

func TestSaveFailureDiscardsEvents(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTaskRepository)
	pub := new(MockPublisher)
	uc := taskuc.New(repo, memory.NewProjectStorage(), pub, nil)

	existing, err := domain.NewTask("a", time.Now(), nil, nil)
	require.NoError(t, err)
	existing.CollectEvents()

	repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil, domain.ErrVersionConflict)

	_, err = uc.CompleteTask(ctx, existing.ID, false)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	uc, _, _, pub := setup(t)
	pub.On("Publish", mock.Anything, mock.Anything)

	created, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "a", Deadline: time.Now()})
	require.NoError(t, err)

	ok, err := uc.DeleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = uc.DeleteTask(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	uc, _, projects, pub := setup(t)
	pub.On("Publish", mock.Anything, mock.Anything)
	project := saveProject(t, projects, time.Now().Add(72*time.Hour))
	now := time.Now()

	overdue, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "late", Deadline: now.Add(-time.Hour)})
	require.NoError(t, err)
	soon, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "soon", Deadline: now.Add(2 * time.Hour), ProjectID: &project.ID})
	require.NoError(t, err)
	later, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "later", Deadline: now.Add(48 * time.Hour), ProjectID: &project.ID})
	require.NoError(t, err)
	_, err = uc.CompleteTask(ctx, later.ID, false)
	require.NoError(t, err)

	got, err := uc.GetOverdueTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, overdue.ID, got[0].ID)

	got, err = uc.GetCompletedTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, later.ID, got[0].ID)

	got, err = uc.GetApproachingTasks(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, soon.ID, got[0].ID)

	got, err = uc.GetTasksByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = uc.GetTasksByProject(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	all, err := uc.GetAllTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := uc.GetTask(ctx, soon.ID)
	require.NoError(t, err)
	assert.Equal(t, "soon", one.Title)
}

func TestReopenTask(t *testing.T) {
	ctx := context.Background()
	uc, _, _, pub := setup(t)
	pub.On("Publish", mock.Anything, mock.Anything)

	created, err := uc.CreateTask(ctx, taskuc.CreateInput{Title: "a", Deadline: time.Now()})
	require.NoError(t, err)
	_, err = uc.CompleteTask(ctx, created.ID, false)
	require.NoError(t, err)

	reopened, err := uc.ReopenTask(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	pub.AssertCalled(t, "Publish", mock.Anything, kinds(domain.KindTaskReopened))

	_, err = uc.ReopenTask(ctx, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrTaskNotFound))
}
