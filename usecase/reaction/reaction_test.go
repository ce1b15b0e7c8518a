package reaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/eventbus"
	"github.com/fastygo/taskboard/repository/memory"
	projectuc "github.com/fastygo/taskboard/usecase/project"
	"github.com/fastygo/taskboard/usecase/reaction"
	taskuc "github.com/fastygo/taskboard/usecase/task"
)

const day = 24 * time.Hour

type fixture struct {
	bus      *eventbus.Bus
	tasks    *memory.TaskStorage
	projects *memory.ProjectStorage
	taskUC   *taskuc.UseCase
	projUC   *projectuc.UseCase
	logs     *observer.ObservedLogs
	seen     map[domain.EventKind]int
}

func newFixture(t *testing.T, opts reaction.Options) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	f := &fixture{
		bus:      eventbus.New(logger),
		tasks:    memory.NewTaskStorage(),
		projects: memory.NewProjectStorage(),
		logs:     logs,
		seen:     make(map[domain.EventKind]int),
	}
	_, err := reaction.Register(f.bus, f.tasks, f.projects, opts, logger)
	require.NoError(t, err)

	for _, kind := range domain.EventKinds() {
		kind := kind
		require.NoError(t, f.bus.Subscribe(kind, "recorder", func(context.Context, domain.Event) error {
			f.seen[kind]++
			return nil
		}))
	}

	f.taskUC = taskuc.New(f.tasks, f.projects, f.bus, logger)
	f.projUC = projectuc.New(f.projects, f.tasks, f.bus, logger)
	return f
}

// seedTask stores a task linked to projectID without checking the project deadline.
func (f *fixture) seedTask(t *testing.T, deadline time.Time, projectID uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("seed", deadline, nil, &projectID)
	require.NoError(t, err)
	saved, err := f.tasks.Save(context.Background(), task)
	require.NoError(t, err)
	return saved
}

func TestRegisterSubscribesReactions(t *testing.T) {
	bus := eventbus.New(nil)
	_, err := reaction.Register(bus, memory.NewTaskStorage(), memory.NewProjectStorage(), reaction.Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"project-auto-complete"}, bus.Subscribers(domain.KindTaskCompleted))
	assert.Equal(t, []string{"project-reopen"}, bus.Subscribers(domain.KindTaskReopened))
	assert.Equal(t, []string{"task-deadline-clamp"}, bus.Subscribers(domain.KindProjectDeadlineChanged))
	assert.Empty(t, bus.Subscribers(domain.KindProjectCompleted))
}

func TestShortenedProjectDeadlineClampsLaterTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{})
	now := time.Now().UTC().Truncate(time.Second)

	project, err := f.projUC.CreateProject(ctx, "release", now.Add(10*day))
	require.NoError(t, err)
	early := f.seedTask(t, now.Add(5*day), project.ID)
	middle := f.seedTask(t, now.Add(8*day), project.ID)
	late := f.seedTask(t, now.Add(12*day), project.ID)

	newDeadline := now.Add(6 * day)
	_, err = f.projUC.UpdateProject(ctx, project.ID, projectuc.UpdateInput{Deadline: &newDeadline})
	require.NoError(t, err)

	got, err := f.tasks.FindByID(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, got.Deadline.Equal(now.Add(5*day)))
	assert.Equal(t, 1, got.Version, "untouched task is not saved")

	for _, id := range []uuid.UUID{middle.ID, late.ID} {
		got, err := f.tasks.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Deadline.Equal(newDeadline))
	}
	assert.Equal(t, 2, f.seen[domain.KindTaskDeadlineChanged])
}

func TestDeadlineClampSurvivesCanceledRequest(t *testing.T) {
	f := newFixture(t, reaction.Options{})
	now := time.Now().UTC().Truncate(time.Second)

	project, err := f.projUC.CreateProject(context.Background(), "release", now.Add(10*day))
	require.NoError(t, err)
	task := f.seedTask(t, now.Add(9*day), project.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	newDeadline := now.Add(3 * day)
	updated, err := f.projUC.UpdateProject(ctx, project.ID, projectuc.UpdateInput{Deadline: &newDeadline})
	require.NoError(t, err)
	assert.True(t, updated.Deadline.Equal(newDeadline))

	got, err := f.tasks.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, got.Deadline.Equal(newDeadline))
	assert.Equal(t, 1, f.seen[domain.KindTaskDeadlineChanged])
}

func TestExtendedProjectDeadlineLeavesTasksAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{})
	now := time.Now().UTC().Truncate(time.Second)

	project, err := f.projUC.CreateProject(ctx, "release", now.Add(10*day))
	require.NoError(t, err)
	deadlines := []time.Time{now.Add(5 * day), now.Add(8 * day), now.Add(12 * day)}
	var ids []uuid.UUID
	for _, d := range deadlines {
		ids = append(ids, f.seedTask(t, d, project.ID).ID)
	}

	extended := now.Add(20 * day)
	_, err = f.projUC.UpdateProject(ctx, project.ID, projectuc.UpdateInput{Deadline: &extended})
	require.NoError(t, err)

	for i, id := range ids {
		got, err := f.tasks.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Deadline.Equal(deadlines[i]))
	}
	assert.Equal(t, 1, f.seen[domain.KindProjectDeadlineChanged])
	assert.Zero(t, f.seen[domain.KindTaskDeadlineChanged])
}

func TestProjectAutoCompletesAfterLastTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{AutoCompleteProject: true})
	now := time.Now().UTC()

	project, err := f.projUC.CreateProject(ctx, "release", now.Add(30*day))
	require.NoError(t, err)

	const n = 3
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		task, err := f.taskUC.CreateTask(ctx, taskuc.CreateInput{
			Title:     "step",
			Deadline:  now.Add(time.Duration(i+1) * day),
			ProjectID: &project.ID,
		})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	for i, id := range ids {
		_, err := f.taskUC.CompleteTask(ctx, id, true)
		require.NoError(t, err)

		got, err := f.projUC.GetProject(ctx, project.ID)
		require.NoError(t, err)
		if i < n-1 {
			assert.False(t, got.Completed, "project completed after %d of %d tasks", i+1, n)
		} else {
			assert.True(t, got.Completed)
		}
	}
	assert.Equal(t, 1, f.seen[domain.KindProjectCompleted])

	// Completing an already completed task again must not re-emit anything.
	_, err = f.taskUC.CompleteTask(ctx, ids[0], true)
	require.NoError(t, err)
	assert.Equal(t, 1, f.seen[domain.KindProjectCompleted])
	assert.Equal(t, n, f.seen[domain.KindTaskCompleted])
}

func TestAutoCompleteDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{AutoCompleteProject: false})

	project, err := f.projUC.CreateProject(ctx, "release", time.Now().Add(30*day))
	require.NoError(t, err)
	task, err := f.taskUC.CreateTask(ctx, taskuc.CreateInput{Title: "only", Deadline: time.Now().Add(day), ProjectID: &project.ID})
	require.NoError(t, err)

	_, err = f.taskUC.CompleteTask(ctx, task.ID, false)
	require.NoError(t, err)

	got, err := f.projUC.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Zero(t, f.seen[domain.KindProjectCompleted])
}

func TestReopeningTaskReopensProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{AutoCompleteProject: true})

	project, err := f.projUC.CreateProject(ctx, "release", time.Now().Add(30*day))
	require.NoError(t, err)
	task, err := f.taskUC.CreateTask(ctx, taskuc.CreateInput{Title: "only", Deadline: time.Now().Add(day), ProjectID: &project.ID})
	require.NoError(t, err)

	_, err = f.taskUC.CompleteTask(ctx, task.ID, true)
	require.NoError(t, err)
	got, err := f.projUC.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, got.Completed)

	_, err = f.taskUC.ReopenTask(ctx, task.ID)
	require.NoError(t, err)

	got, err = f.projUC.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Equal(t, 1, f.seen[domain.KindProjectReopened])
}

func TestTaskCompletedForMissingProjectIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{AutoCompleteProject: true})

	orphan := f.seedTask(t, time.Now().Add(day), uuid.New())
	_, err := f.taskUC.CompleteTask(ctx, orphan.ID, true)
	require.NoError(t, err)

	assert.Zero(t, f.seen[domain.KindProjectCompleted])
	assert.Zero(t, f.logs.FilterMessage("event handler failed").Len())
}

func TestCreateTaskBeyondProjectDeadlineIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{})
	now := time.Now().UTC()

	project, err := f.projUC.CreateProject(ctx, "P", now.Add(30*day))
	require.NoError(t, err)

	a, err := f.taskUC.CreateTask(ctx, taskuc.CreateInput{Title: "A", Deadline: now.Add(5 * day), ProjectID: &project.ID})
	require.NoError(t, err)

	_, err = f.taskUC.CreateTask(ctx, taskuc.CreateInput{Title: "B", Deadline: now.Add(40 * day), ProjectID: &project.ID})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidDeadline))

	all, err := f.taskUC.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, 1, f.seen[domain.KindTaskCreated])
}

func TestCascadeFailureIsLoggedNotPropagated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, reaction.Options{})
	now := time.Now().UTC()

	project, err := f.projUC.CreateProject(ctx, "release", now.Add(10*day))
	require.NoError(t, err)
	seeded := f.seedTask(t, now.Add(9*day), project.ID)

	core, logs := observer.New(zapcore.ErrorLevel)
	h := reaction.New(&conflictingTasks{TaskStorage: f.tasks}, f.projects, f.bus, reaction.Options{}, zap.New(core))
	err = h.OnProjectDeadlineChanged(ctx, domain.ProjectDeadlineChanged{
		Meta:        domain.NewMeta(),
		ProjectID:   project.ID,
		OldDeadline: now.Add(10 * day),
		NewDeadline: now.Add(2 * day),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("failed to save adjusted task").Len())

	got, err := f.tasks.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, got.Deadline.Equal(now.Add(9*day)))
	assert.Zero(t, f.seen[domain.KindTaskDeadlineChanged])
}

// conflictingTasks rejects every save as stale.
type conflictingTasks struct {
	*memory.TaskStorage
}

func (c *conflictingTasks) Save(context.Context, *domain.Task) (*domain.Task, error) {
	return nil, domain.ErrVersionConflict
}
