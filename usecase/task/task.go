package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

type CreateInput struct {
	Title       string
	Description *string
	Deadline    time.Time
	ProjectID   *uuid.UUID
}

// UpdateInput carries optional changes; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Deadline    *time.Time
}

type UseCase struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	events   usecase.EventPublisher
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, projects repository.ProjectRepository, events usecase.EventPublisher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = usecase.NopPublisher{}
	}
	return &UseCase{
		tasks:    tasks,
		projects: projects,
		events:   events,
		logger:   logger,
	}
}

// CreateTask validates the optional project reference before the task exists.
func (uc *UseCase) CreateTask(ctx context.Context, in CreateInput) (*domain.Task, error) {
	if in.ProjectID != nil {
		project, err := uc.projects.FindByID(ctx, *in.ProjectID)
		if err != nil {
			return nil, err
		}
		if in.Deadline.After(project.Deadline) {
			return nil, domain.InvalidDeadline("task deadline cannot be later than project deadline %s",
				project.Deadline.Format(time.RFC3339))
		}
	}

	task, err := domain.NewTask(in.Title, in.Deadline, in.Description, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return uc.save(ctx, task)
}

func (uc *UseCase) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return uc.tasks.FindByID(ctx, id)
}

func (uc *UseCase) GetAllTasks(ctx context.Context) ([]*domain.Task, error) {
	return uc.tasks.FindAll(ctx)
}

// UpdateTask applies the non-nil fields of in. A new deadline on a linked task
// is checked against the project's deadline; a dangling project link fails
// with NOT_FOUND rather than skipping the check.
func (uc *UseCase) UpdateTask(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Task, error) {
	task, err := uc.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err := task.Rename(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		task.Describe(in.Description)
	}
	if in.Deadline != nil {
		var limit *time.Time
		if task.ProjectID != nil {
			project, err := uc.projects.FindByID(ctx, *task.ProjectID)
			if err != nil {
				return nil, err
			}
			limit = &project.Deadline
		}
		if err := task.UpdateDeadline(*in.Deadline, limit); err != nil {
			return nil, err
		}
	}

	return uc.save(ctx, task)
}

func (uc *UseCase) DeleteTask(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := uc.tasks.FindByID(ctx, id); err != nil {
		return false, err
	}
	return uc.tasks.Delete(ctx, id)
}

// CompleteTask completes the task and publishes TaskCompleted. With
// autoCompleteProject set, the owning project is also completed once every
// one of its tasks is done; this repeats the subscribed reaction and is a
// no-op when the reaction already completed the project.
func (uc *UseCase) CompleteTask(ctx context.Context, id uuid.UUID, autoCompleteProject bool) (*domain.Task, error) {
	task, err := uc.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	task.MarkCompleted()
	saved, err := uc.save(ctx, task)
	if err != nil {
		return nil, err
	}

	if autoCompleteProject && saved.ProjectID != nil {
		if err := uc.tryCompleteProject(ctx, *saved.ProjectID); err != nil {
			uc.logger.Warn("project auto-completion failed",
				zap.String("task_id", saved.ID.String()),
				zap.String("project_id", saved.ProjectID.String()),
				zap.Error(err))
		}
	}
	return saved, nil
}

// ReopenTask marks a completed task as open and publishes TaskReopened.
func (uc *UseCase) ReopenTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := uc.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Reopen()
	return uc.save(ctx, task)
}

func (uc *UseCase) GetTasksByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	if _, err := uc.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return uc.tasks.FindByProjectID(ctx, projectID)
}

func (uc *UseCase) GetOverdueTasks(ctx context.Context) ([]*domain.Task, error) {
	return uc.tasks.FindOverdue(ctx, time.Now().UTC())
}

func (uc *UseCase) GetCompletedTasks(ctx context.Context) ([]*domain.Task, error) {
	return uc.tasks.FindCompleted(ctx)
}

// GetApproachingTasks lists open tasks due within window from now.
func (uc *UseCase) GetApproachingTasks(ctx context.Context, window time.Duration) ([]*domain.Task, error) {
	all, err := uc.tasks.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	res := make([]*domain.Task, 0, len(all))
	for _, t := range all {
		if t.IsDeadlineApproaching(now, window) {
			res = append(res, t)
		}
	}
	return res, nil
}

func (uc *UseCase) tryCompleteProject(ctx context.Context, projectID uuid.UUID) error {
	tasks, err := uc.tasks.FindByProjectID(ctx, projectID)
	if err != nil {
		return err
	}
	if !usecase.AllCompleted(tasks) {
		return nil
	}

	project, err := uc.projects.FindByID(ctx, projectID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if project.Completed {
		return nil
	}
	if err := project.MarkCompleted(true); err != nil {
		return err
	}
	if _, err := uc.projects.Save(ctx, project); err != nil {
		return err
	}
	uc.events.Publish(ctx, project.CollectEvents()...)
	return nil
}

// save persists the task and publishes the events recorded on it. Events are
// discarded when the save fails.
func (uc *UseCase) save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	saved, err := uc.tasks.Save(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, task.CollectEvents()...)
	return saved, nil
}
