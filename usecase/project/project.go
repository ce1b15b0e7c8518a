package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

type UpdateInput struct {
	Title    *string
	Deadline *time.Time
}

type UseCase struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	events   usecase.EventPublisher
	logger   *zap.Logger
}

func New(projects repository.ProjectRepository, tasks repository.TaskRepository, events usecase.EventPublisher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = usecase.NopPublisher{}
	}
	return &UseCase{
		projects: projects,
		tasks:    tasks,
		events:   events,
		logger:   logger,
	}
}

func (uc *UseCase) CreateProject(ctx context.Context, title string, deadline time.Time) (*domain.Project, error) {
	project, err := domain.NewProject(title, deadline)
	if err != nil {
		return nil, err
	}
	return uc.save(ctx, project)
}

func (uc *UseCase) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return uc.projects.FindByID(ctx, id)
}

func (uc *UseCase) GetAllProjects(ctx context.Context) ([]*domain.Project, error) {
	return uc.projects.FindAll(ctx)
}

// UpdateProject applies the non-nil fields of in. The project is saved before
// ProjectDeadlineChanged is published, so reactions observe the new deadline.
func (uc *UseCase) UpdateProject(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Project, error) {
	project, err := uc.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if err := project.Rename(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Deadline != nil {
		project.UpdateDeadline(*in.Deadline)
	}
	return uc.save(ctx, project)
}

// DeleteProject unlinks the project's tasks and then removes the project.
func (uc *UseCase) DeleteProject(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := uc.projects.FindByID(ctx, id); err != nil {
		return false, err
	}

	tasks, err := uc.tasks.FindByProjectID(ctx, id)
	if err != nil {
		return false, err
	}
	for _, task := range tasks {
		task.UnlinkFromProject()
		if _, err := uc.tasks.Save(ctx, task); err != nil {
			return false, err
		}
	}

	deleted, err := uc.projects.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	uc.logger.Info("project deleted",
		zap.String("project_id", id.String()),
		zap.Int("unlinked_tasks", len(tasks)))
	return deleted, nil
}

// LinkTask attaches the task to the project. The task's deadline must not be
// later than the project's.
func (uc *UseCase) LinkTask(ctx context.Context, projectID, taskID uuid.UUID) (*domain.Task, error) {
	project, err := uc.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	task, err := uc.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.LinkToProject(project.ID, project.Deadline); err != nil {
		return nil, err
	}
	return uc.tasks.Save(ctx, task)
}

// UnlinkTask detaches the task. It fails with INVALID when the task is not
// linked to this project.
func (uc *UseCase) UnlinkTask(ctx context.Context, projectID, taskID uuid.UUID) (*domain.Task, error) {
	if _, err := uc.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	task, err := uc.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.BelongsTo(projectID) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "task is not linked to this project")
	}
	task.UnlinkFromProject()
	return uc.tasks.Save(ctx, task)
}

// CompleteProject completes the project when every linked task is completed.
// A project without tasks can always be completed.
func (uc *UseCase) CompleteProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := uc.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.FindByProjectID(ctx, id)
	if err != nil {
		return nil, err
	}
	allCompleted := true
	for _, t := range tasks {
		if !t.Completed {
			allCompleted = false
			break
		}
	}
	if err := project.MarkCompleted(allCompleted); err != nil {
		return nil, err
	}
	return uc.save(ctx, project)
}

func (uc *UseCase) ReopenProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := uc.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Reopen()
	return uc.save(ctx, project)
}

func (uc *UseCase) save(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	saved, err := uc.projects.Save(ctx, project)
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, project.CollectEvents()...)
	return saved, nil
}
