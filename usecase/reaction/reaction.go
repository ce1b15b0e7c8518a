// Package reaction holds the event handlers that keep tasks and projects
// consistent with each other.
package reaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/eventbus"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

type Options struct {
	// AutoCompleteProject completes a project once its last open task is completed.
	AutoCompleteProject bool
}

type Handlers struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	events   usecase.EventPublisher
	opts     Options
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, projects repository.ProjectRepository, events usecase.EventPublisher, opts Options, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = usecase.NopPublisher{}
	}
	return &Handlers{
		tasks:    tasks,
		projects: projects,
		events:   events,
		opts:     opts,
		logger:   logger.With(zap.String("component", "reaction")),
	}
}

// Register subscribes the reactions to bus. Events raised by the reactions
// are published back to the same bus.
func Register(bus *eventbus.Bus, tasks repository.TaskRepository, projects repository.ProjectRepository, opts Options, logger *zap.Logger) (*Handlers, error) {
	h := New(tasks, projects, bus, opts, logger)
	if err := eventbus.On(bus, "project-auto-complete", h.OnTaskCompleted); err != nil {
		return nil, err
	}
	if err := eventbus.On(bus, "project-reopen", h.OnTaskReopened); err != nil {
		return nil, err
	}
	if err := eventbus.On(bus, "task-deadline-clamp", h.OnProjectDeadlineChanged); err != nil {
		return nil, err
	}
	h.logger.Info("event handlers registered", zap.Bool("auto_complete_project", opts.AutoCompleteProject))
	return h, nil
}

// OnTaskCompleted completes the owning project when every one of its tasks is
// completed.
func (h *Handlers) OnTaskCompleted(ctx context.Context, e domain.TaskCompleted) error {
	h.logger.Info("task completed", zap.String("task_id", e.TaskID.String()))
	if e.ProjectID == nil || !h.opts.AutoCompleteProject {
		return nil
	}
	projectID := *e.ProjectID

	tasks, err := h.tasks.FindByProjectID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load tasks of project %s: %w", projectID, err)
	}
	if !usecase.AllCompleted(tasks) {
		return nil
	}

	project, err := h.projects.FindByID(ctx, projectID)
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
	if _, err := h.projects.Save(ctx, project); err != nil {
		return fmt.Errorf("save project %s: %w", projectID, err)
	}
	h.logger.Info("project auto-completed", zap.String("project_id", projectID.String()))
	h.events.Publish(ctx, project.CollectEvents()...)
	return nil
}

// OnTaskReopened reopens a completed project when one of its tasks is reopened.
func (h *Handlers) OnTaskReopened(ctx context.Context, e domain.TaskReopened) error {
	if e.ProjectID == nil {
		return nil
	}
	project, err := h.projects.FindByID(ctx, *e.ProjectID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !project.Completed {
		return nil
	}

	project.Reopen()
	if _, err := h.projects.Save(ctx, project); err != nil {
		return fmt.Errorf("save project %s: %w", project.ID, err)
	}
	h.logger.Info("project reopened after task reopen",
		zap.String("project_id", project.ID.String()),
		zap.String("task_id", e.TaskID.String()))
	h.events.Publish(ctx, project.CollectEvents()...)
	return nil
}

// OnProjectDeadlineChanged pulls task deadlines in when the project deadline
// moves earlier. A task that cannot be adjusted is logged and skipped.
func (h *Handlers) OnProjectDeadlineChanged(ctx context.Context, e domain.ProjectDeadlineChanged) error {
	h.logger.Info("project deadline changed",
		zap.String("project_id", e.ProjectID.String()),
		zap.Time("old_deadline", e.OldDeadline),
		zap.Time("new_deadline", e.NewDeadline))
	if !e.Shortened() {
		return nil
	}

	tasks, err := h.tasks.FindByProjectID(ctx, e.ProjectID)
	if err != nil {
		return fmt.Errorf("load tasks of project %s: %w", e.ProjectID, err)
	}

	limit := e.NewDeadline
	adjusted := 0
	for _, task := range tasks {
		if !task.Deadline.After(limit) {
			continue
		}
		if err := task.UpdateDeadline(limit, &limit); err != nil {
			h.logger.Error("failed to adjust task deadline", zap.String("task_id", task.ID.String()), zap.Error(err))
			continue
		}
		if _, err := h.tasks.Save(ctx, task); err != nil {
			h.logger.Error("failed to save adjusted task", zap.String("task_id", task.ID.String()), zap.Error(err))
			continue
		}
		adjusted++
		h.events.Publish(ctx, task.CollectEvents()...)
	}

	if adjusted > 0 {
		h.logger.Info("task deadlines adjusted",
			zap.String("project_id", e.ProjectID.String()),
			zap.Int("adjusted", adjusted))
	}
	return nil
}
