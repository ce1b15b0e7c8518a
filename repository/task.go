package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
)

// TaskRepository persists tasks.
//
// Save inserts when no record with the task's id exists, otherwise it updates
// the record provided the stored Version equals task.Version. A stale version
// yields domain.ErrVersionConflict. The returned task carries the stored
// Version and no pending events.
type TaskRepository interface {
	Save(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	FindAll(ctx context.Context) ([]*domain.Task, error)
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)
	FindCompleted(ctx context.Context) ([]*domain.Task, error)
	FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
