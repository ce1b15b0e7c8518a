package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
)

// ProjectRepository persists projects with the same Save contract as TaskRepository.
type ProjectRepository interface {
	Save(ctx context.Context, project *domain.Project) (*domain.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	FindAll(ctx context.Context) ([]*domain.Project, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
