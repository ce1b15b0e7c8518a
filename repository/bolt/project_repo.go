package bolt

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	boltinfra "github.com/fastygo/taskboard/internal/infrastructure/bolt"
	"github.com/fastygo/taskboard/repository"
)

type projectRepository struct {
	db     *bbolt.DB
	bucket []byte
}

func NewProjectRepository(db *bbolt.DB) repository.ProjectRepository {
	return &projectRepository{db: db, bucket: []byte(boltinfra.BucketProjects)}
}

func (r *projectRepository) Save(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if project == nil {
		return nil, domain.ErrInvalidPayload
	}
	stored := project.Snapshot()
	err := put(r.db, r.bucket, project.ID, project.Version, func(version int) ([]byte, error) {
		stored.Version = version
		return json.Marshal(stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	raw, err := get(r.db, r.bucket, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.ProjectNotFound(id)
	}
	var project domain.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindAll(ctx context.Context) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := scan(r.db, r.bucket, func(v []byte) error {
		var project domain.Project
		if err := json.Unmarshal(v, &project); err != nil {
			return err
		}
		projects = append(projects, &project)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects, nil
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return remove(r.db, r.bucket, id)
}
