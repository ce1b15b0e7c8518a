package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type ProjectStorage struct {
	storage map[uuid.UUID]*domain.Project
	mtx     sync.RWMutex
}

var _ repository.ProjectRepository = (*ProjectStorage)(nil)

func NewProjectStorage() *ProjectStorage {
	return &ProjectStorage{storage: make(map[uuid.UUID]*domain.Project)}
}

func (s *ProjectStorage) Save(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if project == nil {
		return nil, domain.ErrInvalidPayload
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := project.Snapshot()
	if existing, ok := s.storage[project.ID]; ok {
		if existing.Version != project.Version {
			return nil, domain.ErrVersionConflict
		}
		stored.Version = existing.Version + 1
	} else {
		stored.Version = 1
	}
	s.storage[project.ID] = stored
	return stored.Snapshot(), nil
}

func (s *ProjectStorage) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	project, ok := s.storage[id]
	if !ok {
		return nil, domain.ProjectNotFound(id)
	}
	return project.Snapshot(), nil
}

func (s *ProjectStorage) FindAll(ctx context.Context) ([]*domain.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*domain.Project, 0, len(s.storage))
	for _, project := range s.storage {
		res = append(res, project.Snapshot())
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID.String() < res[j].ID.String()
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *ProjectStorage) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return false, nil
	}
	delete(s.storage, id)
	return true, nil
}
