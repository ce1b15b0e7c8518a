package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// TaskStorage keeps tasks in process memory. Every read returns a fresh copy,
// so two loads of the same id never share an instance.
type TaskStorage struct {
	storage map[uuid.UUID]*domain.Task
	mtx     sync.RWMutex
}

var _ repository.TaskRepository = (*TaskStorage)(nil)

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{storage: make(map[uuid.UUID]*domain.Task)}
}

func (s *TaskStorage) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := task.Snapshot()
	if existing, ok := s.storage[task.ID]; ok {
		if existing.Version != task.Version {
			return nil, domain.ErrVersionConflict
		}
		stored.Version = existing.Version + 1
	} else {
		stored.Version = 1
	}
	s.storage[task.ID] = stored
	return stored.Snapshot(), nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	task, ok := s.storage[id]
	if !ok {
		return nil, domain.TaskNotFound(id)
	}
	return task.Snapshot(), nil
}

func (s *TaskStorage) FindAll(ctx context.Context) ([]*domain.Task, error) {
	return s.filter(func(*domain.Task) bool { return true }), nil
}

func (s *TaskStorage) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return s.filter(func(t *domain.Task) bool { return t.BelongsTo(projectID) }), nil
}

func (s *TaskStorage) FindCompleted(ctx context.Context) ([]*domain.Task, error) {
	return s.filter(func(t *domain.Task) bool { return t.Completed }), nil
}

func (s *TaskStorage) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return s.filter(func(t *domain.Task) bool { return t.IsOverdue(now) }), nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return false, nil
	}
	delete(s.storage, id)
	return true, nil
}

func (s *TaskStorage) filter(keep func(*domain.Task) bool) []*domain.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*domain.Task, 0, len(s.storage))
	for _, task := range s.storage {
		if keep(task) {
			res = append(res, task.Snapshot())
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID.String() < res[j].ID.String()
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}
