package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	boltinfra "github.com/fastygo/taskboard/internal/infrastructure/bolt"
	"github.com/fastygo/taskboard/repository"
)

type taskRepository struct {
	db     *bbolt.DB
	bucket []byte
}

// NewTaskRepository stores tasks as JSON documents keyed by id.
func NewTaskRepository(db *bbolt.DB) repository.TaskRepository {
	return &taskRepository{db: db, bucket: []byte(boltinfra.BucketTasks)}
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	stored := task.Snapshot()
	err := put(r.db, r.bucket, task.ID, task.Version, func(version int) ([]byte, error) {
		stored.Version = version
		return json.Marshal(stored)
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	raw, err := get(r.db, r.bucket, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.TaskNotFound(id)
	}
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) FindAll(ctx context.Context) ([]*domain.Task, error) {
	return r.filter(func(*domain.Task) bool { return true })
}

func (r *taskRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.BelongsTo(projectID) })
}

func (r *taskRepository) FindCompleted(ctx context.Context) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.Completed })
}

func (r *taskRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool { return t.IsOverdue(now) })
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return remove(r.db, r.bucket, id)
}

func (r *taskRepository) filter(keep func(*domain.Task) bool) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := scan(r.db, r.bucket, func(v []byte) error {
		var task domain.Task
		if err := json.Unmarshal(v, &task); err != nil {
			return err
		}
		if keep(&task) {
			tasks = append(tasks, &task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortTasks(tasks)
	return tasks, nil
}
