package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const taskColumns = `id, title, description, deadline, completed, project_id, version, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (id, title, description, deadline, completed, project_id, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		description = EXCLUDED.description,
		deadline = EXCLUDED.deadline,
		completed = EXCLUDED.completed,
		project_id = EXCLUDED.project_id,
		updated_at = EXCLUDED.updated_at,
		version = tasks.version + 1
	WHERE tasks.version = $9
	RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Deadline,
		task.Completed,
		task.ProjectID,
		orNow(task.CreatedAt),
		orNow(task.UpdatedAt),
		task.Version,
	)
	saved, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	return saved, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.TaskNotFound(id)
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
}

func (r *taskRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at, id`, projectID)
}

func (r *taskRepository) FindCompleted(ctx context.Context) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE completed ORDER BY created_at, id`)
}

func (r *taskRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return r.list(ctx, `
	SELECT `+taskColumns+`
	FROM tasks
	WHERE NOT completed AND deadline < $1
	ORDER BY deadline, id
	`, now)
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *taskRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Deadline,
		&task.Completed,
		&task.ProjectID,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
