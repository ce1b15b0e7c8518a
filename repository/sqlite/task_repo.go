package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const taskColumns = `id, title, description, deadline, completed, project_id, version, created_at, updated_at`

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository returns a SQLite-backed TaskRepository. Timestamps are
// stored as unix nanoseconds.
func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (id, title, description, deadline, completed, project_id, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET title = excluded.title,
		description = excluded.description,
		deadline = excluded.deadline,
		completed = excluded.completed,
		project_id = excluded.project_id,
		updated_at = excluded.updated_at,
		version = tasks.version + 1
	WHERE tasks.version = ?
	RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		task.ID.String(),
		task.Title,
		nullString(task.Description),
		toUnix(task.Deadline),
		task.Completed,
		nullID(task.ProjectID),
		toUnix(orNow(task.CreatedAt)),
		toUnix(orNow(task.UpdatedAt)),
		task.Version,
	)
	saved, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	return saved, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String())
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at, id`, projectID.String())
}

func (r *taskRepository) FindCompleted(ctx context.Context) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE completed = 1 ORDER BY created_at, id`)
}

func (r *taskRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE completed = 0 AND deadline < ? ORDER BY deadline, id`, toUnix(now))
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *taskRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
	var (
		task                       domain.Task
		description, projectID     sql.NullString
		deadline, created, updated int64
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&deadline,
		&task.Completed,
		&projectID,
		&task.Version,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	if projectID.Valid {
		id, err := uuid.Parse(projectID.String)
		if err != nil {
			return nil, err
		}
		task.ProjectID = &id
	}
	task.Deadline = fromUnix(deadline)
	task.CreatedAt = fromUnix(created)
	task.UpdatedAt = fromUnix(updated)
	return &task, nil
}
