package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const projectColumns = `id, title, deadline, completed, version, created_at, updated_at`

type projectRepository struct {
	db *sql.DB
}

// NewProjectRepository returns a SQLite-backed ProjectRepository.
func NewProjectRepository(db *sql.DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Save(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if project == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO projects (id, title, deadline, completed, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET title = excluded.title,
		deadline = excluded.deadline,
		completed = excluded.completed,
		updated_at = excluded.updated_at,
		version = projects.version + 1
	WHERE projects.version = ?
	RETURNING ` + projectColumns

	saved, err := scanProject(r.db.QueryRowContext(ctx, query,
		project.ID.String(),
		project.Title,
		toUnix(project.Deadline),
		project.Completed,
		toUnix(orNow(project.CreatedAt)),
		toUnix(orNow(project.UpdatedAt)),
		project.Version,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	return saved, nil
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id.String())
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ProjectNotFound(id)
		}
		return nil, err
	}
	return project, nil
}

func (r *projectRepository) FindAll(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanProject(row scanner) (*domain.Project, error) {
	var (
		project                    domain.Project
		deadline, created, updated int64
	)
	if err := row.Scan(
		&project.ID,
		&project.Title,
		&deadline,
		&project.Completed,
		&project.Version,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	project.Deadline = fromUnix(deadline)
	project.CreatedAt = fromUnix(created)
	project.UpdatedAt = fromUnix(updated)
	return &project, nil
}
