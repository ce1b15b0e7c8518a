package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const projectColumns = `id, title, deadline, completed, version, created_at, updated_at`

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates a Postgres-backed project repository.
func NewProjectRepository(pool *pgxpool.Pool) repository.ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) Save(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if project == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO projects (id, title, deadline, completed, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 1, $5, $6)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		deadline = EXCLUDED.deadline,
		completed = EXCLUDED.completed,
		updated_at = EXCLUDED.updated_at,
		version = projects.version + 1
	WHERE projects.version = $7
	RETURNING ` + projectColumns

	saved, err := scanProject(r.pool.QueryRow(ctx, query,
		project.ID,
		project.Title,
		project.Deadline,
		project.Completed,
		orNow(project.CreatedAt),
		orNow(project.UpdatedAt),
		project.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	return saved, nil
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ProjectNotFound(id)
		}
		return nil, err
	}
	return project, nil
}

func (r *projectRepository) FindAll(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanProject(row scanner) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Deadline,
		&project.Completed,
		&project.Version,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}
